package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"parkshare/internal/models"
	"parkshare/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// UserService handles user-related business logic
type UserService struct {
	store     repository.Store
	jwtSecret string
	jwtTTL    time.Duration
}

// NewUserService creates a new user service
func NewUserService(store repository.Store, jwtSecret string, jwtTTL time.Duration) *UserService {
	if jwtTTL <= 0 {
		jwtTTL = 24 * time.Hour
	}
	return &UserService{
		store:     store,
		jwtSecret: jwtSecret,
		jwtTTL:    jwtTTL,
	}
}

// CreateUserInput is the registration payload
type CreateUserInput struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=5,max=128"`
	Name     string `json:"name" validate:"max=255"`
}

// normalizeEmail trims the address and lowercases its domain part
func normalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at] + "@" + strings.ToLower(email[at+1:])
}

// CreateUser registers a user and bootstraps its account in one transaction
func (s *UserService) CreateUser(ctx context.Context, in CreateUserInput) (*models.User, error) {
	email := normalizeEmail(in.Email)
	if email == "" {
		return nil, models.NewFieldError("email", "email is required")
	}
	if in.Password == "" {
		return nil, models.NewFieldError("password", "password is required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, models.NewInternalError(fmt.Errorf("failed to hash password: %w", err))
	}

	user := &models.User{
		Email:        email,
		Name:         strings.TrimSpace(in.Name),
		PasswordHash: string(hash),
		IsActive:     true,
	}

	err = s.store.InTx(ctx, func(tx repository.Store) error {
		if err := tx.Users().Create(ctx, user); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return models.NewFieldError("email", "user with this email already exists")
			}
			return fmt.Errorf("failed to create user: %w", err)
		}
		_, err := bootstrapAccount(ctx, tx, user)
		return err
	})
	if err != nil {
		return nil, appError(err, "User", email)
	}

	return user, nil
}

// bootstrapAccount creates the account of a freshly created user and seeds
// its friends set with the user's own Friend row. It must run in the same
// transaction as the user insert.
func bootstrapAccount(ctx context.Context, tx repository.Store, user *models.User) (*models.Account, error) {
	account := &models.Account{UserID: user.ID, Name: user.Name}
	if err := tx.Accounts().Create(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	friend, err := tx.Friends().GetOrCreate(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create friend: %w", err)
	}

	if err := tx.Friends().Associate(ctx, account.ID, friend.ID); err != nil {
		return nil, fmt.Errorf("failed to associate friend: %w", err)
	}

	account.Friends = []models.Friend{*friend}
	return account, nil
}

// Authenticate checks credentials and issues a token
func (s *UserService) Authenticate(ctx context.Context, email, password string) (string, error) {
	user, err := s.store.Users().GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", models.NewUnauthorizedError("Unable to authenticate with provided credentials")
		}
		return "", models.NewInternalError(err)
	}

	if !user.IsActive {
		return "", models.NewUnauthorizedError("Unable to authenticate with provided credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", models.NewUnauthorizedError("Unable to authenticate with provided credentials")
	}

	token, err := s.GenerateJWT(user.ID)
	if err != nil {
		return "", models.NewInternalError(err)
	}
	return token, nil
}

// GenerateJWT generates a JWT token for a user
func (s *UserService) GenerateJWT(userID int64) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     now.Add(s.jwtTTL).Unix(),
		"iat":     now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// ValidateJWT validates a JWT token and returns the user ID
func (s *UserService) ValidateJWT(tokenString string) (int64, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid {
		return 0, fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, fmt.Errorf("invalid token claims")
	}

	// JSON numbers decode as float64
	userID, ok := claims["user_id"].(float64)
	if !ok || userID <= 0 {
		return 0, fmt.Errorf("user_id not found in token")
	}

	return int64(userID), nil
}

// GetUser retrieves a user by ID
func (s *UserService) GetUser(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.store.Users().GetByID(ctx, id)
	if err != nil {
		return nil, appError(err, "User", id)
	}
	return user, nil
}

// UpdatePushToken stores or clears the APNs device token of a user
func (s *UserService) UpdatePushToken(ctx context.Context, userID int64, token *string) error {
	if token != nil && strings.TrimSpace(*token) == "" {
		token = nil
	}
	if err := s.store.Users().UpdatePushToken(ctx, userID, token); err != nil {
		return appError(err, "User", userID)
	}
	return nil
}

// DeleteUser removes a user and everything it owns
func (s *UserService) DeleteUser(ctx context.Context, id int64) error {
	if err := s.store.Users().Delete(ctx, id); err != nil {
		return appError(err, "User", id)
	}
	return nil
}
