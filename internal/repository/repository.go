package repository

import (
	"context"
	"errors"
	"fmt"

	"parkshare/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotFound is returned when no row matches
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a unique constraint rejects a row
	ErrDuplicate = errors.New("duplicate")
)

// UserRepository stores authentication identities
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UpdatePushToken(ctx context.Context, id int64, pushToken *string) error
	Delete(ctx context.Context, id int64) error
}

// AccountFilter narrows account listings
type AccountFilter struct {
	UserID *int64
}

// AccountRepository stores profiles
type AccountRepository interface {
	Create(ctx context.Context, account *models.Account) error
	GetByID(ctx context.Context, id int64) (*models.Account, error)
	GetByUserID(ctx context.Context, userID int64) (*models.Account, error)
	List(ctx context.Context, filter AccountFilter) ([]models.Account, error)
	Update(ctx context.Context, account *models.Account) error
}

// FriendRepository stores Friend rows and the account friends sets
type FriendRepository interface {
	// GetOrCreate returns the Friend row of userID, creating it if needed
	GetOrCreate(ctx context.Context, userID int64) (*models.Friend, error)
	GetByID(ctx context.Context, id int64) (*models.Friend, error)
	// Associate adds a Friend row to an account's set; adding twice is a no-op
	Associate(ctx context.Context, accountID, friendID int64) error
	Dissociate(ctx context.Context, accountID, friendID int64) error
	Clear(ctx context.Context, accountID int64) error
	ListForAccount(ctx context.Context, accountID int64) ([]models.Friend, error)
}

// FriendRequestRepository stores friend requests
type FriendRequestRepository interface {
	Create(ctx context.Context, req *models.FriendRequest) error
	GetByID(ctx context.Context, id int64) (*models.FriendRequest, error)
	Exists(ctx context.Context, fromUserID, toUserID int64) (bool, error)
	// LockPair serializes transactions working on requests from one user to
	// another until the surrounding transaction ends
	LockPair(ctx context.Context, fromUserID, toUserID int64) error
	ListForUser(ctx context.Context, userID int64) ([]models.FriendRequest, error)
	Delete(ctx context.Context, id int64) error
}

// ParkRepository stores parks
type ParkRepository interface {
	Create(ctx context.Context, park *models.Park) error
	GetByID(ctx context.Context, id int64) (*models.Park, error)
	List(ctx context.Context) ([]models.Park, error)
	Update(ctx context.Context, park *models.Park) error
	Delete(ctx context.Context, id int64) error
}

// PostFilter narrows post listings
type PostFilter struct {
	UserID int64
	TagIDs []int64
	ParkID *int64
}

// PostRepository stores posts and their tag links
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id int64) (*models.Post, error)
	List(ctx context.Context, filter PostFilter) ([]models.Post, error)
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id int64) error
	AddTag(ctx context.Context, postID, tagID int64) error
	ClearTags(ctx context.Context, postID int64) error
}

// RecipeFilter narrows recipe listings
type RecipeFilter struct {
	UserID        int64
	TagIDs        []int64
	IngredientIDs []int64
}

// RecipeRepository stores recipes and their tag and ingredient links
type RecipeRepository interface {
	Create(ctx context.Context, recipe *models.Recipe) error
	GetByID(ctx context.Context, id int64) (*models.Recipe, error)
	List(ctx context.Context, filter RecipeFilter) ([]models.Recipe, error)
	Update(ctx context.Context, recipe *models.Recipe) error
	Delete(ctx context.Context, id int64) error
	AddAttribute(ctx context.Context, kind models.AttributeKind, recipeID, attrID int64) error
	ClearAttributes(ctx context.Context, kind models.AttributeKind, recipeID int64) error
}

// AttributeRepository stores tags and ingredients
type AttributeRepository interface {
	// GetOrCreate returns the attribute named name in userID's namespace
	GetOrCreate(ctx context.Context, kind models.AttributeKind, userID int64, name string) (*models.Attribute, error)
	GetByID(ctx context.Context, kind models.AttributeKind, id int64) (*models.Attribute, error)
	List(ctx context.Context, kind models.AttributeKind, userID int64, assignedOnly bool) ([]models.Attribute, error)
	Update(ctx context.Context, kind models.AttributeKind, attr *models.Attribute) error
	Delete(ctx context.Context, kind models.AttributeKind, id int64) error
}

// CommentRepository stores post comments
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id int64) (*models.Comment, error)
	ListForPost(ctx context.Context, postID int64) ([]models.Comment, error)
	Delete(ctx context.Context, id int64) error
}

// ImageRepository reads and writes the image slot of any entity kind
type ImageRepository interface {
	Get(ctx context.Context, kind models.ImageKind, id int64) (*models.ImageSlot, error)
	Set(ctx context.Context, kind models.ImageKind, id int64, key string) error
}

// Store groups the repositories. InTx runs fn against repositories bound to
// one transaction, committing when fn returns nil and rolling back otherwise.
type Store interface {
	Users() UserRepository
	Accounts() AccountRepository
	Friends() FriendRepository
	FriendRequests() FriendRequestRepository
	Parks() ParkRepository
	Posts() PostRepository
	Recipes() RecipeRepository
	Attributes() AttributeRepository
	Comments() CommentRepository
	Images() ImageRepository
	InTx(ctx context.Context, fn func(Store) error) error
}

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PgStore is the PostgreSQL Store
type PgStore struct {
	pool *pgxpool.Pool
	db   DBTX
}

// NewPgStore creates a Store backed by pool
func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool, db: pool}
}

func (s *PgStore) Users() UserRepository                   { return &userRepository{db: s.db} }
func (s *PgStore) Accounts() AccountRepository             { return &accountRepository{db: s.db} }
func (s *PgStore) Friends() FriendRepository               { return &friendRepository{db: s.db} }
func (s *PgStore) FriendRequests() FriendRequestRepository { return &friendRequestRepository{db: s.db} }
func (s *PgStore) Parks() ParkRepository                   { return &parkRepository{db: s.db} }
func (s *PgStore) Posts() PostRepository                   { return &postRepository{db: s.db} }
func (s *PgStore) Recipes() RecipeRepository               { return &recipeRepository{db: s.db} }
func (s *PgStore) Attributes() AttributeRepository         { return &attributeRepository{db: s.db} }
func (s *PgStore) Comments() CommentRepository             { return &commentRepository{db: s.db} }
func (s *PgStore) Images() ImageRepository                 { return &imageRepository{db: s.db} }

// InTx runs fn in a transaction. Nested calls reuse the outer transaction.
func (s *PgStore) InTx(ctx context.Context, fn func(Store) error) error {
	if _, ok := s.db.(pgx.Tx); ok {
		return fn(s)
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&PgStore{pool: s.pool, db: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// mapError converts driver errors into ErrNotFound / ErrDuplicate
func mapError(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s not found: %w", what, ErrNotFound)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return fmt.Errorf("%s already exists: %w", what, ErrDuplicate)
		case "23503":
			return fmt.Errorf("%s references a missing row: %w", what, ErrNotFound)
		}
	}
	return fmt.Errorf("failed to query %s: %w", what, err)
}

func rowsAffected(tag pgconn.CommandTag, what string) error {
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s not found: %w", what, ErrNotFound)
	}
	return nil
}
