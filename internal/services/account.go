package services

import (
	"context"
	"fmt"
	"unicode/utf8"

	"parkshare/internal/models"
	"parkshare/internal/repository"
	"parkshare/internal/storage"

	"github.com/rs/zerolog/log"
)

const (
	maxAccountName     = 255
	maxAccountPronouns = 30
	maxAccountBio      = 255
)

// AccountService handles profile reads and updates
type AccountService struct {
	store  repository.Store
	images storage.ImageStore
}

// NewAccountService creates a new account service. images may be nil.
func NewAccountService(store repository.Store, images storage.ImageStore) *AccountService {
	return &AccountService{store: store, images: images}
}

// ListAccounts returns accounts, optionally only those of one user
func (s *AccountService) ListAccounts(ctx context.Context, filter repository.AccountFilter) ([]models.Account, error) {
	accounts, err := s.store.Accounts().List(ctx, filter)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return accounts, nil
}

// GetAccount returns an account with its friends set
func (s *AccountService) GetAccount(ctx context.Context, id int64) (*models.Account, error) {
	account, err := s.store.Accounts().GetByID(ctx, id)
	if err != nil {
		return nil, appError(err, "Account", id)
	}
	if account.Friends, err = s.store.Friends().ListForAccount(ctx, id); err != nil {
		return nil, models.NewInternalError(err)
	}
	return account, nil
}

// GetAccountForUser returns the account bootstrapped for userID
func (s *AccountService) GetAccountForUser(ctx context.Context, userID int64) (*models.Account, error) {
	account, err := s.store.Accounts().GetByUserID(ctx, userID)
	if err != nil {
		return nil, appError(err, "Account for user", userID)
	}
	return s.GetAccount(ctx, account.ID)
}

func validateAccount(a *models.Account) error {
	fields := map[string][]string{}
	if utf8.RuneCountInString(a.Name) > maxAccountName {
		fields["name"] = []string{fmt.Sprintf("Ensure this field has no more than %d characters.", maxAccountName)}
	}
	if utf8.RuneCountInString(a.Pronouns) > maxAccountPronouns {
		fields["pronouns"] = []string{fmt.Sprintf("Ensure this field has no more than %d characters.", maxAccountPronouns)}
	}
	if utf8.RuneCountInString(a.Bio) > maxAccountBio {
		fields["bio"] = []string{fmt.Sprintf("Ensure this field has no more than %d characters.", maxAccountBio)}
	}
	if len(fields) > 0 {
		err := models.NewValidationError("Invalid account")
		err.Fields = fields
		return err
	}
	return nil
}

// UpdateAccount applies patch to an account the requester owns. Scalar
// fields and the friends set change in one transaction.
func (s *AccountService) UpdateAccount(ctx context.Context, requesterID, id int64, patch models.AccountPatch) (*models.Account, error) {
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		account, err := ownedAccount(ctx, tx, requesterID, id)
		if err != nil {
			return err
		}

		patch.Apply(account)
		if err := validateAccount(account); err != nil {
			return err
		}
		if err := tx.Accounts().Update(ctx, account); err != nil {
			return fmt.Errorf("failed to update account: %w", err)
		}

		return replaceFriends(ctx, tx, requesterID, account.ID, patch.Friends)
	})
	if err != nil {
		return nil, appError(err, "Account", id)
	}
	return s.GetAccount(ctx, id)
}

// DeleteAccount removes an account by deleting its owning user, so no user
// is ever left without an account
func (s *AccountService) DeleteAccount(ctx context.Context, requesterID, id int64) error {
	account, err := ownedAccount(ctx, s.store, requesterID, id)
	if err != nil {
		return err
	}
	keys := s.ownedImageKeys(ctx, account)
	if err := s.store.Users().Delete(ctx, account.UserID); err != nil {
		return appError(err, "Account", id)
	}
	removeImages(ctx, s.images, keys...)
	return nil
}

// ownedImageKeys collects the image keys of an account and of the parks,
// posts and recipes its user owns, all of which go with the user.
func (s *AccountService) ownedImageKeys(ctx context.Context, account *models.Account) []*string {
	keys := []*string{account.Avatar}
	if s.images == nil {
		return keys
	}

	parks, err := s.store.Parks().List(ctx)
	if err != nil {
		log.Warn().Err(err).Int64("user_id", account.UserID).Msg("Failed to list parks for image cleanup")
	}
	for _, park := range parks {
		if park.UserID == account.UserID {
			keys = append(keys, park.Image)
		}
	}

	posts, err := s.store.Posts().List(ctx, repository.PostFilter{UserID: account.UserID})
	if err != nil {
		log.Warn().Err(err).Int64("user_id", account.UserID).Msg("Failed to list posts for image cleanup")
	}
	for _, post := range posts {
		keys = append(keys, post.Image)
	}

	recipes, err := s.store.Recipes().List(ctx, repository.RecipeFilter{UserID: account.UserID})
	if err != nil {
		log.Warn().Err(err).Int64("user_id", account.UserID).Msg("Failed to list recipes for image cleanup")
	}
	for _, recipe := range recipes {
		keys = append(keys, recipe.Image)
	}
	return keys
}
