package services

import (
	"context"
	"errors"
	"fmt"

	"parkshare/internal/config"
	"parkshare/internal/models"
	"parkshare/internal/repository"
)

// FriendNotifier is told about friend request events. Delivery is best effort.
type FriendNotifier interface {
	NotifyFriendRequest(ctx context.Context, req *models.FriendRequest)
	NotifyFriendAccepted(ctx context.Context, req *models.FriendRequest)
}

type noopNotifier struct{}

func (noopNotifier) NotifyFriendRequest(context.Context, *models.FriendRequest)  {}
func (noopNotifier) NotifyFriendAccepted(context.Context, *models.FriendRequest) {}

// FriendService manages accounts' friends sets and friend requests
type FriendService struct {
	store    repository.Store
	cfg      config.FriendsConfig
	notifier FriendNotifier
}

// NewFriendService creates a new friend service. notifier may be nil.
func NewFriendService(store repository.Store, cfg config.FriendsConfig, notifier FriendNotifier) *FriendService {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &FriendService{store: store, cfg: cfg, notifier: notifier}
}

// addFriend get-or-creates the Friend row named by spec and adds it to the
// account's friends set. A spec without a user resolves to the requester.
func addFriend(ctx context.Context, st repository.Store, requesterID, accountID int64, spec models.FriendSpec) (*models.Friend, error) {
	userID := spec.UserID
	if userID == 0 {
		userID = requesterID
	}

	if _, err := st.Users().GetByID(ctx, userID); err != nil {
		return nil, appError(err, "User", userID)
	}

	friend, err := st.Friends().GetOrCreate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get friend: %w", err)
	}

	if err := st.Friends().Associate(ctx, accountID, friend.ID); err != nil {
		return nil, fmt.Errorf("failed to associate friend: %w", err)
	}
	return friend, nil
}

// replaceFriends resets the friends set to specs. A nil specs is a no-op.
func replaceFriends(ctx context.Context, st repository.Store, requesterID, accountID int64, specs *[]models.FriendSpec) error {
	if specs == nil {
		return nil
	}
	if err := st.Friends().Clear(ctx, accountID); err != nil {
		return fmt.Errorf("failed to clear friends: %w", err)
	}
	for _, spec := range *specs {
		if _, err := addFriend(ctx, st, requesterID, accountID, spec); err != nil {
			return err
		}
	}
	return nil
}

func ownedAccount(ctx context.Context, st repository.Store, requesterID, accountID int64) (*models.Account, error) {
	account, err := st.Accounts().GetByID(ctx, accountID)
	if err != nil {
		return nil, appError(err, "Account", accountID)
	}
	if account.UserID != requesterID {
		return nil, models.NewForbiddenError("You do not have permission to modify this account")
	}
	return account, nil
}

// AddFriend adds one Friend row to an account the requester owns
func (s *FriendService) AddFriend(ctx context.Context, requesterID, accountID int64, spec models.FriendSpec) (*models.Friend, error) {
	var friend *models.Friend
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		if _, err := ownedAccount(ctx, tx, requesterID, accountID); err != nil {
			return err
		}
		var err error
		friend, err = addFriend(ctx, tx, requesterID, accountID, spec)
		return err
	})
	if err != nil {
		return nil, appError(err, "Friend", spec.UserID)
	}
	return friend, nil
}

// ReplaceFriends resets the friends set of an account the requester owns and
// returns the resulting set
func (s *FriendService) ReplaceFriends(ctx context.Context, requesterID, accountID int64, specs *[]models.FriendSpec) ([]models.Friend, error) {
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		if _, err := ownedAccount(ctx, tx, requesterID, accountID); err != nil {
			return err
		}
		return replaceFriends(ctx, tx, requesterID, accountID, specs)
	})
	if err != nil {
		return nil, appError(err, "Account", accountID)
	}

	friends, err := s.store.Friends().ListForAccount(ctx, accountID)
	if err != nil {
		return nil, appError(err, "Account", accountID)
	}
	return friends, nil
}

func (s *FriendService) requesterAccount(ctx context.Context, st repository.Store, userID int64) (*models.Account, error) {
	account, err := st.Accounts().GetByUserID(ctx, userID)
	if err != nil {
		return nil, appError(err, "Account for user", userID)
	}
	return account, nil
}

// ListFriends returns the requester's friends set
func (s *FriendService) ListFriends(ctx context.Context, requesterID int64) ([]models.Friend, error) {
	account, err := s.requesterAccount(ctx, s.store, requesterID)
	if err != nil {
		return nil, err
	}
	friends, err := s.store.Friends().ListForAccount(ctx, account.ID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return friends, nil
}

// GetFriend returns a member of the requester's friends set
func (s *FriendService) GetFriend(ctx context.Context, requesterID, friendID int64) (*models.Friend, error) {
	friends, err := s.ListFriends(ctx, requesterID)
	if err != nil {
		return nil, err
	}
	for i := range friends {
		if friends[i].ID == friendID {
			return &friends[i], nil
		}
	}
	return nil, models.NewNotFoundError("Friend", friendID)
}

// UpdateFriend swaps a member of the requester's friends set for the Friend
// row of patch.UserID
func (s *FriendService) UpdateFriend(ctx context.Context, requesterID, friendID int64, patch models.FriendPatch) (*models.Friend, error) {
	current, err := s.GetFriend(ctx, requesterID, friendID)
	if err != nil {
		return nil, err
	}
	if patch.UserID == nil || *patch.UserID == current.UserID {
		return current, nil
	}

	var updated *models.Friend
	err = s.store.InTx(ctx, func(tx repository.Store) error {
		account, err := s.requesterAccount(ctx, tx, requesterID)
		if err != nil {
			return err
		}
		if err := tx.Friends().Dissociate(ctx, account.ID, current.ID); err != nil {
			return err
		}
		updated, err = addFriend(ctx, tx, requesterID, account.ID, models.FriendSpec{UserID: *patch.UserID})
		return err
	})
	if err != nil {
		return nil, appError(err, "Friend", friendID)
	}
	return updated, nil
}

// RemoveFriend drops a Friend row from the requester's set. The row itself
// is shared and stays.
func (s *FriendService) RemoveFriend(ctx context.Context, requesterID, friendID int64) error {
	account, err := s.requesterAccount(ctx, s.store, requesterID)
	if err != nil {
		return err
	}
	if err := s.store.Friends().Dissociate(ctx, account.ID, friendID); err != nil {
		return appError(err, "Friend", friendID)
	}
	return nil
}

// SendFriendRequest records a request from one user to another
func (s *FriendService) SendFriendRequest(ctx context.Context, fromUserID, toUserID int64) (*models.FriendRequest, error) {
	if toUserID == 0 {
		return nil, models.NewFieldError("to_user", "to_user is required")
	}
	if s.cfg.RejectSelf() && fromUserID == toUserID {
		return nil, models.NewFieldError("to_user", "You cannot send a friend request to yourself")
	}

	if _, err := s.store.Users().GetByID(ctx, toUserID); err != nil {
		return nil, appError(err, "User", toUserID)
	}

	req := &models.FriendRequest{FromUserID: fromUserID, ToUserID: toUserID}
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		if s.cfg.RejectDuplicates() {
			if err := tx.FriendRequests().LockPair(ctx, fromUserID, toUserID); err != nil {
				return err
			}
			exists, err := tx.FriendRequests().Exists(ctx, fromUserID, toUserID)
			if err != nil {
				return err
			}
			if exists {
				return models.NewConflictError("Friend request already sent")
			}
		}
		return tx.FriendRequests().Create(ctx, req)
	})
	if err != nil {
		return nil, appError(err, "Friend request", toUserID)
	}

	s.notifier.NotifyFriendRequest(ctx, req)
	return req, nil
}

// ListFriendRequests returns the requests a user sent or received
func (s *FriendService) ListFriendRequests(ctx context.Context, userID int64) ([]models.FriendRequest, error) {
	requests, err := s.store.FriendRequests().ListForUser(ctx, userID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return requests, nil
}

func (s *FriendService) partyRequest(ctx context.Context, userID, requestID int64) (*models.FriendRequest, error) {
	req, err := s.store.FriendRequests().GetByID(ctx, requestID)
	if err != nil {
		return nil, appError(err, "Friend request", requestID)
	}
	if req.FromUserID != userID && req.ToUserID != userID {
		return nil, models.NewForbiddenError("You are not part of this friend request")
	}
	return req, nil
}

// AcceptFriendRequest befriends both users and deletes the request. Only the
// addressee may accept.
func (s *FriendService) AcceptFriendRequest(ctx context.Context, userID, requestID int64) (*models.FriendRequest, error) {
	req, err := s.partyRequest(ctx, userID, requestID)
	if err != nil {
		return nil, err
	}
	if req.ToUserID != userID {
		return nil, models.NewForbiddenError("Only the recipient can accept a friend request")
	}

	err = s.store.InTx(ctx, func(tx repository.Store) error {
		fromAccount, err := s.requesterAccount(ctx, tx, req.FromUserID)
		if err != nil {
			return err
		}
		toAccount, err := s.requesterAccount(ctx, tx, req.ToUserID)
		if err != nil {
			return err
		}
		if _, err := addFriend(ctx, tx, req.ToUserID, toAccount.ID, models.FriendSpec{UserID: req.FromUserID}); err != nil {
			return err
		}
		if _, err := addFriend(ctx, tx, req.FromUserID, fromAccount.ID, models.FriendSpec{UserID: req.ToUserID}); err != nil {
			return err
		}
		return tx.FriendRequests().Delete(ctx, req.ID)
	})
	if err != nil {
		return nil, appError(err, "Friend request", requestID)
	}

	s.notifier.NotifyFriendAccepted(ctx, req)
	return req, nil
}

// DeleteFriendRequest rejects or cancels a request
func (s *FriendService) DeleteFriendRequest(ctx context.Context, userID, requestID int64) error {
	req, err := s.partyRequest(ctx, userID, requestID)
	if err != nil {
		return err
	}
	if err := s.store.FriendRequests().Delete(ctx, req.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return models.NewNotFoundError("Friend request", requestID)
		}
		return models.NewInternalError(err)
	}
	return nil
}
