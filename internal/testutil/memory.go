// Package testutil provides in-memory test doubles and fixtures.
package testutil

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"parkshare/internal/models"
	"parkshare/internal/repository"
)

type set map[int64]bool

func (s set) clone() set {
	out := make(set, len(s))
	for k := range s {
		out[k] = true
	}
	return out
}

type links map[int64]set

func (l links) clone() links {
	out := make(links, len(l))
	for k, v := range l {
		out[k] = v.clone()
	}
	return out
}

// drop removes id from every member set
func (l links) drop(id int64) {
	for _, s := range l {
		delete(s, id)
	}
}

func (l links) add(owner, member int64) {
	if l[owner] == nil {
		l[owner] = set{}
	}
	l[owner][member] = true
}

type memData struct {
	nextID         int64
	users          map[int64]models.User
	accounts       map[int64]models.Account
	friends        map[int64]models.Friend
	accountFriends links
	requests       map[int64]models.FriendRequest
	parks          map[int64]models.Park
	posts          map[int64]models.Post
	postTags       links
	attrs          map[models.AttributeKind]map[int64]models.Attribute
	recipes        map[int64]models.Recipe
	recipeAttrs    map[models.AttributeKind]links
	comments       map[int64]models.Comment
}

func newMemData() *memData {
	return &memData{
		users:          map[int64]models.User{},
		accounts:       map[int64]models.Account{},
		friends:        map[int64]models.Friend{},
		accountFriends: links{},
		requests:       map[int64]models.FriendRequest{},
		parks:          map[int64]models.Park{},
		posts:          map[int64]models.Post{},
		postTags:       links{},
		attrs: map[models.AttributeKind]map[int64]models.Attribute{
			models.AttributeTags:        {},
			models.AttributeIngredients: {},
		},
		recipes: map[int64]models.Recipe{},
		recipeAttrs: map[models.AttributeKind]links{
			models.AttributeTags:        {},
			models.AttributeIngredients: {},
		},
		comments: map[int64]models.Comment{},
	}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (d *memData) clone() *memData {
	c := &memData{
		nextID:         d.nextID,
		users:          cloneMap(d.users),
		accounts:       cloneMap(d.accounts),
		friends:        cloneMap(d.friends),
		accountFriends: d.accountFriends.clone(),
		requests:       cloneMap(d.requests),
		parks:          cloneMap(d.parks),
		posts:          cloneMap(d.posts),
		postTags:       d.postTags.clone(),
		attrs:          map[models.AttributeKind]map[int64]models.Attribute{},
		recipes:        cloneMap(d.recipes),
		recipeAttrs:    map[models.AttributeKind]links{},
		comments:       cloneMap(d.comments),
	}
	for k, v := range d.attrs {
		c.attrs[k] = cloneMap(v)
	}
	for k, v := range d.recipeAttrs {
		c.recipeAttrs[k] = v.clone()
	}
	return c
}

func (d *memData) id() int64 {
	d.nextID++
	return d.nextID
}

type memShared struct {
	txMu     sync.Mutex
	mu       sync.Mutex
	data     *memData
	failures map[string]error
}

// MemoryStore is an in-memory repository.Store. InTx snapshots the data and
// restores it when fn fails, so rollback behaves like the database.
type MemoryStore struct {
	shared *memShared
	inTx   bool
}

var _ repository.Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{shared: &memShared{data: newMemData(), failures: map[string]error{}}}
}

// FailOn makes the named operation, e.g. "friends.Associate", return err
// until cleared with a nil err
func (s *MemoryStore) FailOn(op string, err error) {
	s.shared.mu.Lock()
	defer s.shared.mu.Unlock()
	if err == nil {
		delete(s.shared.failures, op)
		return
	}
	s.shared.failures[op] = err
}

// lock takes the store lock and reports an injected failure for op
func (s *MemoryStore) lock(op string) (*memData, func(), error) {
	s.shared.mu.Lock()
	unlock := s.shared.mu.Unlock
	if err := s.shared.failures[op]; err != nil {
		unlock()
		return nil, nil, err
	}
	return s.shared.data, unlock, nil
}

// InTx runs fn and rolls back every change it made when it returns an error.
// Top-level transactions run one at a time.
func (s *MemoryStore) InTx(ctx context.Context, fn func(repository.Store) error) error {
	if s.inTx {
		return fn(s)
	}
	s.shared.txMu.Lock()
	defer s.shared.txMu.Unlock()

	s.shared.mu.Lock()
	snapshot := s.shared.data.clone()
	s.shared.mu.Unlock()

	if err := fn(&MemoryStore{shared: s.shared, inTx: true}); err != nil {
		s.shared.mu.Lock()
		s.shared.data = snapshot
		s.shared.mu.Unlock()
		return err
	}
	return nil
}

func (s *MemoryStore) Users() repository.UserRepository       { return memUsers{s} }
func (s *MemoryStore) Accounts() repository.AccountRepository { return memAccounts{s} }
func (s *MemoryStore) Friends() repository.FriendRepository   { return memFriends{s} }
func (s *MemoryStore) FriendRequests() repository.FriendRequestRepository {
	return memFriendRequests{s}
}
func (s *MemoryStore) Parks() repository.ParkRepository           { return memParks{s} }
func (s *MemoryStore) Posts() repository.PostRepository           { return memPosts{s} }
func (s *MemoryStore) Recipes() repository.RecipeRepository       { return memRecipes{s} }
func (s *MemoryStore) Attributes() repository.AttributeRepository { return memAttributes{s} }
func (s *MemoryStore) Comments() repository.CommentRepository     { return memComments{s} }
func (s *MemoryStore) Images() repository.ImageRepository         { return memImages{s} }

func notFound(what string) error {
	return fmt.Errorf("%s not found: %w", what, repository.ErrNotFound)
}

func duplicate(what string) error {
	return fmt.Errorf("%s already exists: %w", what, repository.ErrDuplicate)
}

func sortedIDs[V any](m map[int64]V) []int64 {
	ids := make([]int64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func sortedSet(s set) []int64 {
	ids := make([]int64, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// users

type memUsers struct{ s *MemoryStore }

func (r memUsers) Create(ctx context.Context, user *models.User) error {
	d, unlock, err := r.s.lock("users.Create")
	if err != nil {
		return err
	}
	defer unlock()
	for _, u := range d.users {
		if u.Email == user.Email {
			return duplicate("user")
		}
	}
	user.ID = d.id()
	user.CreatedAt = time.Now()
	d.users[user.ID] = *user
	return nil
}

func (r memUsers) GetByID(ctx context.Context, id int64) (*models.User, error) {
	d, unlock, err := r.s.lock("users.GetByID")
	if err != nil {
		return nil, err
	}
	defer unlock()
	u, ok := d.users[id]
	if !ok {
		return nil, notFound("user")
	}
	return &u, nil
}

func (r memUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	d, unlock, err := r.s.lock("users.GetByEmail")
	if err != nil {
		return nil, err
	}
	defer unlock()
	for _, u := range d.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, notFound("user")
}

func (r memUsers) UpdatePushToken(ctx context.Context, id int64, pushToken *string) error {
	d, unlock, err := r.s.lock("users.UpdatePushToken")
	if err != nil {
		return err
	}
	defer unlock()
	u, ok := d.users[id]
	if !ok {
		return notFound("user")
	}
	u.PushToken = pushToken
	d.users[id] = u
	return nil
}

func (r memUsers) Delete(ctx context.Context, id int64) error {
	d, unlock, err := r.s.lock("users.Delete")
	if err != nil {
		return err
	}
	defer unlock()
	if _, ok := d.users[id]; !ok {
		return notFound("user")
	}
	delete(d.users, id)
	d.cascadeUser(id)
	return nil
}

// cascadeUser mirrors the ON DELETE rules of the schema
func (d *memData) cascadeUser(userID int64) {
	for id, a := range d.accounts {
		if a.UserID == userID {
			delete(d.accounts, id)
			delete(d.accountFriends, id)
			for pid, p := range d.posts {
				if p.AccountID != nil && *p.AccountID == id {
					p.AccountID = nil
					d.posts[pid] = p
				}
			}
		}
	}
	for id, f := range d.friends {
		if f.UserID == userID {
			delete(d.friends, id)
			d.accountFriends.drop(id)
		}
	}
	for id, req := range d.requests {
		if req.FromUserID == userID || req.ToUserID == userID {
			delete(d.requests, id)
		}
	}
	for id, p := range d.parks {
		if p.UserID == userID {
			d.deletePark(id)
		}
	}
	for id, p := range d.posts {
		if p.UserID == userID {
			d.deletePost(id)
		}
	}
	for id, rec := range d.recipes {
		if rec.UserID == userID {
			d.deleteRecipe(id)
		}
	}
	for kind, attrs := range d.attrs {
		for id, a := range attrs {
			if a.UserID == userID {
				d.deleteAttribute(kind, id)
			}
		}
	}
	for id, c := range d.comments {
		if c.UserID == userID {
			delete(d.comments, id)
		}
	}
}

func (d *memData) deletePark(id int64) {
	delete(d.parks, id)
	for pid, p := range d.posts {
		if p.ParkID != nil && *p.ParkID == id {
			p.ParkID = nil
			d.posts[pid] = p
		}
	}
}

func (d *memData) deletePost(id int64) {
	delete(d.posts, id)
	delete(d.postTags, id)
	for cid, c := range d.comments {
		if c.PostID == id {
			delete(d.comments, cid)
		}
	}
}

func (d *memData) deleteRecipe(id int64) {
	delete(d.recipes, id)
	for _, l := range d.recipeAttrs {
		delete(l, id)
	}
}

func (d *memData) deleteAttribute(kind models.AttributeKind, id int64) {
	delete(d.attrs[kind], id)
	if kind == models.AttributeTags {
		d.postTags.drop(id)
	}
	d.recipeAttrs[kind].drop(id)
}

// accounts

type memAccounts struct{ s *MemoryStore }

func (r memAccounts) Create(ctx context.Context, account *models.Account) error {
	d, unlock, err := r.s.lock("accounts.Create")
	if err != nil {
		return err
	}
	defer unlock()
	if _, ok := d.users[account.UserID]; !ok {
		return notFound("user")
	}
	for _, a := range d.accounts {
		if a.UserID == account.UserID {
			return duplicate("account")
		}
	}
	account.ID = d.id()
	stored := *account
	stored.Friends = nil
	d.accounts[account.ID] = stored
	return nil
}

func (r memAccounts) GetByID(ctx context.Context, id int64) (*models.Account, error) {
	d, unlock, err := r.s.lock("accounts.GetByID")
	if err != nil {
		return nil, err
	}
	defer unlock()
	a, ok := d.accounts[id]
	if !ok {
		return nil, notFound("account")
	}
	return &a, nil
}

func (r memAccounts) GetByUserID(ctx context.Context, userID int64) (*models.Account, error) {
	d, unlock, err := r.s.lock("accounts.GetByUserID")
	if err != nil {
		return nil, err
	}
	defer unlock()
	for _, a := range d.accounts {
		if a.UserID == userID {
			return &a, nil
		}
	}
	return nil, notFound("account")
}

func (r memAccounts) List(ctx context.Context, filter repository.AccountFilter) ([]models.Account, error) {
	d, unlock, err := r.s.lock("accounts.List")
	if err != nil {
		return nil, err
	}
	defer unlock()
	ids := sortedIDs(d.accounts)
	accounts := []models.Account{}
	for i := len(ids) - 1; i >= 0; i-- {
		a := d.accounts[ids[i]]
		if filter.UserID != nil && a.UserID != *filter.UserID {
			continue
		}
		accounts = append(accounts, a)
	}
	return accounts, nil
}

func (r memAccounts) Update(ctx context.Context, account *models.Account) error {
	d, unlock, err := r.s.lock("accounts.Update")
	if err != nil {
		return err
	}
	defer unlock()
	a, ok := d.accounts[account.ID]
	if !ok {
		return notFound("account")
	}
	a.Name, a.Pronouns, a.Bio = account.Name, account.Pronouns, account.Bio
	d.accounts[account.ID] = a
	return nil
}

// friends

type memFriends struct{ s *MemoryStore }

func (r memFriends) GetOrCreate(ctx context.Context, userID int64) (*models.Friend, error) {
	d, unlock, err := r.s.lock("friends.GetOrCreate")
	if err != nil {
		return nil, err
	}
	defer unlock()
	for _, f := range d.friends {
		if f.UserID == userID {
			return &f, nil
		}
	}
	if _, ok := d.users[userID]; !ok {
		return nil, notFound("user")
	}
	f := models.Friend{ID: d.id(), UserID: userID, CreatedAt: time.Now()}
	d.friends[f.ID] = f
	return &f, nil
}

func (r memFriends) GetByID(ctx context.Context, id int64) (*models.Friend, error) {
	d, unlock, err := r.s.lock("friends.GetByID")
	if err != nil {
		return nil, err
	}
	defer unlock()
	f, ok := d.friends[id]
	if !ok {
		return nil, notFound("friend")
	}
	return &f, nil
}

func (r memFriends) Associate(ctx context.Context, accountID, friendID int64) error {
	d, unlock, err := r.s.lock("friends.Associate")
	if err != nil {
		return err
	}
	defer unlock()
	if _, ok := d.accounts[accountID]; !ok {
		return notFound("account")
	}
	if _, ok := d.friends[friendID]; !ok {
		return notFound("friend")
	}
	d.accountFriends.add(accountID, friendID)
	return nil
}

func (r memFriends) Dissociate(ctx context.Context, accountID, friendID int64) error {
	d, unlock, err := r.s.lock("friends.Dissociate")
	if err != nil {
		return err
	}
	defer unlock()
	if !d.accountFriends[accountID][friendID] {
		return notFound("account friend")
	}
	delete(d.accountFriends[accountID], friendID)
	return nil
}

func (r memFriends) Clear(ctx context.Context, accountID int64) error {
	d, unlock, err := r.s.lock("friends.Clear")
	if err != nil {
		return err
	}
	defer unlock()
	delete(d.accountFriends, accountID)
	return nil
}

func (r memFriends) ListForAccount(ctx context.Context, accountID int64) ([]models.Friend, error) {
	d, unlock, err := r.s.lock("friends.ListForAccount")
	if err != nil {
		return nil, err
	}
	defer unlock()
	friends := []models.Friend{}
	for _, id := range sortedSet(d.accountFriends[accountID]) {
		friends = append(friends, d.friends[id])
	}
	return friends, nil
}

// friend requests

type memFriendRequests struct{ s *MemoryStore }

func (r memFriendRequests) Create(ctx context.Context, req *models.FriendRequest) error {
	d, unlock, err := r.s.lock("friendRequests.Create")
	if err != nil {
		return err
	}
	defer unlock()
	req.ID = d.id()
	req.CreatedAt = time.Now()
	d.requests[req.ID] = *req
	return nil
}

func (r memFriendRequests) GetByID(ctx context.Context, id int64) (*models.FriendRequest, error) {
	d, unlock, err := r.s.lock("friendRequests.GetByID")
	if err != nil {
		return nil, err
	}
	defer unlock()
	req, ok := d.requests[id]
	if !ok {
		return nil, notFound("friend request")
	}
	return &req, nil
}

func (r memFriendRequests) Exists(ctx context.Context, fromUserID, toUserID int64) (bool, error) {
	d, unlock, err := r.s.lock("friendRequests.Exists")
	if err != nil {
		return false, err
	}
	defer unlock()
	for _, req := range d.requests {
		if req.FromUserID == fromUserID && req.ToUserID == toUserID {
			return true, nil
		}
	}
	return false, nil
}

// LockPair only reports injected failures. Top-level transactions already
// run one at a time.
func (r memFriendRequests) LockPair(ctx context.Context, fromUserID, toUserID int64) error {
	_, unlock, err := r.s.lock("friendRequests.LockPair")
	if err != nil {
		return err
	}
	unlock()
	return nil
}

func (r memFriendRequests) ListForUser(ctx context.Context, userID int64) ([]models.FriendRequest, error) {
	d, unlock, err := r.s.lock("friendRequests.ListForUser")
	if err != nil {
		return nil, err
	}
	defer unlock()
	ids := sortedIDs(d.requests)
	requests := []models.FriendRequest{}
	for i := len(ids) - 1; i >= 0; i-- {
		req := d.requests[ids[i]]
		if req.FromUserID == userID || req.ToUserID == userID {
			requests = append(requests, req)
		}
	}
	return requests, nil
}

func (r memFriendRequests) Delete(ctx context.Context, id int64) error {
	d, unlock, err := r.s.lock("friendRequests.Delete")
	if err != nil {
		return err
	}
	defer unlock()
	if _, ok := d.requests[id]; !ok {
		return notFound("friend request")
	}
	delete(d.requests, id)
	return nil
}
