package store

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/quicktech-sms/portal/types"
)

// UserRepository keeps accounts in memory. Emails are unique,
// case-insensitively.
type UserRepository struct {
	mu      sync.RWMutex
	byID    map[string]types.Account
	byEmail map[string]string
	nextID  int
	now     func() time.Time
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		byID:    make(map[string]types.Account),
		byEmail: make(map[string]string),
		nextID:  1,
		now:     time.Now,
	}
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (types.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	account, ok := r.byID[id]
	if !ok {
		return types.Account{}, ErrNotFound
	}
	return account, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (types.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byEmail[emailKey(email)]
	if !ok {
		return types.Account{}, ErrNotFound
	}
	return r.byID[id], nil
}

// ListByRole returns accounts holding role, newest first.
func (r *UserRepository) ListByRole(ctx context.Context, role types.Role) ([]types.Account, error) {
	r.mu.RLock()
	accounts := make([]types.Account, 0, len(r.byID))
	for _, account := range r.byID {
		if account.Role == role {
			accounts = append(accounts, account)
		}
	}
	r.mu.RUnlock()

	sort.Slice(accounts, func(i, j int) bool {
		if accounts[i].CreatedAt.Equal(accounts[j].CreatedAt) {
			return numericID(accounts[i].ID) > numericID(accounts[j].ID)
		}
		return accounts[i].CreatedAt.After(accounts[j].CreatedAt)
	})
	return accounts, nil
}

func numericID(id string) int {
	n, _ := strconv.Atoi(id)
	return n
}

// Create assigns the next id and stores account.
func (r *UserRepository) Create(ctx context.Context, account types.Account) (types.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := emailKey(account.Email)
	if _, taken := r.byEmail[key]; taken {
		return types.Account{}, ErrEmailTaken
	}

	now := r.now()
	account.ID = strconv.Itoa(r.nextID)
	r.nextID++
	account.CreatedAt = now
	account.UpdatedAt = now

	r.byID[account.ID] = account
	r.byEmail[key] = account.ID
	return account, nil
}

func (r *UserRepository) Update(ctx context.Context, account types.Account) (types.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev, ok := r.byID[account.ID]
	if !ok {
		return types.Account{}, ErrNotFound
	}
	oldKey, newKey := emailKey(prev.Email), emailKey(account.Email)
	if oldKey != newKey {
		if _, taken := r.byEmail[newKey]; taken {
			return types.Account{}, ErrEmailTaken
		}
		delete(r.byEmail, oldKey)
		r.byEmail[newKey] = account.ID
	}

	account.CreatedAt = prev.CreatedAt
	account.UpdatedAt = r.now()
	r.byID[account.ID] = account
	return account, nil
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	account, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	delete(r.byEmail, emailKey(account.Email))
	delete(r.byID, id)
	return nil
}
