package repository

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/thisissairam/vidoo-backend/internal/domain"
)

type InMemoryUserRepository struct {
	mu        sync.RWMutex
	users     map[uuid.UUID]*domain.User
	usernames map[string]uuid.UUID
}

func NewInMemoryUserRepository() *InMemoryUserRepository {
	return &InMemoryUserRepository{
		users:     make(map[uuid.UUID]*domain.User),
		usernames: make(map[string]uuid.UUID),
	}
}

func (r *InMemoryUserRepository) Create(ctx context.Context, user *domain.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.usernames[user.Username]; ok {
		return ErrUsernameExists
	}

	stored := *user
	r.users[user.ID] = &stored
	r.usernames[user.Username] = user.ID
	return nil
}

func (r *InMemoryUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}

	out := *user
	return &out, nil
}

func (r *InMemoryUserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.usernames[username]
	if !ok {
		return nil, ErrUserNotFound
	}

	user, ok := r.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}

	out := *user
	return &out, nil
}

func (r *InMemoryUserRepository) Update(ctx context.Context, user *domain.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.users[user.ID]
	if !ok {
		return ErrUserNotFound
	}

	if user.Username != existing.Username {
		if _, taken := r.usernames[user.Username]; taken {
			return ErrUsernameExists
		}
		delete(r.usernames, existing.Username)
		r.usernames[user.Username] = user.ID
	}

	stored := *user
	r.users[user.ID] = &stored
	return nil
}
