package repository

import (
	"context"
	"sync"
	"time"

	"github.com/Deehands24/laymen-terms/internal/user"
	"github.com/Deehands24/laymen-terms/pkg/hash"
)

// DemoPassword is the password of the seeded demo accounts.
const DemoPassword = "password123"

type StaticUserRepository struct {
	mu     sync.RWMutex
	nextID int64
	users  map[int64]*user.User
}

// NewStaticUserRepository seeds demo_user (1) and test_user (2).
func NewStaticUserRepository() (*StaticUserRepository, error) {
	r := &StaticUserRepository{nextID: 1, users: make(map[int64]*user.User)}

	pw, err := hash.HashPassword(DemoPassword)
	if err != nil {
		return nil, err
	}
	for _, name := range []string{"demo_user", "test_user"} {
		if err := r.Create(context.Background(), &user.User{Username: name, PasswordHash: pw}); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *StaticUserRepository) Create(_ context.Context, u *user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if existing.Username == u.Username {
			return ErrDuplicateUsername
		}
	}

	u.ID = r.nextID
	u.CreatedAt = time.Now()
	r.nextID++

	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *StaticUserRepository) GetByUsername(_ context.Context, username string) (*user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *StaticUserRepository) GetByID(_ context.Context, id int64) (*user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}
