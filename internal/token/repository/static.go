package repository

import (
	"context"
	"sync"

	"github.com/Deehands24/laymen-terms/internal/token"
)

type StaticRefreshTokenRepository struct {
	mu     sync.Mutex
	nextID int64
	tokens map[string]token.Token
}

func NewStaticRefreshTokenRepository() *StaticRefreshTokenRepository {
	return &StaticRefreshTokenRepository{nextID: 1, tokens: make(map[string]token.Token)}
}

func (r *StaticRefreshTokenRepository) Save(_ context.Context, t *token.Token) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t.ID = r.nextID
	r.nextID++
	r.tokens[t.Token] = *t
	return nil
}

func (r *StaticRefreshTokenRepository) GetByToken(_ context.Context, tokenStr string) (*token.Token, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tokens[tokenStr]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (r *StaticRefreshTokenRepository) DeleteByToken(_ context.Context, tokenStr string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.tokens, tokenStr)
	return nil
}
