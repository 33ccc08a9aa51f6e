package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	subrepo "github.com/Deehands24/laymen-terms/internal/subscription/repository"
	"github.com/Deehands24/laymen-terms/internal/token"
	tokenrepo "github.com/Deehands24/laymen-terms/internal/token/repository"
	"github.com/Deehands24/laymen-terms/internal/user/repository"
	"github.com/Deehands24/laymen-terms/pkg/hash"
	"github.com/Deehands24/laymen-terms/pkg/jwt"
)

const testSecret = "test-secret"

func newTestService(t *testing.T) (*UserService, *subrepo.StaticSubscriptionRepository, *tokenrepo.StaticRefreshTokenRepository) {
	t.Helper()
	hash.Cost = bcrypt.MinCost

	users, err := repository.NewStaticUserRepository()
	require.NoError(t, err)
	subs := subrepo.NewStaticSubscriptionRepository()
	tokens := tokenrepo.NewStaticRefreshTokenRepository()

	return NewUserService(users, tokens, subs, testSecret, time.Hour, nil), subs, tokens
}

func TestRegisterAssignsFreePlan(t *testing.T) {
	svc, subs, _ := newTestService(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, "newbie", "secret123")
	require.NoError(t, err)
	assert.NotZero(t, u.ID)
	assert.NotEqual(t, "secret123", u.PasswordHash)

	active, err := subs.GetActiveByUserID(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, int64(1), active.PlanID)
	assert.Equal(t, 0, active.TranslationsUsed)
}

func TestRegisterDuplicate(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Register(context.Background(), "demo_user", "secret123")
	assert.ErrorIs(t, err, ErrUserExists)
}

func TestLogin(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	sess, err := svc.Login(ctx, "demo_user", repository.DemoPassword)
	require.NoError(t, err)
	assert.Equal(t, int64(1), sess.UserID)
	assert.NotEmpty(t, sess.RefreshToken)

	claims, err := jwt.ParseToken(testSecret, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, int64(1), claims.UserID)
	assert.Equal(t, "demo_user", claims.Username)

	_, err = svc.Login(ctx, "demo_user", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCreds)

	_, err = svc.Login(ctx, "nobody", "whatever1")
	assert.ErrorIs(t, err, ErrInvalidCreds)
}

func TestRefreshRotatesToken(t *testing.T) {
	svc, _, tokens := newTestService(t)
	ctx := context.Background()

	sess, err := svc.Login(ctx, "test_user", repository.DemoPassword)
	require.NoError(t, err)

	next, err := svc.Refresh(ctx, sess.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, sess.RefreshToken, next.RefreshToken)

	old, err := tokens.GetByToken(ctx, sess.RefreshToken)
	require.NoError(t, err)
	assert.Nil(t, old)

	_, err = svc.Refresh(ctx, sess.RefreshToken)
	assert.ErrorIs(t, err, token.ErrInvalidToken)
}

func TestRefreshExpired(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	sess, err := svc.Login(ctx, "test_user", repository.DemoPassword)
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().Add(token.RefreshTTL + time.Minute) }
	_, err = svc.Refresh(ctx, sess.RefreshToken)
	assert.ErrorIs(t, err, token.ErrExpiredToken)
}
