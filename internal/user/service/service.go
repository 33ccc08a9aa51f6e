package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Deehands24/laymen-terms/internal/subscription"
	"github.com/Deehands24/laymen-terms/internal/token"
	"github.com/Deehands24/laymen-terms/internal/user"
	"github.com/Deehands24/laymen-terms/internal/user/repository"
	"github.com/Deehands24/laymen-terms/pkg/hash"
	"github.com/Deehands24/laymen-terms/pkg/jwt"
	"github.com/Deehands24/laymen-terms/pkg/logger"
)

var (
	ErrUserExists   = errors.New("user already exists")
	ErrInvalidCreds = errors.New("invalid credentials")
	ErrUserNotFound = errors.New("user not found")
)

type UserRepository interface {
	Create(ctx context.Context, u *user.User) error
	GetByUsername(ctx context.Context, username string) (*user.User, error)
	GetByID(ctx context.Context, id int64) (*user.User, error)
}

type RefreshTokenRepository interface {
	Save(ctx context.Context, t *token.Token) error
	GetByToken(ctx context.Context, tokenStr string) (*token.Token, error)
	DeleteByToken(ctx context.Context, tokenStr string) error
}

// PlanAssigner gives new accounts their starting subscription.
type PlanAssigner interface {
	AssignPlan(ctx context.Context, userID, planID int64) (*subscription.UserSubscription, error)
}

type UserService struct {
	repo      UserRepository
	tokens    RefreshTokenRepository
	plans     PlanAssigner
	jwtSecret string
	jwtTTL    time.Duration
	log       *slog.Logger
	now       func() time.Time
}

func NewUserService(repo UserRepository, tokens RefreshTokenRepository, plans PlanAssigner,
	jwtSecret string, jwtTTL time.Duration, log *slog.Logger) *UserService {
	if log == nil {
		log = logger.Discard()
	}
	return &UserService{
		repo:      repo,
		tokens:    tokens,
		plans:     plans,
		jwtSecret: jwtSecret,
		jwtTTL:    jwtTTL,
		log:       log,
		now:       time.Now,
	}
}

// Session is what a successful login or refresh hands back to the client.
type Session struct {
	UserID       int64  `json:"userId"`
	Username     string `json:"username"`
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
}

func (s *UserService) Register(ctx context.Context, username, password string) (*user.User, error) {
	existing, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrUserExists
	}

	pw, err := hash.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &user.User{Username: username, PasswordHash: pw}
	if err := s.repo.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicateUsername) {
			return nil, ErrUserExists
		}
		return nil, err
	}

	if _, err := s.plans.AssignPlan(ctx, u.ID, subscription.FreePlanID); err != nil {
		s.log.Error("assign free plan failed", "user_id", u.ID, "error", err)
	}

	s.log.Info("user registered", "user_id", u.ID, "username", u.Username)
	return u, nil
}

func (s *UserService) Login(ctx context.Context, username, password string) (*Session, error) {
	u, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if u == nil || !hash.CheckPassword(u.PasswordHash, password) {
		return nil, ErrInvalidCreds
	}
	return s.issue(ctx, u)
}

// Refresh exchanges a refresh token for a new session and revokes the old token.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	t, err := s.tokens.GetByToken(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, token.ErrInvalidToken
	}
	if err := s.tokens.DeleteByToken(ctx, refreshToken); err != nil {
		return nil, err
	}
	if t.Expired(s.now()) {
		return nil, token.ErrExpiredToken
	}

	u, err := s.repo.GetByID(ctx, t.UserID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, token.ErrInvalidToken
	}
	return s.issue(ctx, u)
}

func (s *UserService) GetByID(ctx context.Context, id int64) (*user.User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}

func (s *UserService) issue(ctx context.Context, u *user.User) (*Session, error) {
	access, err := jwt.GenerateToken(s.jwtSecret, u.ID, u.Username, s.jwtTTL)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	refresh, err := token.NewRefreshToken(u.ID, s.now())
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}
	if err := s.tokens.Save(ctx, refresh); err != nil {
		return nil, err
	}

	return &Session{UserID: u.ID, Username: u.Username, Token: access, RefreshToken: refresh.Token}, nil
}
