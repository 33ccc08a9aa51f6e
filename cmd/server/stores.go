package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Deehands24/laymen-terms/internal/config"
	"github.com/Deehands24/laymen-terms/internal/subscription"
	subscriptionrepository "github.com/Deehands24/laymen-terms/internal/subscription/repository"
	subscriptionservice "github.com/Deehands24/laymen-terms/internal/subscription/service"
	tokenrepository "github.com/Deehands24/laymen-terms/internal/token/repository"
	translationrepository "github.com/Deehands24/laymen-terms/internal/translation/repository"
	translationservice "github.com/Deehands24/laymen-terms/internal/translation/service"
	userrepository "github.com/Deehands24/laymen-terms/internal/user/repository"
	userservice "github.com/Deehands24/laymen-terms/internal/user/service"
	"github.com/Deehands24/laymen-terms/pkg/db"
)

type subscriptionStore interface {
	subscriptionservice.SubscriptionRepository
	IncrementUsage(ctx context.Context, userID int64) (bool, error)
	AssignPlan(ctx context.Context, userID, planID int64) (*subscription.UserSubscription, error)
}

type translationStore interface {
	translationservice.Repository
	CountSince(ctx context.Context, userID int64, since time.Time) (int, error)
}

// stores is the repository set picked once at startup: Postgres or in-memory.
type stores struct {
	Live          bool
	Users         userservice.UserRepository
	Tokens        userservice.RefreshTokenRepository
	Plans         subscriptionservice.PlanRepository
	Subscriptions subscriptionStore
	Translations  translationStore
	DB            *sql.DB
}

func openStores(cfg *config.Config, log *slog.Logger) (*stores, error) {
	if cfg.DatabaseURL == "" {
		log.Warn("DATABASE_URL not set, using in-memory demo data")
		return staticStores(cfg, log)
	}

	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		if !cfg.MockDataFallback {
			return nil, err
		}
		log.Error("database unavailable, falling back to in-memory demo data", "error", err)
		return staticStores(cfg, log)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := db.Migrate(ctx, database); err != nil {
		database.Close()
		return nil, err
	}

	if cfg.PlanCatalogPath != "" {
		log.Warn("PLAN_CATALOG_PATH is ignored with a database; plans come from subscription_plans")
	}

	return &stores{
		Live:          true,
		Users:         userrepository.NewPostgresUserRepository(database),
		Tokens:        tokenrepository.NewRefreshTokenRepository(database),
		Plans:         subscriptionrepository.NewPlanRepository(database),
		Subscriptions: subscriptionrepository.NewSubscriptionRepository(database),
		Translations:  translationrepository.NewPostgresRepository(sqlx.NewDb(database, "postgres")),
		DB:            database,
	}, nil
}

func staticStores(cfg *config.Config, log *slog.Logger) (*stores, error) {
	plans := subscriptionrepository.DefaultPlans()
	if cfg.PlanCatalogPath != "" {
		loaded, err := subscriptionrepository.LoadPlans(cfg.PlanCatalogPath)
		if err != nil {
			return nil, err
		}
		plans = loaded
		log.Info("plan catalog loaded", "path", cfg.PlanCatalogPath, "plans", len(plans))
	}

	users, err := userrepository.NewStaticUserRepository()
	if err != nil {
		return nil, fmt.Errorf("seed demo users: %w", err)
	}

	return &stores{
		Users:         users,
		Tokens:        tokenrepository.NewStaticRefreshTokenRepository(),
		Plans:         subscriptionrepository.NewStaticPlanRepository(plans),
		Subscriptions: subscriptionrepository.NewStaticSubscriptionRepository(),
		Translations:  translationrepository.NewStaticRepository(users),
	}, nil
}

func (s *stores) Close() {
	if s.DB != nil {
		s.DB.Close()
	}
}
