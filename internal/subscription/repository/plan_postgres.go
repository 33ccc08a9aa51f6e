package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/Deehands24/laymen-terms/internal/subscription"
)

type PlanRepository struct {
	db *sql.DB
}

func NewPlanRepository(db *sql.DB) *PlanRepository {
	return &PlanRepository{db: db}
}

func (r *PlanRepository) List(ctx context.Context) ([]subscription.Plan, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, monthly_price, translations_per_month, features
		 FROM subscription_plans ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	defer rows.Close()

	var plans []subscription.Plan
	for rows.Next() {
		var p subscription.Plan
		if err := rows.Scan(&p.ID, &p.Name, &p.MonthlyPrice, &p.TranslationsPerMonth, pq.Array(&p.Features)); err != nil {
			return nil, fmt.Errorf("scan plan: %w", err)
		}
		plans = append(plans, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate plans: %w", err)
	}
	return plans, nil
}

// GetByID returns nil, nil for an unknown id.
func (r *PlanRepository) GetByID(ctx context.Context, id int64) (*subscription.Plan, error) {
	p := &subscription.Plan{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, monthly_price, translations_per_month, features
		 FROM subscription_plans WHERE id = $1`,
		id).Scan(&p.ID, &p.Name, &p.MonthlyPrice, &p.TranslationsPerMonth, pq.Array(&p.Features))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get plan %d: %w", id, err)
	}
	return p, nil
}
