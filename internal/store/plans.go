package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stackvest/backend/internal/domain"
)

const planColumns = `id, name, description, min_amount, max_amount, duration_days,
	daily_roi_percent::text, capital_back, active, sort_order, created_at, updated_at`

func scanPlan(row pgx.Row) (*domain.InvestmentPlan, error) {
	var (
		p   domain.InvestmentPlan
		roi string
	)
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.MinAmount, &p.MaxAmount, &p.DurationDays,
		&roi, &p.CapitalBack, &p.Active, &p.SortOrder, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	if p.DailyROIPercent, err = decimal.NewFromString(roi); err != nil {
		return nil, fmt.Errorf("parse daily_roi_percent for plan %s: %w", p.ID, err)
	}
	return &p, nil
}

func (r *PostgresRepository) ListPlans(ctx context.Context, activeOnly bool) ([]domain.InvestmentPlan, error) {
	query := `SELECT ` + planColumns + ` FROM investment_plans`
	if activeOnly {
		query += ` WHERE active`
	}
	query += ` ORDER BY sort_order, min_amount`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var plans []domain.InvestmentPlan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, *p)
	}
	return plans, rows.Err()
}

func (r *PostgresRepository) GetPlan(ctx context.Context, planID uuid.UUID) (*domain.InvestmentPlan, error) {
	return scanPlan(r.db.QueryRow(ctx, `SELECT `+planColumns+` FROM investment_plans WHERE id = $1`, planID))
}

func (r *PostgresRepository) CreatePlan(ctx context.Context, plan *domain.InvestmentPlan) error {
	if plan.ID == uuid.Nil {
		plan.ID = uuid.New()
	}
	err := r.db.QueryRow(ctx, `
		INSERT INTO investment_plans (id, name, description, min_amount, max_amount, duration_days,
			daily_roi_percent, capital_back, active, sort_order)
		VALUES ($1, $2, $3, $4, $5, $6, $7::numeric, $8, $9, $10)
		RETURNING created_at, updated_at
	`, plan.ID, plan.Name, plan.Description, plan.MinAmount, plan.MaxAmount, plan.DurationDays,
		plan.DailyROIPercent.String(), plan.CapitalBack, plan.Active, plan.SortOrder,
	).Scan(&plan.CreatedAt, &plan.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrPlanNameTaken
	}
	return err
}

// UpdatePlan rewrites a plan's terms. Running investments keep their snapshotted terms.
func (r *PostgresRepository) UpdatePlan(ctx context.Context, plan *domain.InvestmentPlan) error {
	err := r.db.QueryRow(ctx, `
		UPDATE investment_plans
		SET name = $2, description = $3, min_amount = $4, max_amount = $5, duration_days = $6,
			daily_roi_percent = $7::numeric, capital_back = $8, active = $9, sort_order = $10, updated_at = NOW()
		WHERE id = $1
		RETURNING created_at, updated_at
	`, plan.ID, plan.Name, plan.Description, plan.MinAmount, plan.MaxAmount, plan.DurationDays,
		plan.DailyROIPercent.String(), plan.CapitalBack, plan.Active, plan.SortOrder,
	).Scan(&plan.CreatedAt, &plan.UpdatedAt)
	switch {
	case err == pgx.ErrNoRows:
		return ErrPlanNotFound
	case isUniqueViolation(err):
		return ErrPlanNameTaken
	}
	return err
}

func (r *PostgresRepository) SetPlanActive(ctx context.Context, planID uuid.UUID, active bool) error {
	tag, err := r.db.Exec(ctx, `UPDATE investment_plans SET active = $2, updated_at = NOW() WHERE id = $1`, planID, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPlanNotFound
	}
	return nil
}
