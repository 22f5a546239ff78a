package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stackvest/backend/internal/domain"
)

const investmentColumns = `id, user_id, plan_id, plan_name, amount, daily_roi_percent::text, duration_days,
	capital_back, status, started_at, ends_at, last_gain_date, total_earned, completed_at, created_at`

func scanInvestment(row pgx.Row) (*domain.Investment, error) {
	var (
		inv    domain.Investment
		roi    string
		status string
	)
	err := row.Scan(&inv.ID, &inv.UserID, &inv.PlanID, &inv.PlanName, &inv.Amount, &roi, &inv.DurationDays,
		&inv.CapitalBack, &status, &inv.StartedAt, &inv.EndsAt, &inv.LastGainDate, &inv.TotalEarned,
		&inv.CompletedAt, &inv.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrInvestmentNotFound
		}
		return nil, err
	}
	if inv.DailyROIPercent, err = decimal.NewFromString(roi); err != nil {
		return nil, fmt.Errorf("parse daily_roi_percent for investment %s: %w", inv.ID, err)
	}
	inv.Status = domain.InvestmentStatus(status)
	return &inv, nil
}

func (r *PostgresRepository) queryInvestments(ctx context.Context, query string, args ...interface{}) ([]domain.Investment, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.Investment
	for rows.Next() {
		inv, err := scanInvestment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *inv)
	}
	return items, rows.Err()
}

type contact struct {
	Email    string
	Username string
}

func userContactTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (contact, error) {
	var c contact
	err := tx.QueryRow(ctx, `SELECT email, username FROM users WHERE id = $1`, userID).Scan(&c.Email, &c.Username)
	if err == pgx.ErrNoRows {
		return c, ErrUserNotFound
	}
	return c, err
}

// CreateInvestment moves the principal from main to the investment bucket and opens the
// investment. The plan row is share-locked so it cannot be deactivated mid-flight.
func (r *PostgresRepository) CreateInvestment(ctx context.Context, inv *domain.Investment) error {
	if inv.ID == uuid.Nil {
		inv.ID = uuid.New()
	}
	inv.Status = domain.InvestmentActive

	return r.withTx(ctx, func(tx pgx.Tx) error {
		var active bool
		err := tx.QueryRow(ctx, `SELECT active FROM investment_plans WHERE id = $1 FOR SHARE`, inv.PlanID).Scan(&active)
		if err != nil {
			if err == pgx.ErrNoRows {
				return ErrPlanNotFound
			}
			return err
		}
		if !active {
			return ErrPlanInactive
		}

		balances, err := lockBalancesTx(ctx, tx, inv.UserID)
		if err != nil {
			return err
		}
		if balances.Main < inv.Amount {
			return ErrInsufficientFunds
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO investments (id, user_id, plan_id, plan_name, amount, daily_roi_percent, duration_days,
				capital_back, status, started_at, ends_at)
			VALUES ($1, $2, $3, $4, $5, $6::numeric, $7, $8, $9, $10, $11)
		`, inv.ID, inv.UserID, inv.PlanID, inv.PlanName, inv.Amount, inv.DailyROIPercent.String(), inv.DurationDays,
			inv.CapitalBack, string(inv.Status), inv.StartedAt.UTC(), inv.EndsAt.UTC())
		if err != nil {
			return fmt.Errorf("insert investment: %w", err)
		}

		desc := "Investment in " + inv.PlanName
		if _, err := postTx(ctx, tx, posting{UserID: inv.UserID, Type: domain.TxInvestment, Bucket: domain.BucketMain,
			Amount: -inv.Amount, ReferenceID: refID(inv.ID), Description: desc}); err != nil {
			return err
		}
		if _, err := postTx(ctx, tx, posting{UserID: inv.UserID, Type: domain.TxInvestment, Bucket: domain.BucketInvestment,
			Amount: inv.Amount, ReferenceID: refID(inv.ID), Description: desc}); err != nil {
			return err
		}

		who, err := userContactTx(ctx, tx, inv.UserID)
		if err != nil {
			return err
		}
		if err := insertActivityTx(ctx, tx, inv.UserID, "investment_created", map[string]interface{}{
			"investment_id": inv.ID.String(),
			"plan":          inv.PlanName,
			"amount":        inv.Amount,
		}, ""); err != nil {
			return err
		}
		if err := insertNotificationTx(ctx, tx, inv.UserID, domain.CategoryInvestment, "Investment started",
			fmt.Sprintf("Your %s investment of %s is active until %s.", inv.PlanName, domain.FormatCents(inv.Amount),
				inv.EndsAt.UTC().Format("2006-01-02")), nil); err != nil {
			return err
		}
		return enqueueEventTx(ctx, tx, r.exchange, domain.EventInvestmentCreated, domain.LedgerEvent{
			UserID:      inv.UserID.String(),
			Email:       who.Email,
			Username:    who.Username,
			ReferenceID: inv.ID.String(),
			Amount:      inv.Amount,
			PlanName:    inv.PlanName,
			EndsAt:      inv.EndsAt.UTC().Format(time.RFC3339),
			CapitalBack: inv.CapitalBack,
		})
	})
}

func (r *PostgresRepository) ListInvestments(ctx context.Context, userID uuid.UUID, status domain.InvestmentStatus) ([]domain.Investment, error) {
	if status != "" {
		return r.queryInvestments(ctx, `SELECT `+investmentColumns+` FROM investments WHERE user_id = $1 AND status = $2 ORDER BY created_at DESC`, userID, string(status))
	}
	return r.queryInvestments(ctx, `SELECT `+investmentColumns+` FROM investments WHERE user_id = $1 ORDER BY created_at DESC`, userID)
}

func (r *PostgresRepository) GetInvestment(ctx context.Context, userID, investmentID uuid.UUID) (*domain.Investment, error) {
	return scanInvestment(r.db.QueryRow(ctx, `SELECT `+investmentColumns+` FROM investments WHERE id = $1 AND user_id = $2`, investmentID, userID))
}

func (r *PostgresRepository) ListActiveInvestments(ctx context.Context) ([]domain.Investment, error) {
	return r.queryInvestments(ctx, `SELECT `+investmentColumns+` FROM investments WHERE status = 'active' ORDER BY started_at`)
}

func (r *PostgresRepository) ListMaturedInvestments(ctx context.Context, now time.Time) ([]domain.Investment, error) {
	return r.queryInvestments(ctx, `SELECT `+investmentColumns+` FROM investments WHERE status = 'active' AND ends_at <= $1 ORDER BY ends_at`, now.UTC())
}

// CreditDailyGain pays one accrual day. The gain_credits primary key makes the credit
// idempotent: it returns false without touching balances when the day was already paid.
func (r *PostgresRepository) CreditDailyGain(ctx context.Context, investmentID uuid.UUID, gainDate time.Time, amount int64) (bool, error) {
	gainDate = domain.TruncateDay(gainDate)
	credited := false

	err := r.withTx(ctx, func(tx pgx.Tx) error {
		var (
			userID   uuid.UUID
			status   string
			planName string
		)
		err := tx.QueryRow(ctx, `
			SELECT user_id, status, plan_name FROM investments WHERE id = $1 FOR UPDATE
		`, investmentID).Scan(&userID, &status, &planName)
		if err != nil {
			if err == pgx.ErrNoRows {
				return ErrInvestmentNotFound
			}
			return err
		}
		if status != string(domain.InvestmentActive) {
			return ErrInvestmentNotActive
		}

		tag, err := tx.Exec(ctx, `
			INSERT INTO gain_credits (investment_id, gain_date, amount)
			VALUES ($1, $2, $3)
			ON CONFLICT (investment_id, gain_date) DO NOTHING
		`, investmentID, gainDate, amount)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return nil
		}

		if amount > 0 {
			if _, err := lockBalancesTx(ctx, tx, userID); err != nil {
				return err
			}
			if _, err := postTx(ctx, tx, posting{
				UserID:      userID,
				Type:        domain.TxDailyGain,
				Bucket:      domain.BucketMain,
				Amount:      amount,
				ReferenceID: refID(investmentID),
				Description: fmt.Sprintf("Daily gain %s (%s)", gainDate.Format("2006-01-02"), planName),
			}); err != nil {
				return err
			}
		}

		if _, err := tx.Exec(ctx, `
			UPDATE investments
			SET last_gain_date = GREATEST(COALESCE(last_gain_date, $2::date), $2::date),
				total_earned = total_earned + $3
			WHERE id = $1
		`, investmentID, gainDate, amount); err != nil {
			return err
		}
		credited = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return credited, nil
}

// MatureInvestment releases the principal of an investment whose end date has passed and
// marks it completed. With capital_back the principal returns to main.
func (r *PostgresRepository) MatureInvestment(ctx context.Context, investmentID uuid.UUID, now time.Time) (*domain.Investment, error) {
	var inv *domain.Investment
	err := r.withTx(ctx, func(tx pgx.Tx) error {
		var err error
		inv, err = scanInvestment(tx.QueryRow(ctx, `SELECT `+investmentColumns+` FROM investments WHERE id = $1 FOR UPDATE`, investmentID))
		if err != nil {
			return err
		}
		if inv.Status != domain.InvestmentActive {
			return ErrInvestmentNotActive
		}
		if !inv.Matured(now) {
			return ErrInvestmentNotMatured
		}

		balances, err := lockBalancesTx(ctx, tx, inv.UserID)
		if err != nil {
			return err
		}
		if balances.Investment < inv.Amount {
			return ErrBalanceDrift
		}

		desc := "Principal released from " + inv.PlanName
		if _, err := postTx(ctx, tx, posting{UserID: inv.UserID, Type: domain.TxCapitalReturn, Bucket: domain.BucketInvestment,
			Amount: -inv.Amount, ReferenceID: refID(inv.ID), Description: desc}); err != nil {
			return err
		}
		if inv.CapitalBack {
			if _, err := postTx(ctx, tx, posting{UserID: inv.UserID, Type: domain.TxCapitalReturn, Bucket: domain.BucketMain,
				Amount: inv.Amount, ReferenceID: refID(inv.ID), Description: "Capital returned from " + inv.PlanName}); err != nil {
				return err
			}
		}

		completedAt := now.UTC()
		if _, err := tx.Exec(ctx, `
			UPDATE investments SET status = 'completed', completed_at = $2 WHERE id = $1
		`, inv.ID, completedAt); err != nil {
			return err
		}
		inv.Status = domain.InvestmentCompleted
		inv.CompletedAt = &completedAt

		who, err := userContactTx(ctx, tx, inv.UserID)
		if err != nil {
			return err
		}
		body := fmt.Sprintf("Your %s investment of %s has completed and earned %s.", inv.PlanName,
			domain.FormatCents(inv.Amount), domain.FormatCents(inv.TotalEarned))
		if inv.CapitalBack {
			body += " Your capital has been returned to your main balance."
		}
		dedupe := "investment.matured:" + inv.ID.String()
		if err := insertNotificationTx(ctx, tx, inv.UserID, domain.CategoryInvestment, "Investment completed", body, &dedupe); err != nil {
			return err
		}
		return enqueueEventTx(ctx, tx, r.exchange, domain.EventInvestmentMatured, domain.LedgerEvent{
			UserID:      inv.UserID.String(),
			Email:       who.Email,
			Username:    who.Username,
			ReferenceID: inv.ID.String(),
			Amount:      inv.Amount,
			PlanName:    inv.PlanName,
			TotalEarned: inv.TotalEarned,
			CapitalBack: inv.CapitalBack,
		})
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}
