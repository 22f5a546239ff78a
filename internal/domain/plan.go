package domain

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrPlanNameRequired   = errors.New("plan name is required")
	ErrPlanInvalidMin     = errors.New("plan minimum amount must be positive")
	ErrPlanInvalidMax     = errors.New("plan maximum amount must be zero or at least the minimum")
	ErrPlanInvalidDays    = errors.New("plan duration must be at least one day")
	ErrPlanInvalidROI     = errors.New("plan daily ROI must be greater than 0 and at most 100 percent")
	ErrAmountBelowPlanMin = errors.New("amount is below the plan minimum")
	ErrAmountAbovePlanMax = errors.New("amount is above the plan maximum")
)

// InvestmentPlan is a named tier a user's principal is assigned to.
// DailyROIPercent is credited every day of DurationDays; MaxAmount 0 means uncapped.
type InvestmentPlan struct {
	ID              uuid.UUID       `json:"id"`
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	MinAmount       int64           `json:"min_amount"`
	MaxAmount       int64           `json:"max_amount"`
	DurationDays    int             `json:"duration_days"`
	DailyROIPercent decimal.Decimal `json:"daily_roi_percent"`
	CapitalBack     bool            `json:"capital_back"`
	Active          bool            `json:"active"`
	SortOrder       int             `json:"sort_order"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// TotalROIPercent is the plan's return over its whole duration.
func (p InvestmentPlan) TotalROIPercent() decimal.Decimal {
	return p.DailyROIPercent.Mul(decimal.NewFromInt(int64(p.DurationDays)))
}

// MarshalJSON adds the derived total_roi_percent to the plan's fields.
func (p InvestmentPlan) MarshalJSON() ([]byte, error) {
	type plan InvestmentPlan
	return json.Marshal(struct {
		plan
		TotalROIPercent decimal.Decimal `json:"total_roi_percent"`
	}{plan(p), p.TotalROIPercent()})
}

// Validate checks the plan's configuration invariants.
func (p InvestmentPlan) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrPlanNameRequired
	}
	if p.MinAmount <= 0 {
		return ErrPlanInvalidMin
	}
	if p.MaxAmount != 0 && p.MaxAmount < p.MinAmount {
		return ErrPlanInvalidMax
	}
	if p.DurationDays <= 0 {
		return ErrPlanInvalidDays
	}
	if !p.DailyROIPercent.IsPositive() || p.DailyROIPercent.GreaterThan(hundred) {
		return ErrPlanInvalidROI
	}
	return nil
}

// CheckAmount validates a principal against the plan limits.
func (p InvestmentPlan) CheckAmount(amount int64) error {
	if amount < p.MinAmount {
		return ErrAmountBelowPlanMin
	}
	if p.MaxAmount > 0 && amount > p.MaxAmount {
		return ErrAmountAbovePlanMax
	}
	return nil
}

// PlanInput is the DTO for admin plan create/update requests.
type PlanInput struct {
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	MinAmount       int64           `json:"min_amount"`
	MaxAmount       int64           `json:"max_amount"`
	DurationDays    int             `json:"duration_days"`
	DailyROIPercent decimal.Decimal `json:"daily_roi_percent"`
	CapitalBack     bool            `json:"capital_back"`
	Active          *bool           `json:"active,omitempty"`
	SortOrder       int             `json:"sort_order"`
}
