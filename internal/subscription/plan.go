// AngelaMos | 2026
// plan.go

package subscription

import (
	"fmt"
	"strings"
	"time"

	"github.com/carterperez-dev/inkpost/internal/config"
	"github.com/carterperez-dev/inkpost/internal/core"
	"github.com/carterperez-dev/inkpost/internal/user"
)

func ParsePlan(s string) (user.Plan, error) {
	plan := user.Plan(strings.ToUpper(strings.TrimSpace(s)))
	if !plan.Valid() {
		return "", fmt.Errorf("parse plan %q: %w", s, core.ErrInvalidInput)
	}
	return plan, nil
}

// ExpiresAt is calendar arithmetic: a monthly plan granted on Jan 31
// normalizes past the end of February the way time.AddDate does.
func ExpiresAt(plan user.Plan, from time.Time) time.Time {
	switch plan {
	case user.PlanWeekly:
		return from.AddDate(0, 0, 7)
	case user.PlanMonthly:
		return from.AddDate(0, 1, 0)
	case user.PlanYearly:
		return from.AddDate(1, 0, 0)
	}
	return from
}

type Pricing struct {
	Currency string
	prices   map[user.Plan]int64
}

func NewPricing(cfg config.SubscriptionConfig) Pricing {
	return Pricing{
		Currency: cfg.Currency,
		prices: map[user.Plan]int64{
			user.PlanWeekly:  cfg.WeeklyPrice,
			user.PlanMonthly: cfg.MonthlyPrice,
			user.PlanYearly:  cfg.YearlyPrice,
		},
	}
}

func (p Pricing) Price(plan user.Plan) int64 {
	return p.prices[plan]
}
