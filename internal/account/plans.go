package account

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	PlanDaily   = "daily"
	PlanWeekly  = "weekly"
	PlanMonthly = "monthly"
)

// Plan is a purchasable subscription period.
type Plan struct {
	Name   string
	Price  decimal.Decimal
	Period time.Duration
}

// DefaultPlans builds the daily, weekly and monthly plans at the given prices.
func DefaultPlans(daily, weekly, monthly decimal.Decimal) []Plan {
	const day = 24 * time.Hour
	return []Plan{
		{Name: PlanDaily, Price: daily, Period: day},
		{Name: PlanWeekly, Price: weekly, Period: 7 * day},
		{Name: PlanMonthly, Price: monthly, Period: 30 * day},
	}
}
