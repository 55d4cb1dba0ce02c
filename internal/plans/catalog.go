package plans

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/propdesk/propdesk-backend/pkg/enums"
	pkgerrors "github.com/propdesk/propdesk-backend/pkg/errors"
)

// Plan describes a compiled-in subscription tier. Prices are USD.
type Plan struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	MonthlyPriceUSD decimal.Decimal `json:"monthly_price_usd"`
	AnnualPriceUSD  decimal.Decimal `json:"annual_price_usd"`
	SetupFeeUSD     decimal.Decimal `json:"setup_fee_usd"`
	PropertyLimit   int             `json:"property_limit"`
	TenantLimit     int             `json:"tenant_limit"`
}

var catalog = []Plan{
	{
		ID:              "starter",
		Name:            "Starter",
		MonthlyPriceUSD: decimal.NewFromInt(12000),
		AnnualPriceUSD:  decimal.NewFromInt(120000),
		SetupFeeUSD:     decimal.Zero,
		PropertyLimit:   10,
		TenantLimit:     25,
	},
	{
		ID:              "pro",
		Name:            "Pro",
		MonthlyPriceUSD: decimal.NewFromInt(34000),
		AnnualPriceUSD:  decimal.NewFromInt(340000),
		SetupFeeUSD:     decimal.Zero,
		PropertyLimit:   50,
		TenantLimit:     200,
	},
	{
		ID:              "business",
		Name:            "Business",
		MonthlyPriceUSD: decimal.NewFromInt(90000),
		AnnualPriceUSD:  decimal.NewFromInt(900000),
		SetupFeeUSD:     decimal.NewFromInt(15000),
		PropertyLimit:   500,
		TenantLimit:     2500,
	},
}

// List returns the full catalog in display order.
func List() []Plan {
	out := make([]Plan, len(catalog))
	copy(out, catalog)
	return out
}

// Find returns the plan with the given ID.
func Find(id string) (*Plan, error) {
	normalized := strings.ToLower(strings.TrimSpace(id))
	for i := range catalog {
		if catalog[i].ID == normalized {
			plan := catalog[i]
			return &plan, nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("plan %q not found", id))
}

// Price returns the amount charged for one billing period of the plan. The
// setup fee is added on every payment creation; renewals therefore include it
// again for plans that carry one.
func Price(plan *Plan, cycle enums.BillingCycle) (decimal.Decimal, error) {
	if plan == nil {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "plan is required")
	}
	switch cycle {
	case enums.BillingCycleMonthly:
		return plan.MonthlyPriceUSD.Add(plan.SetupFeeUSD), nil
	case enums.BillingCycleAnnually:
		return plan.AnnualPriceUSD.Add(plan.SetupFeeUSD), nil
	default:
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid billing cycle %q", cycle))
	}
}
