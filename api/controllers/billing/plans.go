package billing

import (
	"net/http"

	"github.com/propdesk/propdesk-backend/api/responses"
	"github.com/propdesk/propdesk-backend/internal/plans"
)

type planResponse struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	MonthlyPriceUSD string `json:"monthly_price_usd"`
	AnnualPriceUSD  string `json:"annual_price_usd"`
	SetupFeeUSD     string `json:"setup_fee_usd"`
	PropertyLimit   int    `json:"property_limit"`
	TenantLimit     int    `json:"tenant_limit"`
}

type planListResponse struct {
	Plans []planResponse `json:"plans"`
}

// PlansList serves the compiled-in plan catalog. Public, no auth.
func PlansList() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		catalog := plans.List()
		result := make([]planResponse, 0, len(catalog))
		for i := range catalog {
			result = append(result, planToResponse(&catalog[i]))
		}
		responses.WriteSuccess(w, planListResponse{Plans: result})
	}
}

func planToResponse(plan *plans.Plan) planResponse {
	return planResponse{
		ID:              plan.ID,
		Name:            plan.Name,
		MonthlyPriceUSD: plan.MonthlyPriceUSD.StringFixed(2),
		AnnualPriceUSD:  plan.AnnualPriceUSD.StringFixed(2),
		SetupFeeUSD:     plan.SetupFeeUSD.StringFixed(2),
		PropertyLimit:   plan.PropertyLimit,
		TenantLimit:     plan.TenantLimit,
	}
}
