package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/Giftedmindbenjamin/surbminer/internal/models"
)

// ReconcileReport compares realized profit on an account's investments with
// its TotalEarnings counter.
type ReconcileReport struct {
	AccountID      string          `json:"account_id"`
	RealizedProfit decimal.Decimal `json:"realized_profit"`
	TotalEarnings  decimal.Decimal `json:"total_earnings"`
	Drift          decimal.Decimal `json:"drift"`
	TrackerUpdated bool            `json:"tracker_updated"`
}

// InSync reports whether realized profit matches the earnings counter.
func (r ReconcileReport) InSync() bool {
	return r.Drift.IsZero()
}

// Reconcile is a sanity pass. It never changes balances; it only aligns the
// tracker's profit total with Account.TotalEarnings and reports drift.
func Reconcile(account *models.Account, tracker *models.ProfitTracker, investments []*models.Investment) ReconcileReport {
	realized := decimal.Zero
	for _, inv := range investments {
		realized = realized.Add(inv.ProfitPaid)
	}

	report := ReconcileReport{
		AccountID:      account.ID,
		RealizedProfit: realized,
		TotalEarnings:  account.TotalEarnings,
		Drift:          account.TotalEarnings.Sub(realized),
	}

	if tracker != nil && !tracker.TotalProfitEarned.Equal(account.TotalEarnings) {
		tracker.TotalProfitEarned = account.TotalEarnings
		report.TrackerUpdated = true
	}
	return report
}
