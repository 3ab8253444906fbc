package ledger

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Giftedmindbenjamin/surbminer/internal/models"
)

var (
	hundred  = decimal.NewFromInt(100)
	dayNanos = decimal.NewFromInt(int64(models.Day))
)

// AccrualResult describes what a single Accrue call realized.
type AccrualResult struct {
	Delta     decimal.Decimal `json:"delta"`
	Completed bool            `json:"completed"`
}

// Open commits amount from the account's active balance to plan. The
// balance check and the debit happen together; on any error the account is
// unchanged and no investment is returned.
func Open(b *Book, plan *models.Plan, amount decimal.Decimal, now time.Time) (*models.Investment, error) {
	if !plan.IsActive {
		return nil, models.NewNotFound("plan", plan.ID)
	}
	if err := plan.CheckAmount(amount); err != nil {
		return nil, err
	}
	if err := b.Account.DebitActive(amount); err != nil {
		return nil, err
	}

	daily := models.RoundMoney(amount.Mul(plan.DailyPercentage).Div(hundred))
	inv := &models.Investment{
		ID:              models.NewID("inv"),
		AccountID:       b.Account.ID,
		PlanID:          plan.ID,
		PlanName:        plan.Name,
		Amount:          amount,
		DailyPercentage: plan.DailyPercentage,
		DurationDays:    plan.DurationDays,
		DailyProfit:     daily,
		TotalProfit:     daily.Mul(decimal.NewFromInt(int64(plan.DurationDays))),
		ProfitPaid:      decimal.Zero,
		Status:          models.InvestmentActive,
		StartDate:       now,
		EndDate:         now.Add(time.Duration(plan.DurationDays) * models.Day),
		LastProfitDate:  now,
	}

	b.Tracker.RecordInvestment(now)
	b.record(models.TxInvestment, amount,
		fmt.Sprintf("Investment in %s plan", plan.Name), inv.ID, now)

	return inv, nil
}

// ElapsedDays is the fractional number of days since the investment started,
// clamped to [0, DurationDays].
func ElapsedDays(inv *models.Investment, now time.Time) decimal.Decimal {
	elapsed := now.Sub(inv.StartDate)
	if elapsed <= 0 {
		return decimal.Zero
	}
	days := decimal.NewFromInt(int64(elapsed)).Div(dayNanos)
	limit := decimal.NewFromInt(int64(inv.DurationDays))
	if days.GreaterThan(limit) {
		return limit
	}
	return days
}

// EarnedAt is the profit an investment has earned by now, accruing
// continuously and never exceeding TotalProfit. Sub-cent amounts are not
// earned until they reach a whole cent. Positions that are no longer active
// report what was actually paid.
func EarnedAt(inv *models.Investment, now time.Time) decimal.Decimal {
	if !inv.IsActive() {
		return inv.ProfitPaid
	}
	earned := models.TruncateMoney(inv.DailyProfit.Mul(ElapsedDays(inv, now)))
	if earned.GreaterThan(inv.TotalProfit) {
		return inv.TotalProfit
	}
	return earned
}

// Available is earned-but-unrealized profit at now.
func Available(inv *models.Investment, now time.Time) decimal.Decimal {
	avail := EarnedAt(inv, now).Sub(inv.ProfitPaid)
	if avail.IsNegative() {
		return decimal.Zero
	}
	return avail
}

// Accrue realizes all profit earned up to now into the account balance.
// Calling it again at the same instant realizes nothing. When the position
// becomes fully paid it is completed in the same call.
func Accrue(b *Book, inv *models.Investment, now time.Time) (AccrualResult, error) {
	result := AccrualResult{Delta: decimal.Zero}
	if !inv.IsActive() {
		return result, nil
	}

	earned := EarnedAt(inv, now)
	delta := earned.Sub(inv.ProfitPaid)
	if !delta.IsPositive() {
		return result, nil
	}

	if err := b.realizeProfit(delta, fmt.Sprintf("Profit update - %s", inv.PlanName), inv.ID, now); err != nil {
		return result, err
	}
	inv.ProfitPaid = earned
	inv.LastProfitDate = now
	result.Delta = delta

	if inv.ProfitPaid.GreaterThanOrEqual(inv.TotalProfit) {
		completed, err := Complete(b, inv, now)
		if err != nil {
			return result, err
		}
		result.Completed = completed
	}

	return result, nil
}

// Complete finalizes an active investment: any unpaid profit is realized and
// the principal is returned to the withdrawable balance. It returns false
// without changes when the investment is not active.
//
// The principal left ActiveBalance when the investment was opened, so it is
// not debited from ActiveBalance again here.
func Complete(b *Book, inv *models.Investment, now time.Time) (bool, error) {
	next, ok := InvestmentTransition(inv.Status, EventComplete)
	if !ok {
		return false, nil
	}

	if remaining := inv.RemainingProfit(); remaining.IsPositive() {
		if err := b.realizeProfit(remaining, fmt.Sprintf("Final profit - %s", inv.PlanName), inv.ID, now); err != nil {
			return false, err
		}
	}
	inv.ProfitPaid = inv.TotalProfit

	if err := b.Account.CreditAccount(inv.Amount); err != nil {
		return false, err
	}
	b.record(models.TxCapitalReturn, inv.Amount,
		fmt.Sprintf("Capital returned - %s", inv.PlanName), inv.ID, now)

	inv.CapitalReturned = true
	inv.Status = next
	inv.LastProfitDate = now
	inv.CompletedAt = &now
	return true, nil
}

// Cancel stops an active investment. Profit already realized stays with the
// account; the principal goes back to the active balance where it came from,
// and no further profit is paid.
func Cancel(b *Book, inv *models.Investment, now time.Time) error {
	next, ok := InvestmentTransition(inv.Status, EventCancel)
	if !ok {
		return &models.InvalidStateError{Entity: "investment", ID: inv.ID, Status: string(inv.Status), Operation: "cancel"}
	}
	if err := b.Account.CreditActive(inv.Amount); err != nil {
		return err
	}

	tx := b.record(models.TxInvestment, inv.Amount,
		fmt.Sprintf("Investment cancelled - %s", inv.PlanName), inv.ID, now)
	tx.Status = models.TxCancelled

	inv.Status = next
	inv.CancelledAt = &now
	return nil
}
