// Package account handles registration, dashboard summaries and the
// profit tracker sanity pass.
package account

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Giftedmindbenjamin/surbminer/internal/common"
	"github.com/Giftedmindbenjamin/surbminer/internal/interfaces"
	"github.com/Giftedmindbenjamin/surbminer/internal/ledger"
	"github.com/Giftedmindbenjamin/surbminer/internal/models"
	"github.com/Giftedmindbenjamin/surbminer/internal/services/posting"
)

// RecentTransactionLimit is how many ledger entries a summary carries.
const RecentTransactionLimit = 10

// referral codes are random; a clash is retried this many times
const maxReferralAttempts = 3

// Compile-time interface check
var _ interfaces.AccountService = (*Service)(nil)

// Service implements AccountService
type Service struct {
	storage interfaces.StorageManager
	logger  *common.Logger
	now     func() time.Time // injectable clock for testing
}

// NewService creates a new account service
func NewService(storage interfaces.StorageManager, logger *common.Logger) *Service {
	return &Service{
		storage: storage,
		logger:  logger,
		now:     time.Now,
	}
}

// Register creates an account with zero balances and a fresh referral code.
// A referral code in the request must belong to an existing account.
func (s *Service) Register(ctx context.Context, req models.RegisterRequest) (*models.Account, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" {
		return nil, &models.ValidationError{Field: "username", Message: "username is required"}
	}
	email := strings.TrimSpace(req.Email)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, &models.ValidationError{Field: "email", Message: "a valid email address is required"}
	}

	now := s.now()
	acc := &models.Account{
		ID:               models.NewID("acc"),
		Username:         username,
		Email:            email,
		FullName:         strings.TrimSpace(req.FullName),
		ActiveBalance:    decimal.Zero,
		AccountBalance:   decimal.Zero,
		TotalEarnings:    decimal.Zero,
		ReferralEarnings: decimal.Zero,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if code := strings.ToUpper(strings.TrimSpace(req.ReferralCode)); code != "" {
		referrer, err := s.storage.LedgerStore().FindAccountByReferralCode(ctx, code)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				return nil, &models.ValidationError{Field: "referral_code", Message: "unknown referral code"}
			}
			return nil, fmt.Errorf("failed to resolve referral code: %w", err)
		}
		acc.ReferredBy = referrer.ID
	}

	var err error
	for attempt := 0; attempt < maxReferralAttempts; attempt++ {
		acc.ReferralCode = models.NewReferralCode()
		err = s.storage.LedgerStore().CreateAccount(ctx, acc)
		var verr *models.ValidationError
		if err == nil || !errors.As(err, &verr) || verr.Field != "referral_code" {
			break
		}
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("account_id", acc.ID).Str("username", acc.Username).Str("referred_by", acc.ReferredBy).Msg("Account registered")
	return acc, nil
}

func (s *Service) Get(ctx context.Context, id string) (*models.Account, error) {
	return s.storage.LedgerStore().GetAccount(ctx, id)
}

// Summary realizes the account's profit up to now and returns the
// dashboard totals computed from the committed state.
func (s *Service) Summary(ctx context.Context, id string, now time.Time) (*models.AccountSummary, error) {
	summary := &models.AccountSummary{
		TotalDeposits:      decimal.Zero,
		TotalWithdrawals:   decimal.Zero,
		PendingWithdrawals: decimal.Zero,
		TotalInvested:      decimal.Zero,
		AvailableProfit:    decimal.Zero,
		DailyProfitTotal:   decimal.Zero,
		RealizedNow:        decimal.Zero,
		GeneratedAt:        now,
	}

	err := s.storage.LedgerStore().Update(ctx, id, func(tx interfaces.LedgerTx) error {
		investments, err := tx.Investments()
		if err != nil {
			return err
		}
		book, err := posting.Begin(tx)
		if err != nil {
			return err
		}

		for _, inv := range investments {
			if inv.IsActive() {
				res, err := ledger.Accrue(book, inv, now)
				if err != nil {
					return fmt.Errorf("failed to accrue investment %s: %w", inv.ID, err)
				}
				if res.Delta.IsPositive() {
					summary.RealizedNow = summary.RealizedNow.Add(res.Delta)
					if err := tx.PutInvestment(inv); err != nil {
						return err
					}
				}
			}

			switch inv.Status {
			case models.InvestmentActive:
				summary.ActiveInvestments++
				summary.TotalInvested = summary.TotalInvested.Add(inv.Amount)
				summary.DailyProfitTotal = summary.DailyProfitTotal.Add(inv.DailyProfit)
				summary.AvailableProfit = summary.AvailableProfit.Add(ledger.Available(inv, now))
			case models.InvestmentCompleted:
				summary.CompletedInvestments++
			}
		}

		if len(book.Entries) > 0 {
			if err := posting.Post(tx, book); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	summary.Account, err = s.storage.LedgerStore().GetAccount(ctx, id)
	if err != nil {
		return nil, err
	}

	deposits, err := s.storage.LedgerStore().ListDeposits(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list deposits: %w", err)
	}
	for _, dep := range deposits {
		if dep.Status == models.RequestApproved {
			summary.TotalDeposits = summary.TotalDeposits.Add(dep.Amount)
		}
	}

	withdrawals, err := s.storage.LedgerStore().ListWithdrawals(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list withdrawals: %w", err)
	}
	for _, w := range withdrawals {
		switch w.Status {
		case models.RequestApproved:
			summary.TotalWithdrawals = summary.TotalWithdrawals.Add(w.Amount)
		case models.RequestPending:
			summary.PendingWithdrawals = summary.PendingWithdrawals.Add(w.Amount)
		}
	}

	referrals, err := s.storage.LedgerStore().ListReferrals(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list referrals: %w", err)
	}
	summary.TotalReferrals = len(referrals)

	summary.RecentTransactions, err = s.storage.LedgerStore().ListTransactions(ctx, id, RecentTransactionLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return summary, nil
}

// Referrals returns the account's referral code and the accounts that
// registered with it. The link is left for the caller to build.
func (s *Service) Referrals(ctx context.Context, id string) (*models.ReferralSummary, error) {
	acc, err := s.storage.LedgerStore().GetAccount(ctx, id)
	if err != nil {
		return nil, err
	}
	referred, err := s.storage.LedgerStore().ListReferrals(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list referrals: %w", err)
	}

	out := &models.ReferralSummary{
		AccountID:        acc.ID,
		ReferralCode:     acc.ReferralCode,
		ReferralEarnings: acc.ReferralEarnings,
		TotalReferrals:   len(referred),
		Referrals:        make([]models.Referral, 0, len(referred)),
	}
	for _, r := range referred {
		out.Referrals = append(out.Referrals, models.Referral{
			AccountID: r.ID,
			Username:  r.Username,
			JoinedAt:  r.CreatedAt,
		})
	}
	return out, nil
}

// Reconcile aligns the account's profit tracker with TotalEarnings and
// reports any drift between realized profit and the earnings counter.
// Balances are never changed.
func (s *Service) Reconcile(ctx context.Context, id string) (*ledger.ReconcileReport, error) {
	var report ledger.ReconcileReport
	err := s.storage.LedgerStore().Update(ctx, id, func(tx interfaces.LedgerTx) error {
		investments, err := tx.Investments()
		if err != nil {
			return err
		}
		tracker, err := tx.Tracker()
		if err != nil {
			return err
		}
		report = ledger.Reconcile(tx.Account(), tracker, investments)
		if report.TrackerUpdated {
			return tx.PutTracker(tracker)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !report.InSync() {
		s.logger.Warn().
			Str("account_id", id).
			Str("realized", report.RealizedProfit.StringFixed(2)).
			Str("total_earnings", report.TotalEarnings.StringFixed(2)).
			Str("drift", report.Drift.StringFixed(2)).
			Msg("Earnings drift detected")
	}
	return &report, nil
}

// ReconcileAll reconciles every account. Per-account failures are joined
// into the returned error; reports for the rest are still returned.
func (s *Service) ReconcileAll(ctx context.Context) ([]ledger.ReconcileReport, error) {
	ids, err := s.storage.LedgerStore().ListAccountIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}

	reports := make([]ledger.ReconcileReport, 0, len(ids))
	var errs []error
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		report, err := s.Reconcile(ctx, id)
		if err != nil {
			errs = append(errs, fmt.Errorf("account %s: %w", id, err))
			continue
		}
		reports = append(reports, *report)
	}
	return reports, errors.Join(errs...)
}
