// Package investment opens positions and realizes their profit
package investment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Giftedmindbenjamin/surbminer/internal/common"
	"github.com/Giftedmindbenjamin/surbminer/internal/interfaces"
	"github.com/Giftedmindbenjamin/surbminer/internal/ledger"
	"github.com/Giftedmindbenjamin/surbminer/internal/models"
	"github.com/Giftedmindbenjamin/surbminer/internal/services/posting"
)

// Compile-time interface check
var _ interfaces.InvestmentService = (*Service)(nil)

// Service implements InvestmentService. Every balance change runs inside
// LedgerStore.Update so it holds the account for its whole duration.
type Service struct {
	storage interfaces.StorageManager
	plans   interfaces.PlanService
	logger  *common.Logger
	now     func() time.Time // injectable clock for testing
}

// NewService creates a new investment service
func NewService(storage interfaces.StorageManager, plans interfaces.PlanService, logger *common.Logger) *Service {
	return &Service{
		storage: storage,
		plans:   plans,
		logger:  logger,
		now:     time.Now,
	}
}

// Open commits amount from the account's active balance to a plan.
func (s *Service) Open(ctx context.Context, accountID, planID string, amount decimal.Decimal) (*models.Investment, error) {
	plan, err := s.plans.Find(ctx, planID)
	if err != nil {
		return nil, err
	}

	var opened *models.Investment
	err = s.storage.LedgerStore().Update(ctx, accountID, func(tx interfaces.LedgerTx) error {
		book, err := posting.Begin(tx)
		if err != nil {
			return err
		}
		inv, err := ledger.Open(book, plan, amount, s.now())
		if err != nil {
			return err
		}
		if err := tx.PutInvestment(inv); err != nil {
			return err
		}
		if err := posting.Post(tx, book); err != nil {
			return err
		}
		opened = inv
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("account_id", accountID).
		Str("investment_id", opened.ID).
		Str("plan", plan.Name).
		Str("amount", opened.Amount.StringFixed(models.MoneyPlaces)).
		Msg("Investment opened")
	return opened, nil
}

// withInvestment resolves the owning account of an investment and runs fn
// inside that account's transaction with a fresh copy of the position.
func (s *Service) withInvestment(ctx context.Context, id string, fn func(tx interfaces.LedgerTx, book *ledger.Book, inv *models.Investment) error) error {
	stored, err := s.storage.LedgerStore().GetInvestment(ctx, id)
	if err != nil {
		return err
	}
	return s.storage.LedgerStore().Update(ctx, stored.AccountID, func(tx interfaces.LedgerTx) error {
		inv, err := tx.Investment(id)
		if err != nil {
			return err
		}
		book, err := posting.Begin(tx)
		if err != nil {
			return err
		}
		if err := fn(tx, book, inv); err != nil {
			return err
		}
		if err := tx.PutInvestment(inv); err != nil {
			return err
		}
		return posting.Post(tx, book)
	})
}

// Get returns the investment after realizing any profit earned so far.
func (s *Service) Get(ctx context.Context, id string) (*models.Investment, error) {
	stored, err := s.storage.LedgerStore().GetInvestment(ctx, id)
	if err != nil {
		return nil, err
	}
	if !stored.IsActive() {
		return stored, nil
	}

	var result *models.Investment
	err = s.withInvestment(ctx, id, func(_ interfaces.LedgerTx, book *ledger.Book, inv *models.Investment) error {
		if _, err := ledger.Accrue(book, inv, s.now()); err != nil {
			return err
		}
		result = inv
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// List returns the account's investments, newest first, accruing the
// active ones in the same transaction.
func (s *Service) List(ctx context.Context, accountID string) ([]*models.Investment, error) {
	var list []*models.Investment
	err := s.storage.LedgerStore().Update(ctx, accountID, func(tx interfaces.LedgerTx) error {
		all, err := tx.Investments()
		if err != nil {
			return err
		}
		if _, err := s.accrueAll(tx, all); err != nil {
			return err
		}
		list = all
		return nil
	})
	if err != nil {
		return nil, err
	}
	return list, nil
}

// accrueAll realizes profit for every active position in list and stages
// the positions that changed.
func (s *Service) accrueAll(tx interfaces.LedgerTx, list []*models.Investment) (decimal.Decimal, error) {
	book, err := posting.Begin(tx)
	if err != nil {
		return decimal.Zero, err
	}

	now := s.now()
	total := decimal.Zero
	for _, inv := range list {
		if !inv.IsActive() {
			continue
		}
		res, err := ledger.Accrue(book, inv, now)
		if err != nil {
			return decimal.Zero, fmt.Errorf("failed to accrue investment %s: %w", inv.ID, err)
		}
		if !res.Delta.IsPositive() {
			continue
		}
		total = total.Add(res.Delta)
		if err := tx.PutInvestment(inv); err != nil {
			return decimal.Zero, err
		}
	}

	if len(book.Entries) == 0 {
		return total, nil
	}
	return total, posting.Post(tx, book)
}

// Accrue realizes the profit one position has earned up to now.
func (s *Service) Accrue(ctx context.Context, id string) (ledger.AccrualResult, error) {
	var result ledger.AccrualResult
	err := s.withInvestment(ctx, id, func(_ interfaces.LedgerTx, book *ledger.Book, inv *models.Investment) error {
		res, err := ledger.Accrue(book, inv, s.now())
		if err != nil {
			return err
		}
		result = res
		return nil
	})
	if err != nil {
		return ledger.AccrualResult{Delta: decimal.Zero}, err
	}

	if result.Delta.IsPositive() {
		s.logger.Debug().
			Str("investment_id", id).
			Str("delta", result.Delta.StringFixed(models.MoneyPlaces)).
			Bool("completed", result.Completed).
			Msg("Profit realized")
	}
	return result, nil
}

// AccrueAccount accrues every active position of the account at once.
func (s *Service) AccrueAccount(ctx context.Context, accountID string) (decimal.Decimal, error) {
	total := decimal.Zero
	err := s.storage.LedgerStore().Update(ctx, accountID, func(tx interfaces.LedgerTx) error {
		active, err := tx.ActiveInvestments()
		if err != nil {
			return err
		}
		total, err = s.accrueAll(tx, active)
		return err
	})
	if err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

// Complete force-completes an active position.
func (s *Service) Complete(ctx context.Context, id string) (bool, error) {
	completed := false
	err := s.withInvestment(ctx, id, func(_ interfaces.LedgerTx, book *ledger.Book, inv *models.Investment) error {
		ok, err := ledger.Complete(book, inv, s.now())
		if err != nil {
			return err
		}
		completed = ok
		return nil
	})
	if err != nil {
		return false, err
	}
	if completed {
		s.logger.Info().Str("investment_id", id).Msg("Investment completed")
	}
	return completed, nil
}

// Cancel stops an active position and returns its principal to the active
// balance. Realized profit is kept.
func (s *Service) Cancel(ctx context.Context, id string) error {
	err := s.withInvestment(ctx, id, func(_ interfaces.LedgerTx, book *ledger.Book, inv *models.Investment) error {
		return ledger.Cancel(book, inv, s.now())
	})
	if err != nil {
		return err
	}
	s.logger.Info().Str("investment_id", id).Msg("Investment cancelled")
	return nil
}

// CompleteExpired completes every active position whose end date is before
// now. Each position commits in its own account transaction; one failure
// does not stop the rest.
func (s *Service) CompleteExpired(ctx context.Context, now time.Time) (int, []error) {
	expired, err := s.storage.LedgerStore().ListExpiredInvestments(ctx, now)
	if err != nil {
		return 0, []error{fmt.Errorf("failed to list expired investments: %w", err)}
	}

	completed := 0
	var errs []error
	for _, candidate := range expired {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		done := false
		err := s.storage.LedgerStore().Update(ctx, candidate.AccountID, func(tx interfaces.LedgerTx) error {
			inv, err := tx.Investment(candidate.ID)
			if err != nil {
				return err
			}
			// another caller may have finished it since the listing
			if !inv.IsExpired(now) {
				return nil
			}
			book, err := posting.Begin(tx)
			if err != nil {
				return err
			}
			ok, err := ledger.Complete(book, inv, now)
			if err != nil || !ok {
				return err
			}
			if err := tx.PutInvestment(inv); err != nil {
				return err
			}
			done = true
			return posting.Post(tx, book)
		})
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				s.logger.Warn().Err(err).Str("investment_id", candidate.ID).Msg("Failed to complete expired investment")
			}
			errs = append(errs, fmt.Errorf("investment %s: %w", candidate.ID, err))
			continue
		}
		if done {
			completed++
		}
	}

	if completed > 0 {
		s.logger.Info().Int("completed", completed).Int("failed", len(errs)).Msg("Expired investments completed")
	}
	return completed, errs
}
