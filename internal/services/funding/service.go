// Package funding runs the deposit and withdrawal approval workflows
package funding

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Giftedmindbenjamin/surbminer/internal/common"
	"github.com/Giftedmindbenjamin/surbminer/internal/interfaces"
	"github.com/Giftedmindbenjamin/surbminer/internal/ledger"
	"github.com/Giftedmindbenjamin/surbminer/internal/models"
	"github.com/Giftedmindbenjamin/surbminer/internal/services/notify"
	"github.com/Giftedmindbenjamin/surbminer/internal/services/posting"
)

// Compile-time interface check
var _ interfaces.FundingService = (*Service)(nil)

// Service implements FundingService
type Service struct {
	storage  interfaces.StorageManager
	wallets  map[string]string
	notifier *notify.Dispatcher
	logger   *common.Logger
	now      func() time.Time // injectable clock for testing
}

// NewService creates a new funding service. wallets maps crypto type to the
// company address shown on deposit requests; notifier may be nil.
func NewService(storage interfaces.StorageManager, wallets map[string]string, notifier *notify.Dispatcher, logger *common.Logger) *Service {
	return &Service{
		storage:  storage,
		wallets:  wallets,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

func normalizeCrypto(cryptoType string) (string, error) {
	t := strings.ToUpper(strings.TrimSpace(cryptoType))
	if !models.ValidCryptoType(t) {
		return "", &models.ValidationError{Field: "crypto_type", Message: "unsupported crypto type " + cryptoType}
	}
	return t, nil
}

// RequestDeposit records a pending deposit. Nothing is credited until an
// admin approves it.
func (s *Service) RequestDeposit(ctx context.Context, accountID string, amount decimal.Decimal, cryptoType, txHash string) (*models.Deposit, error) {
	if err := models.ValidateAmount("amount", amount); err != nil {
		return nil, err
	}
	crypto, err := normalizeCrypto(cryptoType)
	if err != nil {
		return nil, err
	}

	dep := &models.Deposit{
		ID:              models.NewID("dep"),
		AccountID:       accountID,
		Amount:          amount,
		CryptoType:      crypto,
		TransactionHash: strings.TrimSpace(txHash),
		WalletAddress:   s.wallets[crypto],
		Status:          models.RequestPending,
		CreatedAt:       s.now(),
	}
	err = s.storage.LedgerStore().Update(ctx, accountID, func(tx interfaces.LedgerTx) error {
		return tx.PutDeposit(dep)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("account_id", accountID).Str("deposit_id", dep.ID).Str("amount", amount.StringFixed(2)).Msg("Deposit requested")
	s.notifier.Dispatch(ctx, depositEvent(notify.DepositRequested, dep))
	return dep, nil
}

// RequestWithdrawal records a pending withdrawal. The account balance must
// cover it now, but funds are not held; approval checks again.
func (s *Service) RequestWithdrawal(ctx context.Context, accountID string, amount decimal.Decimal, cryptoType, address string) (*models.Withdrawal, error) {
	if err := models.ValidateAmount("amount", amount); err != nil {
		return nil, err
	}
	crypto, err := normalizeCrypto(cryptoType)
	if err != nil {
		return nil, err
	}
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, &models.ValidationError{Field: "crypto_address", Message: "withdrawal address is required"}
	}

	w := &models.Withdrawal{
		ID:            models.NewID("wd"),
		AccountID:     accountID,
		Amount:        amount,
		CryptoType:    crypto,
		CryptoAddress: address,
		Status:        models.RequestPending,
		CreatedAt:     s.now(),
	}
	err = s.storage.LedgerStore().Update(ctx, accountID, func(tx interfaces.LedgerTx) error {
		acc := tx.Account()
		if !acc.CanWithdraw(amount) {
			return &models.InsufficientFundsError{Balance: models.BalanceAccount, Available: acc.AccountBalance, Required: amount}
		}
		return tx.PutWithdrawal(w)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("account_id", accountID).Str("withdrawal_id", w.ID).Str("amount", amount.StringFixed(2)).Msg("Withdrawal requested")
	s.notifier.Dispatch(ctx, withdrawalEvent(notify.WithdrawalRequested, w))
	return w, nil
}

// ApproveDeposit credits a pending deposit to the active balance.
func (s *Service) ApproveDeposit(ctx context.Context, id string) (*models.Deposit, error) {
	stored, err := s.storage.LedgerStore().GetDeposit(ctx, id)
	if err != nil {
		return nil, err
	}

	var approved *models.Deposit
	err = s.storage.LedgerStore().Update(ctx, stored.AccountID, func(tx interfaces.LedgerTx) error {
		dep, err := tx.Deposit(id)
		if err != nil {
			return err
		}
		book, err := posting.Begin(tx)
		if err != nil {
			return err
		}
		if err := ledger.ApproveDeposit(book, dep, s.now()); err != nil {
			return err
		}
		if err := tx.PutDeposit(dep); err != nil {
			return err
		}
		approved = dep
		return posting.Post(tx, book)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("deposit_id", id).Str("account_id", approved.AccountID).Msg("Deposit approved")
	s.notifier.Dispatch(ctx, depositEvent(notify.DepositApproved, approved))
	return approved, nil
}

// CancelDeposit rejects a pending deposit.
func (s *Service) CancelDeposit(ctx context.Context, id string) (*models.Deposit, error) {
	stored, err := s.storage.LedgerStore().GetDeposit(ctx, id)
	if err != nil {
		return nil, err
	}

	var cancelled *models.Deposit
	err = s.storage.LedgerStore().Update(ctx, stored.AccountID, func(tx interfaces.LedgerTx) error {
		dep, err := tx.Deposit(id)
		if err != nil {
			return err
		}
		if err := ledger.CancelDeposit(dep, s.now()); err != nil {
			return err
		}
		cancelled = dep
		return tx.PutDeposit(dep)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("deposit_id", id).Msg("Deposit cancelled")
	s.notifier.Dispatch(ctx, depositEvent(notify.DepositCancelled, cancelled))
	return cancelled, nil
}

// ApproveWithdrawal pays out a pending withdrawal. When the balance no
// longer covers it, the withdrawal stays pending and false is returned.
func (s *Service) ApproveWithdrawal(ctx context.Context, id string) (*models.Withdrawal, bool, error) {
	stored, err := s.storage.LedgerStore().GetWithdrawal(ctx, id)
	if err != nil {
		return nil, false, err
	}

	var result *models.Withdrawal
	approved := false
	err = s.storage.LedgerStore().Update(ctx, stored.AccountID, func(tx interfaces.LedgerTx) error {
		w, err := tx.Withdrawal(id)
		if err != nil {
			return err
		}
		result = w
		book, err := posting.Begin(tx)
		if err != nil {
			return err
		}
		ok, err := ledger.ApproveWithdrawal(book, w, s.now())
		if err != nil || !ok {
			return err
		}
		approved = true
		if err := tx.PutWithdrawal(w); err != nil {
			return err
		}
		return posting.Post(tx, book)
	})
	if err != nil {
		return nil, false, err
	}

	if !approved {
		s.logger.Warn().Str("withdrawal_id", id).Str("amount", result.Amount.StringFixed(2)).Msg("Withdrawal not approved: insufficient account balance")
		s.notifier.Dispatch(ctx, withdrawalEvent(notify.WithdrawalDeferred, result))
		return result, false, nil
	}

	s.logger.Info().Str("withdrawal_id", id).Str("account_id", result.AccountID).Msg("Withdrawal approved")
	s.notifier.Dispatch(ctx, withdrawalEvent(notify.WithdrawalApproved, result))
	return result, true, nil
}

// CancelWithdrawal rejects a pending withdrawal.
func (s *Service) CancelWithdrawal(ctx context.Context, id string) (*models.Withdrawal, error) {
	stored, err := s.storage.LedgerStore().GetWithdrawal(ctx, id)
	if err != nil {
		return nil, err
	}

	var cancelled *models.Withdrawal
	err = s.storage.LedgerStore().Update(ctx, stored.AccountID, func(tx interfaces.LedgerTx) error {
		w, err := tx.Withdrawal(id)
		if err != nil {
			return err
		}
		if err := ledger.CancelWithdrawal(w, s.now()); err != nil {
			return err
		}
		cancelled = w
		return tx.PutWithdrawal(w)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("withdrawal_id", id).Msg("Withdrawal cancelled")
	s.notifier.Dispatch(ctx, withdrawalEvent(notify.WithdrawalCancelled, cancelled))
	return cancelled, nil
}

func (s *Service) ListDeposits(ctx context.Context, accountID string) ([]*models.Deposit, error) {
	return s.storage.LedgerStore().ListDeposits(ctx, accountID)
}

func (s *Service) ListWithdrawals(ctx context.Context, accountID string) ([]*models.Withdrawal, error) {
	return s.storage.LedgerStore().ListWithdrawals(ctx, accountID)
}

func (s *Service) FindDeposits(ctx context.Context, f models.RequestFilter) ([]*models.Deposit, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return s.storage.LedgerStore().FindDeposits(ctx, f)
}

func (s *Service) FindWithdrawals(ctx context.Context, f models.RequestFilter) ([]*models.Withdrawal, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return s.storage.LedgerStore().FindWithdrawals(ctx, f)
}

func depositEvent(typ notify.EventType, dep *models.Deposit) notify.Event {
	return notify.Event{
		Type:        typ,
		AccountID:   dep.AccountID,
		ReferenceID: dep.ID,
		Amount:      dep.Amount,
		CryptoType:  dep.CryptoType,
	}
}

func withdrawalEvent(typ notify.EventType, w *models.Withdrawal) notify.Event {
	return notify.Event{
		Type:        typ,
		AccountID:   w.AccountID,
		ReferenceID: w.ID,
		Amount:      w.Amount,
		CryptoType:  w.CryptoType,
		Message:     w.CryptoAddress,
	}
}
