// Package report computes the admin dashboard aggregates across accounts.
package report

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Giftedmindbenjamin/surbminer/internal/common"
	"github.com/Giftedmindbenjamin/surbminer/internal/interfaces"
	"github.com/Giftedmindbenjamin/surbminer/internal/models"
)

const (
	dateLayout = "2006-01-02"

	// MaxDays bounds the daily activity window.
	MaxDays = 366
)

// Compile-time interface check
var _ interfaces.ReportService = (*Service)(nil)

// Service implements ReportService
type Service struct {
	storage interfaces.StorageManager
	logger  *common.Logger
}

// NewService creates a new report service
func NewService(storage interfaces.StorageManager, logger *common.Logger) *Service {
	return &Service{
		storage: storage,
		logger:  logger,
	}
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Stats totals approved money movement, active positions and the pending
// queues. Sign-ups are counted from the start of now's UTC day.
func (s *Service) Stats(ctx context.Context, now time.Time) (*models.PlatformStats, error) {
	store := s.storage.LedgerStore()
	stats := &models.PlatformStats{
		ApprovedDeposits:    decimal.Zero,
		ApprovedWithdrawals: decimal.Zero,
		ActiveInvested:      decimal.Zero,
		GeneratedAt:         now,
	}

	accounts, err := store.ListAccounts(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	today := startOfDay(now)
	weekAgo := today.AddDate(0, 0, -7)
	stats.TotalUsers = len(accounts)
	for _, a := range accounts {
		if !a.CreatedAt.Before(today) {
			stats.NewUsersToday++
		}
		if !a.CreatedAt.Before(weekAgo) {
			stats.NewUsersWeek++
		}
	}
	stats.RecentUsers = accounts
	if len(stats.RecentUsers) > models.RecentLimit {
		stats.RecentUsers = stats.RecentUsers[:models.RecentLimit]
	}

	deposits, err := store.FindDeposits(ctx, models.RequestFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to list deposits: %w", err)
	}
	for _, d := range deposits {
		switch d.Status {
		case models.RequestApproved:
			stats.ApprovedDeposits = stats.ApprovedDeposits.Add(d.Amount)
		case models.RequestPending:
			stats.PendingDeposits++
		}
	}
	stats.RecentDeposits = deposits
	if len(stats.RecentDeposits) > models.RecentLimit {
		stats.RecentDeposits = stats.RecentDeposits[:models.RecentLimit]
	}

	withdrawals, err := store.FindWithdrawals(ctx, models.RequestFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to list withdrawals: %w", err)
	}
	for _, w := range withdrawals {
		switch w.Status {
		case models.RequestApproved:
			stats.ApprovedWithdrawals = stats.ApprovedWithdrawals.Add(w.Amount)
		case models.RequestPending:
			stats.PendingWithdrawals++
		}
	}
	stats.RecentWithdrawals = withdrawals
	if len(stats.RecentWithdrawals) > models.RecentLimit {
		stats.RecentWithdrawals = stats.RecentWithdrawals[:models.RecentLimit]
	}

	active, err := store.ListInvestmentsByStatus(ctx, models.InvestmentActive)
	if err != nil {
		return nil, fmt.Errorf("failed to list active investments: %w", err)
	}
	stats.ActiveInvestments = len(active)
	for _, inv := range active {
		stats.ActiveInvested = stats.ActiveInvested.Add(inv.Amount)
	}

	s.logger.Debug().
		Int("users", stats.TotalUsers).
		Int("pending_deposits", stats.PendingDeposits).
		Int("pending_withdrawals", stats.PendingWithdrawals).
		Msg("Platform stats computed")
	return stats, nil
}

// Daily buckets approvals by the UTC day they were approved on and sign-ups
// by the day the account was created.
func (s *Service) Daily(ctx context.Context, now time.Time, days int) ([]models.DailyActivity, error) {
	if days <= 0 || days > MaxDays {
		return nil, &models.ValidationError{Field: "days", Message: fmt.Sprintf("days must be between 1 and %d", MaxDays)}
	}

	first := startOfDay(now).AddDate(0, 0, -(days - 1))
	out := make([]models.DailyActivity, days)
	index := make(map[string]int, days)
	for i := range out {
		date := first.AddDate(0, 0, i).Format(dateLayout)
		out[i] = models.DailyActivity{Date: date, Deposits: decimal.Zero, Withdrawals: decimal.Zero}
		index[date] = i
	}
	bucket := func(t time.Time) (int, bool) {
		i, ok := index[t.UTC().Format(dateLayout)]
		return i, ok
	}

	store := s.storage.LedgerStore()
	deposits, err := store.FindDeposits(ctx, models.RequestFilter{Status: models.RequestApproved})
	if err != nil {
		return nil, fmt.Errorf("failed to list deposits: %w", err)
	}
	for _, d := range deposits {
		if d.ApprovedAt == nil {
			continue
		}
		if i, ok := bucket(*d.ApprovedAt); ok {
			out[i].Deposits = out[i].Deposits.Add(d.Amount)
		}
	}

	withdrawals, err := store.FindWithdrawals(ctx, models.RequestFilter{Status: models.RequestApproved})
	if err != nil {
		return nil, fmt.Errorf("failed to list withdrawals: %w", err)
	}
	for _, w := range withdrawals {
		if w.ApprovedAt == nil {
			continue
		}
		if i, ok := bucket(*w.ApprovedAt); ok {
			out[i].Withdrawals = out[i].Withdrawals.Add(w.Amount)
		}
	}

	accounts, err := store.ListAccounts(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	for _, a := range accounts {
		if i, ok := bucket(a.CreatedAt); ok {
			out[i].NewUsers++
		}
	}
	return out, nil
}
