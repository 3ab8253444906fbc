// Package sweep finalizes expired investments and reconciles profit
// trackers in one pass.
package sweep

import (
	"context"
	"fmt"
	"time"

	"github.com/Giftedmindbenjamin/surbminer/internal/common"
	"github.com/Giftedmindbenjamin/surbminer/internal/interfaces"
	"github.com/Giftedmindbenjamin/surbminer/internal/models"
	"github.com/Giftedmindbenjamin/surbminer/internal/services/notify"
)

// Compile-time interface check
var _ interfaces.SweepService = (*Service)(nil)

// Service implements SweepService
type Service struct {
	investments interfaces.InvestmentService
	accounts    interfaces.AccountService
	notifier    *notify.Dispatcher
	logger      *common.Logger
}

// NewService creates a sweep service. notifier may be nil.
func NewService(investments interfaces.InvestmentService, accounts interfaces.AccountService, notifier *notify.Dispatcher, logger *common.Logger) *Service {
	return &Service{
		investments: investments,
		accounts:    accounts,
		notifier:    notifier,
		logger:      logger,
	}
}

// Run completes every position that expired before now, then reconciles
// all trackers. Individual failures are reported in the result; only a
// cancelled context aborts the run.
func (s *Service) Run(ctx context.Context, now time.Time) (*models.SweepResult, error) {
	started := time.Now()
	result := &models.SweepResult{StartedAt: now}

	completed, errs := s.investments.CompleteExpired(ctx, now)
	result.Completed = completed
	for _, err := range errs {
		result.Errors = append(result.Errors, err.Error())
	}
	if err := ctx.Err(); err != nil {
		return result, err
	}

	reports, err := s.accounts.ReconcileAll(ctx)
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
	}
	for _, r := range reports {
		if r.TrackerUpdated {
			result.TrackersUpdated++
		}
		if !r.InSync() {
			result.Drifted = append(result.Drifted, r.AccountID)
		}
	}
	if err := ctx.Err(); err != nil {
		return result, err
	}

	elapsed := time.Since(started)
	result.Duration = elapsed.String()

	s.logger.Info().
		Int("completed", result.Completed).
		Int("trackers_updated", result.TrackersUpdated).
		Int("drifted", len(result.Drifted)).
		Int("errors", len(result.Errors)).
		Dur("elapsed", elapsed).
		Msg("Sweep finished")

	if result.Completed > 0 || len(result.Errors) > 0 || len(result.Drifted) > 0 {
		s.notifier.Dispatch(ctx, notify.Event{
			Type:       notify.SweepCompleted,
			Message:    summarize(result),
			OccurredAt: now,
		})
	}
	return result, nil
}

func summarize(r *models.SweepResult) string {
	msg := fmt.Sprintf("completed %d investments", r.Completed)
	if len(r.Drifted) > 0 {
		msg += fmt.Sprintf(", %d accounts drifted", len(r.Drifted))
	}
	if len(r.Errors) > 0 {
		msg += fmt.Sprintf(", %d errors", len(r.Errors))
	}
	return msg
}
