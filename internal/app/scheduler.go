package app

import (
	"context"
	"time"

	"github.com/Giftedmindbenjamin/surbminer/internal/common"
	"github.com/Giftedmindbenjamin/surbminer/internal/interfaces"
)

// StartSweepScheduler launches the background expiry sweep when
// [sweep].enabled is set. It is a no-op if already running.
func (a *App) StartSweepScheduler() {
	if !a.Config.Sweep.Enabled || a.schedulerCancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.schedulerCancel = cancel
	a.schedulerDone = make(chan struct{})

	interval := a.Config.Sweep.GetInterval()
	a.Logger.Info().Dur("interval", interval).Msg("Sweep scheduler: started")
	go func() {
		defer close(a.schedulerDone)
		startSweepScheduler(ctx, a.SweepService, a.Logger, interval, time.Now)
	}()
}

// StopSweepScheduler stops the scheduler and waits for an in-flight sweep.
func (a *App) StopSweepScheduler() {
	if a.schedulerCancel == nil {
		return
	}
	a.schedulerCancel()
	<-a.schedulerDone
	a.schedulerCancel = nil
	a.schedulerDone = nil
}

// startSweepScheduler runs the sweep on a fixed interval until ctx ends.
func startSweepScheduler(ctx context.Context, svc interfaces.SweepService, logger *common.Logger, interval time.Duration, now func() time.Time) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("Sweep scheduler: stopped")
			return
		case <-ticker.C:
			runSweep(ctx, svc, logger, now())
		}
	}
}

func runSweep(ctx context.Context, svc interfaces.SweepService, logger *common.Logger, now time.Time) {
	result, err := svc.Run(ctx, now)
	if err != nil {
		logger.Warn().Err(err).Msg("Sweep scheduler: run aborted")
		return
	}
	if len(result.Errors) > 0 {
		logger.Warn().Strs("errors", result.Errors).Msg("Sweep scheduler: run finished with errors")
	}
}
