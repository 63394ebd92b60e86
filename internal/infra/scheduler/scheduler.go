package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"ggsel_notification_bot/internal/app" // For ReconcilerService interface
)

// cycleTimeout bounds one reconciliation pass. A cycle is a handful of
// sequential API calls; a minute of headroom is generous.
const cycleTimeout = 1 * time.Minute

// ReconcileScheduler drives the steady-state reconciliation cycle on a
// fixed interval. It holds no reconciliation state of its own; every cycle
// re-derives everything from the ledger.
type ReconcileScheduler struct {
	cronEngine *cron.Cron
	reconciler app.ReconcilerService
	logger     *logrus.Entry
	cronSpec   string
}

func NewReconcileScheduler(
	reconciler app.ReconcilerService,
	logger *logrus.Entry,
	cronSpec string, // e.g. "@every 1m"
) *ReconcileScheduler {
	return &ReconcileScheduler{
		cronEngine: cron.New(cron.WithLocation(time.Local)),
		reconciler: reconciler,
		logger:     logger,
		cronSpec:   cronSpec,
	}
}

func (s *ReconcileScheduler) Start() error {
	s.logger.WithField("cron_spec", s.cronSpec).Info("Starting reconcile scheduler")

	_, err := s.cronEngine.AddFunc(s.cronSpec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), cycleTimeout)
		defer cancel()
		// A failed cycle is never escalated: the next tick retries from
		// durable ledger state.
		if err := s.reconciler.RunCycle(ctx); err != nil {
			s.logger.WithError(err).Error("Reconcile cycle failed")
		}
	})
	if err != nil {
		return err
	}

	s.cronEngine.Start()
	s.logger.Info("Reconcile scheduler started")
	return nil
}

func (s *ReconcileScheduler) Stop() {
	s.logger.Info("Stopping reconcile scheduler...")
	ctx := s.cronEngine.Stop() // Stops scheduling new runs, waits for running jobs.
	<-ctx.Done()               // Wait for graceful shutdown
	s.logger.Info("Reconcile scheduler gracefully stopped")
}
