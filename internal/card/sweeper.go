package card

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Sweeper runs the expiry sweep on a cron schedule so past-expiry cards move
// to EXPIRED without waiting for user interaction.
type Sweeper struct {
	cron   *cron.Cron
	logger *slog.Logger
}

// sweepTimeout bounds a single sweep so a stuck store cannot pile up
// overlapping runs.
const sweepTimeout = time.Minute

func NewSweeper(svc *Service, schedule string, logger *slog.Logger) (*Sweeper, error) {
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
		defer cancel()

		if _, err := svc.ExpireDue(ctx); err != nil {
			logger.ErrorContext(ctx, "card expiry sweep failed", "error", err)
		}
	})
	if err != nil {
		return nil, err
	}
	return &Sweeper{cron: c, logger: logger}, nil
}

func (s *Sweeper) Start() {
	s.cron.Start()
	s.logger.Info("card expiry sweeper started")
}

// Stop halts scheduling and waits for an in-flight sweep to finish.
func (s *Sweeper) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("card expiry sweeper stopped")
}
