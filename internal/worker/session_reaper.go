package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/jwalitptl/clinic-checkin/pkg/logger"
)

type Expirer interface {
	ExpireStale(ctx context.Context, now time.Time) (int64, error)
}

// SessionReaper periodically writes the expired status for active check-in
// sessions past their expiry.
type SessionReaper struct {
	expirer  Expirer
	interval time.Duration
	now      func() time.Time
	logger   *logger.Logger
}

func NewSessionReaper(expirer Expirer, interval time.Duration, logger *logger.Logger) *SessionReaper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &SessionReaper{
		expirer:  expirer,
		interval: interval,
		now:      time.Now,
		logger:   logger,
	}
}

func (w *SessionReaper) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := w.Sweep(ctx); err != nil {
				w.logger.WithContext(ctx).Error(err, "Session sweep failed")
			}
		}
	}
}

// Sweep runs one expiry pass and reports how many sessions it expired.
func (w *SessionReaper) Sweep(ctx context.Context) (int64, error) {
	expired, err := w.expirer.ExpireStale(ctx, w.now())
	if err != nil {
		return 0, fmt.Errorf("failed to expire sessions: %w", err)
	}
	w.logger.WithContext(ctx).Debug("Session sweep finished", "expired", expired)
	return expired, nil
}
