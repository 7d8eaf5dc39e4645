// Package workers runs the server's periodic background jobs.
package workers

import (
	"context"
	"time"

	"github.com/thelittlethings/backend/internal/metrics"
	"go.uber.org/zap"
)

// ChallengeExpirer expires challenges whose end date has passed
type ChallengeExpirer interface {
	ExpireDue(ctx context.Context, now time.Time) (int, error)
}

// TokenPurger drops revocations of tokens that have expired anyway
type TokenPurger interface {
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

// ExpiryWorker sweeps overdue challenges and stale token revocations
type ExpiryWorker struct {
	challenges ChallengeExpirer
	tokens     TokenPurger
	interval   time.Duration
	log        *zap.Logger
	now        func() time.Time
}

// NewExpiryWorker builds the worker. tokens may be nil.
func NewExpiryWorker(challenges ChallengeExpirer, tokens TokenPurger, interval time.Duration, log *zap.Logger) *ExpiryWorker {
	if log == nil {
		log = zap.NewNop()
	}
	return &ExpiryWorker{challenges: challenges, tokens: tokens, interval: interval, log: log, now: time.Now}
}

// Run sweeps once immediately and then on every tick until ctx is done
func (w *ExpiryWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.RunOnce(ctx)
	for {
		select {
		case <-ticker.C:
			w.RunOnce(ctx)
		case <-ctx.Done():
			w.log.Info("expiry worker stopped")
			return
		}
	}
}

// RunOnce performs a single sweep
func (w *ExpiryWorker) RunOnce(ctx context.Context) {
	now := w.now()

	expired, err := w.challenges.ExpireDue(ctx, now)
	if err != nil {
		w.log.Error("expire challenges", zap.Int("expired", expired), zap.Error(err))
	} else if expired > 0 {
		w.log.Info("expired challenges", zap.Int("count", expired))
	}

	if w.tokens != nil {
		if purged, err := w.tokens.PurgeExpired(ctx, now); err != nil {
			w.log.Error("purge revoked tokens", zap.Error(err))
		} else if purged > 0 {
			w.log.Debug("purged revoked tokens", zap.Int64("count", purged))
		}
	}
	metrics.ExpirySweeps.Inc()
}
