package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/dhkim0920/coinfolio/internal/session"
)

const defaultPollInterval = 30 * time.Second

// StartPoller launches a background goroutine that refreshes market quotes
// and the portfolio list at a fixed cadence while the session is
// authenticated. It returns immediately.
func StartPoller(ctx context.Context, svc *Service, sessions *session.Manager, interval time.Duration, log *zap.Logger) {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	if log == nil {
		log = zap.NewNop()
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			pollOnce(ctx, svc, sessions, log)
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
}

func pollOnce(ctx context.Context, svc *Service, sessions *session.Manager, log *zap.Logger) {
	snap := sessions.Snapshot()
	if !snap.Authenticated() {
		return
	}
	if err := svc.LoadPrices(ctx); err != nil {
		log.Warn("price poll failed", zap.Error(err))
		return
	}
	if err := svc.LoadPortfolios(ctx); err != nil {
		log.Warn("portfolio poll failed", zap.Error(err))
	}
}
