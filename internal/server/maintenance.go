package server

import (
	"context"
	"time"

	"github.com/me/schedlab/internal/metrics"
)

// DefaultSweepInterval is how often idle forms and old runs are cleaned up.
const DefaultSweepInterval = time.Minute

// StartMaintenance sweeps expired sessions, idle API forms and, when a
// retention is configured, old runs until ctx is cancelled.
func (s *Server) StartMaintenance(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.sweep(ctx)
			}
		}
	}()
}

func (s *Server) sweep(ctx context.Context) {
	s.ui.SweepSessions()
	if n := s.forms.Sweep(s.config.SessionTTL); n > 0 {
		s.logger.Info("idle forms removed", "count", n)
	}

	if s.runs == nil || s.config.RunRetention <= 0 {
		return
	}
	cutoff := time.Now().Add(-s.config.RunRetention)
	n, err := s.runs.DeleteRunsBefore(ctx, cutoff)
	if err != nil {
		s.logger.Error("prune runs failed", "error", err)
		return
	}
	if n > 0 {
		metrics.RunsPruned.Add(float64(n))
		s.logger.Info("old runs pruned", "count", n, "before", cutoff.UTC().Format(time.RFC3339))
	}
}
