package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Sweeper drops expired sessions from an in-process store.
type Sweeper interface {
	Sweep() int
}

// SessionSweeper periodically evicts idle quiz sessions. Redis expires its
// keys on its own, so this only runs with the memory store.
type SessionSweeper struct {
	store    Sweeper
	interval time.Duration
	log      zerolog.Logger
}

func NewSessionSweeper(store Sweeper, interval time.Duration, log zerolog.Logger) *SessionSweeper {
	return &SessionSweeper{
		store:    store,
		interval: interval,
		log:      log.With().Str("component", "session_sweeper").Logger(),
	}
}

// Start runs until ctx is cancelled. Call in a goroutine.
func (w *SessionSweeper) Start(ctx context.Context) {
	w.log.Info().Dur("interval", w.interval).Msg("SessionSweeper started")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("SessionSweeper stopped")
			return
		case <-ticker.C:
			if n := w.store.Sweep(); n > 0 {
				w.log.Debug().Int("count", n).Msg("Evicted idle sessions")
			}
		}
	}
}
