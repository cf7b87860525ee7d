package worker

import (
	"context"
	"time"

	json "github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/quizdash/quizdash/internal/config"
	"github.com/quizdash/quizdash/internal/model"
)

const (
	ArchiveBatchSize    = 50
	ArchiveBatchTimeout = 2 * time.Second
	ArchivePollTimeout  = 1 * time.Second // Must be >= 1s to satisfy Redis
)

// AttemptWriter persists finished attempts.
type AttemptWriter interface {
	Insert(ctx context.Context, a *model.Attempt) error
	InsertBatch(ctx context.Context, batch []*model.Attempt) error
}

// ArchiveWorker drains archive_attempts_queue into PostgreSQL in batches.
type ArchiveWorker struct {
	repo AttemptWriter
	rdb  *redis.Client
	log  zerolog.Logger
}

func NewArchiveWorker(repo AttemptWriter, rdb *redis.Client, log zerolog.Logger) *ArchiveWorker {
	return &ArchiveWorker{
		repo: repo,
		rdb:  rdb,
		log:  log.With().Str("component", "archive_worker").Logger(),
	}
}

// ----------------------------------------------------------------
// Worker loop with batching
// ----------------------------------------------------------------

// Start runs until ctx is cancelled. Call in a goroutine.
func (w *ArchiveWorker) Start(ctx context.Context) {
	w.log.Info().Msg("ArchiveWorker started")

	batch := make([]*model.Attempt, 0, ArchiveBatchSize)
	lastFlush := time.Now()

	for {
		if len(batch) > 0 &&
			(len(batch) >= ArchiveBatchSize || time.Since(lastFlush) >= ArchiveBatchTimeout) {

			w.flushSafe(ctx, batch)
			batch = batch[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.log.Info().Int("pending", len(batch)).Msg("Shutdown requested. Flushing remaining batch...")
			w.flushSafe(context.Background(), batch)
			return

		default:
			item, err := w.rdb.BLPop(ctx, ArchivePollTimeout, config.WorkerKey.ArchiveAttemptsQueue).Result()
			if err != nil {
				if err == redis.Nil {
					continue
				}
				if ctx.Err() != nil {
					continue
				}
				w.log.Error().Err(err).Msg("Redis connection error, sleeping 3s")
				sleepCtx(ctx, 3*time.Second)
				continue
			}

			if len(item) < 2 {
				continue
			}

			attempt, ok := w.decode(item[1])
			if !ok {
				continue
			}
			batch = append(batch, attempt)
		}
	}
}

// decode parses a queued attempt. Malformed payloads cannot be retried and
// are discarded.
func (w *ArchiveWorker) decode(raw string) (*model.Attempt, bool) {
	var a model.Attempt
	if err := json.Unmarshal([]byte(raw), &a); err != nil {
		w.log.Error().Err(err).Str("data", raw).Msg("Discarding malformed JSON")
		return nil, false
	}
	if a.SessionID == "" {
		w.log.Error().Str("data", raw).Msg("Discarding attempt without session id")
		return nil, false
	}
	return &a, true
}

// flushSafe attempts bulk insert, then row-by-row insert, then requeue.
func (w *ArchiveWorker) flushSafe(ctx context.Context, batch []*model.Attempt) {
	if len(batch) == 0 {
		return
	}

	if err := w.repo.InsertBatch(ctx, batch); err != nil {
		w.log.Warn().Err(err).Int("count", len(batch)).Msg("Bulk insert failed, attempting row-by-row recovery")

		for _, a := range batch {
			if err := w.repo.Insert(ctx, a); err != nil {
				w.log.Error().Err(err).Str("session_id", a.SessionID).Msg("Insert failed, requeueing")
				w.requeue(ctx, a)
			}
		}
		return
	}

	w.log.Debug().Int("count", len(batch)).Msg("Archived attempts")
}

func (w *ArchiveWorker) requeue(ctx context.Context, a *model.Attempt) {
	raw, err := json.Marshal(a)
	if err != nil {
		w.log.Error().Err(err).Str("session_id", a.SessionID).Msg("Requeue encode failed, dropping attempt")
		return
	}
	if err := w.rdb.RPush(ctx, config.WorkerKey.ArchiveAttemptsQueue, raw).Err(); err != nil {
		w.log.Error().Err(err).Str("session_id", a.SessionID).Msg("Requeue failed, dropping attempt")
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
