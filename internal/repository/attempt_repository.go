package repository

import (
	"context"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quizdash/quizdash/internal/model"
)

// AttemptRepository archives finished quiz attempts in PostgreSQL.
type AttemptRepository struct {
	pool *pgxpool.Pool
}

// NewAttemptRepository creates a new AttemptRepository.
func NewAttemptRepository(pool *pgxpool.Pool) *AttemptRepository {
	return &AttemptRepository{pool: pool}
}

// Insert archives a single attempt. Re-archiving the same session is a no-op.
func (r *AttemptRepository) Insert(ctx context.Context, a *model.Attempt) error {
	sid, err := uuid.Parse(a.SessionID)
	if err != nil {
		return fmt.Errorf("parse session id: %w", err)
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO quiz_attempts (session_id, score, total, skipped, answers, started_at, finished_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (session_id) DO NOTHING`,
		sid, a.Score, a.Total, a.Skipped, a.Answers, a.StartedAt, a.FinishedAt,
	)
	return err
}

// InsertBatch archives many attempts in one statement.
// Answers are stored per attempt as a JSON array since UNNEST cannot carry a
// ragged text[][] through a single parameter.
func (r *AttemptRepository) InsertBatch(ctx context.Context, batch []*model.Attempt) error {
	if len(batch) == 0 {
		return nil
	}

	n := len(batch)
	sessionIDs := make([]uuid.UUID, 0, n)
	scores := make([]int, 0, n)
	totals := make([]int, 0, n)
	skipped := make([]int, 0, n)
	answers := make([]string, 0, n)
	startedAts := make([]time.Time, 0, n)
	finishedAts := make([]time.Time, 0, n)

	for _, a := range batch {
		sid, err := uuid.Parse(a.SessionID)
		if err != nil {
			return fmt.Errorf("parse session id %q: %w", a.SessionID, err)
		}
		raw, err := encodeAnswers(a.Answers)
		if err != nil {
			return err
		}
		sessionIDs = append(sessionIDs, sid)
		scores = append(scores, a.Score)
		totals = append(totals, a.Total)
		skipped = append(skipped, a.Skipped)
		answers = append(answers, raw)
		startedAts = append(startedAts, a.StartedAt)
		finishedAts = append(finishedAts, a.FinishedAt)
	}

	query := `
		INSERT INTO quiz_attempts (session_id, score, total, skipped, answers, started_at, finished_at)
		SELECT
			u.session_id,
			u.score,
			u.total,
			u.skipped,
			ARRAY(SELECT jsonb_array_elements_text(u.answers::jsonb)),
			u.started_at,
			u.finished_at
		FROM UNNEST(
			$1::uuid[],
			$2::int[],
			$3::int[],
			$4::int[],
			$5::text[],
			$6::timestamptz[],
			$7::timestamptz[]
		) AS u (session_id, score, total, skipped, answers, started_at, finished_at)
		ON CONFLICT (session_id) DO NOTHING
	`

	_, err := r.pool.Exec(ctx, query, sessionIDs, scores, totals, skipped, answers, startedAts, finishedAts)
	return err
}

func encodeAnswers(answers []string) (string, error) {
	if answers == nil {
		answers = []string{}
	}
	raw, err := json.Marshal(answers)
	if err != nil {
		return "", fmt.Errorf("encode answers: %w", err)
	}
	return string(raw), nil
}
