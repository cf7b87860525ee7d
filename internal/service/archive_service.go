package service

import (
	"context"
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/quizdash/quizdash/internal/config"
	"github.com/quizdash/quizdash/internal/model"
	"github.com/quizdash/quizdash/internal/repository"
)

// QueueArchiver pushes finished attempts onto a Redis list for the archive worker.
type QueueArchiver struct {
	rdb *redis.Client
}

// NewQueueArchiver creates a new QueueArchiver.
func NewQueueArchiver(rdb *redis.Client) *QueueArchiver {
	return &QueueArchiver{rdb: rdb}
}

// Archive enqueues a.
func (a *QueueArchiver) Archive(ctx context.Context, attempt *model.Attempt) error {
	raw, err := json.Marshal(attempt)
	if err != nil {
		return fmt.Errorf("encode attempt: %w", err)
	}
	return a.rdb.RPush(ctx, config.WorkerKey.ArchiveAttemptsQueue, raw).Err()
}

// DirectArchiver writes attempts straight to PostgreSQL.
type DirectArchiver struct {
	repo *repository.AttemptRepository
}

// NewDirectArchiver creates a new DirectArchiver.
func NewDirectArchiver(repo *repository.AttemptRepository) *DirectArchiver {
	return &DirectArchiver{repo: repo}
}

// Archive inserts attempt.
func (a *DirectArchiver) Archive(ctx context.Context, attempt *model.Attempt) error {
	return a.repo.Insert(ctx, attempt)
}
