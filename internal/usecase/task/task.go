package task

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vkmrishad/image-jinn/internal/entity"
	"github.com/vkmrishad/image-jinn/internal/repo"
	"github.com/vkmrishad/image-jinn/pkg/logger"
	"github.com/vkmrishad/image-jinn/pkg/metrics"
)

// TaskUseCase is the deferred task runner: tasks are stored in the outbox with
// their due time and handed to the relay once it has passed.
type TaskUseCase struct {
	outboxRepo repo.TaskOutboxRepo
	transactor repo.Transactor
	metrics    *metrics.Metrics
	now        func() time.Time

	logger logger.Interface
}

func New(
	outboxRepo repo.TaskOutboxRepo,
	transactor repo.Transactor,
	m *metrics.Metrics,
	l logger.Interface,
) *TaskUseCase {
	return &TaskUseCase{
		outboxRepo: outboxRepo,
		transactor: transactor,
		metrics:    m,
		now:        func() time.Time { return time.Now().UTC() },
		logger:     l,
	}
}

func (uc *TaskUseCase) Schedule(ctx context.Context, name string, aggregateID uuid.UUID, args any, delay time.Duration) error {
	payload, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("TaskUseCase - Schedule - json.Marshal: %w", err)
	}

	now := uc.now()
	task := &entity.Task{
		ID:          uuid.New(),
		Name:        name,
		AggregateID: aggregateID,
		Payload:     payload,
		Status:      entity.OutboxPending,
		RunAt:       now.Add(delay),
		CreatedAt:   now,
		RetryCount:  0,
	}

	err = uc.outboxRepo.Create(ctx, task)
	if err != nil {
		return fmt.Errorf("TaskUseCase - Schedule - uc.outboxRepo.Create: %w", err)
	}

	uc.metrics.Task(name, "scheduled")

	return nil
}

// ClaimDueTasks picks pending tasks whose run_at has passed and marks them
// processing in the same transaction.
func (uc *TaskUseCase) ClaimDueTasks(ctx context.Context, maxRetries, limit int) ([]*entity.Task, error) {
	var tasks []*entity.Task

	err := uc.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error

		tasks, err = uc.outboxRepo.GetDueTasks(ctx, uc.now(), maxRetries, limit)
		if err != nil {
			return fmt.Errorf("TaskUseCase - ClaimDueTasks - uc.outboxRepo.GetDueTasks: %w", err)
		}
		if len(tasks) == 0 {
			return nil
		}

		err = uc.outboxRepo.MarkAsProcessingBatch(ctx, ids(tasks))
		if err != nil {
			return fmt.Errorf("TaskUseCase - ClaimDueTasks - uc.outboxRepo.MarkAsProcessingBatch: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("TaskUseCase - ClaimDueTasks - uc.transactor.WithinTransaction: %w", err)
	}

	return tasks, nil
}

func (uc *TaskUseCase) MarkAsProcessedBatch(ctx context.Context, tasks []*entity.Task) error {
	err := uc.outboxRepo.MarkAsProcessedBatch(ctx, ids(tasks))
	if err != nil {
		return fmt.Errorf("TaskUseCase - MarkAsProcessedBatch - uc.outboxRepo.MarkAsProcessedBatch: %w", err)
	}

	for _, t := range tasks {
		uc.metrics.Task(t.Name, "published")
	}

	return nil
}

func (uc *TaskUseCase) IncrementRetryCountBatch(ctx context.Context, tasks []*entity.Task) error {
	err := uc.outboxRepo.IncrementRetryCountBatch(ctx, ids(tasks))
	if err != nil {
		return fmt.Errorf("TaskUseCase - IncrementRetryCountBatch - uc.outboxRepo.IncrementRetryCountBatch: %w", err)
	}

	for _, t := range tasks {
		uc.metrics.Task(t.Name, "publish_failed")
	}

	return nil
}

// ReleaseStaleTasks puts back to pending the tasks claimed longer than
// claimTimeout ago whose publish outcome was never recorded.
func (uc *TaskUseCase) ReleaseStaleTasks(ctx context.Context, claimTimeout time.Duration) error {
	count, err := uc.outboxRepo.ReleaseStaleClaims(ctx, uc.now().Add(-claimTimeout))
	if err != nil {
		return fmt.Errorf("TaskUseCase - ReleaseStaleTasks - uc.outboxRepo.ReleaseStaleClaims: %w", err)
	}

	if count > 0 {
		uc.logger.Warn("released stale task claims, count = %d", count)
	}

	return nil
}

func (uc *TaskUseCase) MarkMaxRetriesAsFailed(ctx context.Context, maxRetries int) error {
	count, err := uc.outboxRepo.MarkMaxRetriesAsFailed(ctx, maxRetries)
	if err != nil {
		return fmt.Errorf("TaskUseCase - MarkMaxRetriesAsFailed - uc.outboxRepo.MarkMaxRetriesAsFailed: %w", err)
	}

	if count > 0 {
		uc.logger.Warn("tasks marked as failed after %d publish attempts, count = %d", maxRetries, count)
	}

	return nil
}

func (uc *TaskUseCase) CleanupOutbox(ctx context.Context, retention time.Duration) error {
	count, err := uc.outboxRepo.DeleteOldProcessedAndFailed(ctx, uc.now().Add(-retention))
	if err != nil {
		return fmt.Errorf("TaskUseCase - CleanupOutbox - uc.outboxRepo.DeleteOldProcessedAndFailed: %w", err)
	}

	if count > 0 {
		uc.logger.Info("deleted old tasks, count = %d", count)
	}

	return nil
}

func ids(tasks []*entity.Task) uuid.UUIDs {
	IDs := make(uuid.UUIDs, 0, len(tasks))
	for _, t := range tasks {
		IDs = append(IDs, t.ID)
	}

	return IDs
}
