package persistent

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/vkmrishad/image-jinn/internal/entity"
	"github.com/vkmrishad/image-jinn/pkg/postgres"
	"github.com/vkmrishad/image-jinn/pkg/types/errs"
)

const (
	// Table
	outboxTable = "tasks_outbox"

	// Columns
	outboxIDColumn          = "id"
	outboxNameColumn        = "name"
	outboxAggregateIDColumn = "aggregate_id"
	outboxPayloadColumn     = "payload"
	outboxStatusColumn      = "status"
	outboxRunAtColumn       = "run_at"
	outboxCreatedAtColumn   = "created_at"
	outboxProcessedAtColumn = "processed_at"
	outboxClaimedAtColumn   = "claimed_at"
	outboxRetryCountColumn  = "retry_count"
)

type TaskOutboxRepo struct {
	*postgres.Postgres
}

func NewTaskOutboxRepo(pg *postgres.Postgres) *TaskOutboxRepo {
	return &TaskOutboxRepo{pg}
}

func (r *TaskOutboxRepo) Create(ctx context.Context, task *entity.Task) error {
	sql, args, err := r.Builder.
		Insert(outboxTable).
		Columns(
			outboxIDColumn,
			outboxNameColumn,
			outboxAggregateIDColumn,
			outboxPayloadColumn,
			outboxStatusColumn,
			outboxRunAtColumn,
			outboxCreatedAtColumn,
			outboxRetryCountColumn,
		).
		Values(
			task.ID,
			task.Name,
			task.AggregateID,
			task.Payload,
			task.Status,
			task.RunAt,
			task.CreatedAt,
			task.RetryCount,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("TaskOutboxRepo - Create - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	_, err = executor.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("TaskOutboxRepo - Create - executor.Exec: %w", err)
	}

	return nil
}

// GetDueTasks locks pending rows whose run_at has passed. Rows locked by
// another relay instance are skipped, so callers should run it inside a transaction.
func (r *TaskOutboxRepo) GetDueTasks(ctx context.Context, now time.Time, maxRetries, limit int) ([]*entity.Task, error) {
	sql, args, err := r.Builder.
		Select(
			outboxIDColumn,
			outboxNameColumn,
			outboxAggregateIDColumn,
			outboxPayloadColumn,
			outboxStatusColumn,
			outboxRunAtColumn,
			outboxCreatedAtColumn,
			outboxProcessedAtColumn,
			outboxRetryCountColumn,
		).
		From(outboxTable).
		Where(squirrel.And{
			squirrel.Eq{outboxStatusColumn: entity.OutboxPending},
			squirrel.LtOrEq{outboxRunAtColumn: now},
			squirrel.Lt{outboxRetryCountColumn: maxRetries},
		}).
		OrderBy(outboxRunAtColumn + " ASC").
		Limit(uint64(limit)). //nolint:gosec // configured batch size
		Suffix("FOR UPDATE SKIP LOCKED").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("TaskOutboxRepo - GetDueTasks - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	rows, err := executor.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("TaskOutboxRepo - GetDueTasks - executor.Query: %w", err)
	}
	defer rows.Close()

	tasks := make([]*entity.Task, 0, limit)
	for rows.Next() {
		var task entity.Task
		err = rows.Scan(
			&task.ID,
			&task.Name,
			&task.AggregateID,
			&task.Payload,
			&task.Status,
			&task.RunAt,
			&task.CreatedAt,
			&task.ProcessedAt,
			&task.RetryCount,
		)
		if err != nil {
			return nil, fmt.Errorf("TaskOutboxRepo - GetDueTasks - rows.Scan: %w", err)
		}
		tasks = append(tasks, &task)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("TaskOutboxRepo - GetDueTasks - rows.Err: %w", err)
	}

	return tasks, nil
}

func (r *TaskOutboxRepo) MarkAsProcessingBatch(ctx context.Context, IDs uuid.UUIDs) error {
	return r.setStatusBatch(ctx, "MarkAsProcessingBatch", IDs, entity.OutboxProcessing, outboxClaimedAtColumn)
}

func (r *TaskOutboxRepo) MarkAsProcessedBatch(ctx context.Context, IDs uuid.UUIDs) error {
	return r.setStatusBatch(ctx, "MarkAsProcessedBatch", IDs, entity.OutboxProcessed, outboxProcessedAtColumn)
}

// setStatusBatch moves IDs to status and stamps timeColumn with the current time.
func (r *TaskOutboxRepo) setStatusBatch(ctx context.Context, op string, IDs uuid.UUIDs, status entity.OutboxStatus, timeColumn string) error {
	sql, args, err := r.Builder.
		Update(outboxTable).
		Set(outboxStatusColumn, status).
		Set(timeColumn, time.Now().UTC()).
		Where(squirrel.Eq{outboxIDColumn: IDs}).
		ToSql()
	if err != nil {
		return fmt.Errorf("TaskOutboxRepo - %s - r.Builder.ToSql: %w", op, err)
	}

	executor := r.GetExecutor(ctx)

	tag, err := executor.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("TaskOutboxRepo - %s - executor.Exec: %w", op, err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("TaskOutboxRepo - %s: %w", op, errs.ErrRecordNotFound)
	}

	return nil
}

func (r *TaskOutboxRepo) IncrementRetryCountBatch(ctx context.Context, IDs uuid.UUIDs) error {
	sql, args, err := r.Builder.
		Update(outboxTable).
		Set(outboxRetryCountColumn, squirrel.Expr(outboxRetryCountColumn+" + 1")).
		Set(outboxStatusColumn, entity.OutboxPending).
		Set(outboxClaimedAtColumn, nil).
		Where(squirrel.Eq{outboxIDColumn: IDs}).
		ToSql()
	if err != nil {
		return fmt.Errorf("TaskOutboxRepo - IncrementRetryCountBatch - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	tag, err := executor.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("TaskOutboxRepo - IncrementRetryCountBatch - executor.Exec: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("TaskOutboxRepo - IncrementRetryCountBatch: %w", errs.ErrRecordNotFound)
	}

	return nil
}

// ReleaseStaleClaims returns to pending the rows claimed before the given time
// that were never marked processed, e.g. after a crash between claim and publish.
// The lost attempt counts as a retry.
func (r *TaskOutboxRepo) ReleaseStaleClaims(ctx context.Context, before time.Time) (int64, error) {
	sql, args, err := r.Builder.
		Update(outboxTable).
		Set(outboxRetryCountColumn, squirrel.Expr(outboxRetryCountColumn+" + 1")).
		Set(outboxStatusColumn, entity.OutboxPending).
		Set(outboxClaimedAtColumn, nil).
		Where(squirrel.And{
			squirrel.Eq{outboxStatusColumn: entity.OutboxProcessing},
			squirrel.Lt{outboxClaimedAtColumn: before},
		}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("TaskOutboxRepo - ReleaseStaleClaims - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	tag, err := executor.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("TaskOutboxRepo - ReleaseStaleClaims - executor.Exec: %w", err)
	}

	return tag.RowsAffected(), nil
}

func (r *TaskOutboxRepo) MarkMaxRetriesAsFailed(ctx context.Context, maxRetries int) (int64, error) {
	sql, args, err := r.Builder.
		Update(outboxTable).
		Set(outboxStatusColumn, entity.OutboxFailed).
		Where(squirrel.And{
			squirrel.Eq{outboxStatusColumn: entity.OutboxPending},
			squirrel.GtOrEq{outboxRetryCountColumn: maxRetries},
		}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("TaskOutboxRepo - MarkMaxRetriesAsFailed - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	tag, err := executor.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("TaskOutboxRepo - MarkMaxRetriesAsFailed - executor.Exec: %w", err)
	}

	return tag.RowsAffected(), nil
}

func (r *TaskOutboxRepo) DeleteOldProcessedAndFailed(ctx context.Context, before time.Time) (int64, error) {
	sql, args, err := r.Builder.
		Delete(outboxTable).
		Where(squirrel.And{
			squirrel.Eq{outboxStatusColumn: []entity.OutboxStatus{entity.OutboxProcessed, entity.OutboxFailed}},
			squirrel.Lt{outboxCreatedAtColumn: before},
		}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("TaskOutboxRepo - DeleteOldProcessedAndFailed - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	tag, err := executor.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("TaskOutboxRepo - DeleteOldProcessedAndFailed - executor.Exec: %w", err)
	}

	return tag.RowsAffected(), nil
}
