package outbox

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vkmrishad/image-jinn/internal/infrastructure"
	"github.com/vkmrishad/image-jinn/internal/usecase"
	"github.com/vkmrishad/image-jinn/pkg/logger"
)

// settleTimeout bounds the write that records a batch outcome. That write
// runs detached from shutdown so a claimed batch never stays processing.
const settleTimeout = 5 * time.Second

// OutboxRelay hands due tasks from the outbox to the broker. Delivery is at
// least once: a task is marked processed only after the broker accepted it.
// Claims older than claimTimeout are released back to pending, which covers a
// crash between claim and settle.
type OutboxRelay struct {
	tasks  usecase.TaskUseCase
	es     infrastructure.EventsSender
	logger logger.Interface

	pollInterval        time.Duration
	cleanupInterval     time.Duration
	markFailedInterval  time.Duration
	processBatchTimeout time.Duration
	retention           time.Duration
	claimTimeout        time.Duration
	batchSize           int
	maxRetries          int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	started atomic.Bool
}

func New(
	tasks usecase.TaskUseCase,
	es infrastructure.EventsSender,
	l logger.Interface,
	pollInterval time.Duration,
	cleanupInterval time.Duration,
	markFailedInterval time.Duration,
	processBatchTimeout time.Duration,
	retention time.Duration,
	claimTimeout time.Duration,
	batchSize int,
	maxRetries int,
) *OutboxRelay {
	return &OutboxRelay{
		tasks:               tasks,
		es:                  es,
		logger:              l,
		pollInterval:        pollInterval,
		cleanupInterval:     cleanupInterval,
		markFailedInterval:  markFailedInterval,
		processBatchTimeout: processBatchTimeout,
		retention:           retention,
		claimTimeout:        claimTimeout,
		batchSize:           batchSize,
		maxRetries:          maxRetries,
	}
}

func (r *OutboxRelay) Start(ctx context.Context) error {
	if !r.started.CompareAndSwap(false, true) {
		return fmt.Errorf("OutboxRelay - Start - worker already started")
	}

	r.ctx, r.cancel = context.WithCancel(ctx)

	// 1. publish due tasks
	r.worker(r.pollInterval, func() {
		batchCtx, batchCancel := context.WithTimeout(r.ctx, r.processBatchTimeout)
		r.processTasksBatch(batchCtx)
		batchCancel()
	})

	// 2. release abandoned claims, then give up on tasks that exhausted their publish attempts
	r.worker(r.markFailedInterval, func() {
		err := r.tasks.ReleaseStaleTasks(r.ctx, r.claimTimeout)
		if err != nil {
			r.logger.Error(err, "OutboxRelay - Start - worker - r.tasks.ReleaseStaleTasks")
		}

		err = r.tasks.MarkMaxRetriesAsFailed(r.ctx, r.maxRetries)
		if err != nil {
			r.logger.Error(err, "OutboxRelay - Start - worker - r.tasks.MarkMaxRetriesAsFailed")
		}
	})

	// 3. drop processed and failed rows past retention
	r.worker(r.cleanupInterval, func() {
		err := r.tasks.CleanupOutbox(r.ctx, r.retention)
		if err != nil {
			r.logger.Error(err, "OutboxRelay - Start - worker - r.tasks.CleanupOutbox")
		}
	})

	return nil
}

func (r *OutboxRelay) processTasksBatch(ctx context.Context) {
	// 1. pending, due, retry_count < max retries; claimed as processing
	tasks, err := r.tasks.ClaimDueTasks(ctx, r.maxRetries, r.batchSize)
	if err != nil {
		r.logger.Error(err, "OutboxRelay - processTasksBatch - r.tasks.ClaimDueTasks")

		return
	}
	if len(tasks) == 0 {
		return
	}

	// 2. publish
	err = r.es.SendEvents(ctx, tasks)
	if err != nil {
		r.logger.Error(err, "OutboxRelay - processTasksBatch - r.es.SendEvents")
		// 2.1 back to pending with one more attempt spent
		settleCtx, settleCancel := r.settleContext(ctx)
		defer settleCancel()

		incErr := r.tasks.IncrementRetryCountBatch(settleCtx, tasks)
		if incErr != nil {
			r.logger.Error(incErr, "OutboxRelay - processTasksBatch - r.tasks.IncrementRetryCountBatch")
		}
		return
	}

	// 3. done
	settleCtx, settleCancel := r.settleContext(ctx)
	defer settleCancel()

	err = r.tasks.MarkAsProcessedBatch(settleCtx, tasks)
	if err != nil {
		r.logger.Error(err, "OutboxRelay - processTasksBatch - r.tasks.MarkAsProcessedBatch")

		return
	}
}

func (r *OutboxRelay) settleContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), settleTimeout)
}

func (r *OutboxRelay) worker(interval time.Duration, task func()) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-r.ctx.Done():
				return
			case <-ticker.C:
				task()
			}
		}
	}()
}

func (r *OutboxRelay) Shutdown(ctx context.Context) error {
	if !r.started.Load() {
		return nil
	}

	if r.cancel != nil {
		r.cancel()
	}

	done := make(chan struct{})

	go func() {
		r.wg.Wait()
		err := r.es.Close()
		if err != nil {
			r.logger.Error(err, "OutboxRelay - Shutdown - r.es.Close")
		}
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("OutboxRelay - Shutdown: %w", ctx.Err())
	}
}
