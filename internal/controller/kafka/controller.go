package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/segmentio/kafka-go"
	"github.com/vkmrishad/image-jinn/internal/dto"
	"github.com/vkmrishad/image-jinn/internal/entity"
	"github.com/vkmrishad/image-jinn/internal/infrastructure"
	kafkapc "github.com/vkmrishad/image-jinn/internal/infrastructure/kafka"
	"github.com/vkmrishad/image-jinn/internal/usecase"
	"github.com/vkmrishad/image-jinn/pkg/logger"
	"github.com/vkmrishad/image-jinn/pkg/metrics"
	"github.com/vkmrishad/image-jinn/pkg/types/errs"
)

type handler func(ctx context.Context, payload []byte) error

// KafkaController runs deferred tasks delivered by the outbox relay. A message
// is committed once its handler returned, whatever the outcome: business
// failures are final, redelivery only happens if a worker dies before commit.
type KafkaController struct {
	img     usecase.ImageUseCase
	ec      infrastructure.EventsReceiver
	metrics *metrics.Metrics
	logger  logger.Interface

	handlers map[string]handler

	commitTimeout  time.Duration
	processTimeout time.Duration
	readBackoff    func() backoff.BackOff

	workers int
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	started atomic.Bool
}

func New(
	img usecase.ImageUseCase,
	ec infrastructure.EventsReceiver,
	m *metrics.Metrics,
	l logger.Interface,
	commitTimeout time.Duration,
	processTimeout time.Duration,
	workers int,
) *KafkaController {
	c := &KafkaController{
		img:            img,
		ec:             ec,
		metrics:        m,
		logger:         l,
		commitTimeout:  commitTimeout,
		processTimeout: processTimeout,
		readBackoff:    defaultReadBackoff,
		workers:        max(workers, 1),
	}

	c.handlers = map[string]handler{
		entity.TaskVerifyUpload: c.verifyUpload,
	}

	return c
}

// defaultReadBackoff paces reads while the broker keeps failing. It never stops.
func defaultReadBackoff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 100 * time.Millisecond
	b.MaxInterval = 5 * time.Second
	b.MaxElapsedTime = 0

	return b
}

func (c *KafkaController) Start(ctx context.Context) error {
	if !c.started.CompareAndSwap(false, true) {
		return fmt.Errorf("KafkaController - Start - controller already started")
	}

	c.ctx, c.cancel = context.WithCancel(ctx)

	tasks := make(chan kafka.Message, c.workers*2)

	for i := 0; i < c.workers; i++ {
		c.wg.Add(1)
		go c.worker(tasks)
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer close(tasks)

		retry := c.readBackoff()

		for {
			select {
			case <-c.ctx.Done():
				return
			default:
				// 1. read
				event, err := c.ec.ReadEvent(c.ctx)
				if err != nil {
					if c.ctx.Err() != nil {
						return
					}
					c.logger.Error(err, "KafkaController - Start - c.ec.ReadEvent")

					// 1.1 wait before the next read, shutdown interrupts the wait
					select {
					case <-c.ctx.Done():
						return
					case <-time.After(retry.NextBackOff()):
					}
					continue
				}
				retry.Reset()

				// 2. hand over to a worker
				select {
				case tasks <- event:
				case <-c.ctx.Done():
					return
				}
			}
		}
	}()

	return nil
}

// handle dispatches event by its task name header.
func (c *KafkaController) handle(ctx context.Context, event kafka.Message) error {
	name := kafkapc.TaskName(event)

	h, ok := c.handlers[name]
	if !ok {
		return fmt.Errorf("KafkaController - handle - %q: %w", name, errs.ErrUnknownTask)
	}

	err := h(ctx, event.Value)
	if err != nil {
		c.metrics.Task(name, "handle_failed")
		return fmt.Errorf("KafkaController - handle - %s: %w", name, err)
	}

	c.metrics.Task(name, "handled")

	return nil
}

func (c *KafkaController) verifyUpload(ctx context.Context, payload []byte) error {
	var args dto.VerifyUploadArgs
	err := json.Unmarshal(payload, &args)
	if err != nil {
		return fmt.Errorf("KafkaController - verifyUpload - json.Unmarshal: %w", err)
	}

	err = c.img.VerifyUpload(ctx, args.ImageID)
	if err != nil {
		return fmt.Errorf("KafkaController - verifyUpload - c.img.VerifyUpload: %w", err)
	}

	return nil
}

func (c *KafkaController) worker(tasks <-chan kafka.Message) {
	defer c.wg.Done()

	for event := range tasks {
		c.process(event)
	}
}

func (c *KafkaController) process(event kafka.Message) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error(fmt.Errorf("panic %v", r), "KafkaController - process - panic")
		}
	}()

	processCtx, processCancel := context.WithTimeout(c.ctx, c.processTimeout)
	err := c.handle(processCtx, event)
	processCancel()
	if err != nil {
		c.logger.Error(err, "KafkaController - process - c.handle", "task_id", kafkapc.TaskID(event))
	}

	commitCtx, commitCancel := context.WithTimeout(c.ctx, c.commitTimeout)
	err = c.ec.CommitEvent(commitCtx, event)
	commitCancel()
	if err != nil {
		c.logger.Error(err, "KafkaController - process - c.ec.CommitEvent")
	}
}

func (c *KafkaController) Shutdown(ctx context.Context) error {
	if !c.started.Load() {
		return nil
	}

	if c.cancel != nil {
		c.cancel()
	}

	done := make(chan struct{})

	go func() {
		c.wg.Wait()
		err := c.ec.Close()
		if err != nil {
			c.logger.Error(err, "KafkaController - Shutdown - c.ec.Close")
		}
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("KafkaController - Shutdown: %w", ctx.Err())
	}
}
