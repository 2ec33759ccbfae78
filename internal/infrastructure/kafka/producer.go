package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/segmentio/kafka-go"
	"github.com/vkmrishad/image-jinn/internal/entity"
	"github.com/vkmrishad/image-jinn/pkg/kafka/producer"
)

const (
	HeaderTaskID   = "task_id"
	HeaderTaskName = "task_name"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type EventProducer struct {
	*producer.Producer
	writer     messageWriter
	maxRetries int
	topic      string
	backoff    func() backoff.BackOff
}

func NewEventProducer(producer *producer.Producer, retries int, topic string) *EventProducer {
	return &EventProducer{
		Producer:   producer,
		writer:     producer.Writer,
		maxRetries: retries,
		topic:      topic,
		backoff:    defaultBackoff,
	}
}

func defaultBackoff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 100 * time.Millisecond
	b.MaxInterval = 2 * time.Second

	return b
}

func (ep *EventProducer) SendEvents(ctx context.Context, tasks []*entity.Task) error {
	msgs := toMessages(ep.topic, tasks)
	if len(msgs) == 0 {
		return nil
	}

	b := backoff.WithContext(backoff.WithMaxRetries(ep.backoff(), uint64(ep.maxRetries)), ctx) //nolint:gosec // small positive config value

	err := backoff.Retry(func() error {
		return ep.writer.WriteMessages(ctx, msgs...)
	}, b)
	if err != nil {
		return fmt.Errorf("EventProducer - SendEvents - ep.writer.WriteMessages: %w", err)
	}

	return nil
}

func toMessages(topic string, tasks []*entity.Task) []kafka.Message {
	msgs := make([]kafka.Message, 0, len(tasks))

	for _, task := range tasks {
		msgs = append(msgs, kafka.Message{
			Topic: topic,
			Key:   []byte(task.AggregateID.String()),
			Value: task.Payload,
			Headers: []kafka.Header{
				{Key: HeaderTaskID, Value: []byte(task.ID.String())},
				{Key: HeaderTaskName, Value: []byte(task.Name)},
			},
		})
	}

	return msgs
}

func (ep *EventProducer) Close() error {
	if ep.Producer == nil {
		return nil
	}

	err := ep.Producer.Close()
	if err != nil {
		return fmt.Errorf("EventProducer - Close: %w", err)
	}

	return nil
}
