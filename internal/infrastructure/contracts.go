package infrastructure

import (
	"context"

	"github.com/segmentio/kafka-go"
	"github.com/vkmrishad/image-jinn/internal/entity"
)

type (
	EventsSender interface {
		SendEvents(ctx context.Context, tasks []*entity.Task) error
		Close() error
	}

	EventsReceiver interface {
		ReadEvent(ctx context.Context) (kafka.Message, error)
		CommitEvent(ctx context.Context, event kafka.Message) error
		Close() error
	}

	// ImageConverter re-encodes image bytes into the format of extension.
	ImageConverter interface {
		Convert(ctx context.Context, data []byte, extension string) ([]byte, error)
	}
)
