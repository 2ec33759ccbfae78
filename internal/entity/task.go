package entity

import (
	"time"

	"github.com/google/uuid"
)

const (
	TaskVerifyUpload = "verify_upload"
)

// Task is a deferred unit of work stored in the outbox until its RunAt passes.
type Task struct {
	ID          uuid.UUID    `json:"id"`
	Name        string       `json:"name"`
	AggregateID uuid.UUID    `json:"aggregate_id"`
	Payload     []byte       `json:"payload"`
	Status      OutboxStatus `json:"status"`
	RunAt       time.Time    `json:"run_at"`
	CreatedAt   time.Time    `json:"created_at"`
	ProcessedAt *time.Time   `json:"processed_at,omitempty"`
	RetryCount  int          `json:"retry_count"`
}
