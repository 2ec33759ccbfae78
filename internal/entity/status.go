package entity

import (
	"encoding/json"
	"fmt"
)

// UploadStatus is persisted as a smallint. The ordinals below are stored
// values: new statuses must take the next free number, existing ones never move.
//
//	1 Uploading
//	2 Uploaded
//	3 Processing (reserved)
//	4 Processed  (reserved)
//	5 Error
type UploadStatus int16

const (
	Uploading  UploadStatus = 1
	Uploaded   UploadStatus = 2
	Processing UploadStatus = 3
	Processed  UploadStatus = 4
	Error      UploadStatus = 5
)

var statusLabels = map[UploadStatus]string{
	Uploading:  "Uploading",
	Uploaded:   "Uploaded",
	Processing: "Processing",
	Processed:  "Processed",
	Error:      "Error",
}

func (s UploadStatus) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

// String returns the display label.
func (s UploadStatus) String() string {
	if label, ok := statusLabels[s]; ok {
		return label
	}

	return fmt.Sprintf("UploadStatus(%d)", int16(s))
}

func (s UploadStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *UploadStatus) UnmarshalJSON(b []byte) error {
	var label string
	if err := json.Unmarshal(b, &label); err != nil {
		return fmt.Errorf("UploadStatus - UnmarshalJSON: %w", err)
	}

	for status, l := range statusLabels {
		if l == label {
			*s = status
			return nil
		}
	}

	return fmt.Errorf("UploadStatus - UnmarshalJSON: unknown status %q", label)
}

// OutboxStatus tracks a deferred task row through the relay.
type OutboxStatus string

const (
	OutboxPending    OutboxStatus = "pending"
	OutboxProcessing OutboxStatus = "processing"
	OutboxProcessed  OutboxStatus = "processed"
	OutboxFailed     OutboxStatus = "failed"
)
