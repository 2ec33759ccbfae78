package dto

import "github.com/google/uuid"

// VerifyUploadArgs is the payload of the verify_upload task.
type VerifyUploadArgs struct {
	ImageID uuid.UUID `json:"image_id"`
}
