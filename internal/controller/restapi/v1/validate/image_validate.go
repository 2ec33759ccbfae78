package validate

import (
	"errors"
	"strconv"

	"github.com/google/uuid"
)

const (
	DefaultListLimit int = 20
	MaxListLimit     int = 100

	MaxNameLen int = 250
)

var (
	ErrInvalidID     = errors.New("invalid id")
	ErrInvalidLimit  = errors.New("limit must be a positive number")
	ErrInvalidOffset = errors.New("offset must be a non-negative number")
	ErrNameRequired  = errors.New("name is required")
	ErrNameTooLong   = errors.New("name is too long")
	ErrMimeRequired  = errors.New("mimetype is required")
)

func ID(raw string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, ErrInvalidID
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, ErrInvalidID
	}

	return id, nil
}

// Limit parses a page size, capped at MaxListLimit.
func Limit(raw string) (int, error) {
	if raw == "" {
		return DefaultListLimit, nil
	}

	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return 0, ErrInvalidLimit
	}

	return min(limit, MaxListLimit), nil
}

func Offset(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}

	offset, err := strconv.Atoi(raw)
	if err != nil || offset < 0 {
		return 0, ErrInvalidOffset
	}

	return offset, nil
}

func UploadImage(name, mimetype string) error {
	switch {
	case name == "":
		return ErrNameRequired
	case len(name) > MaxNameLen:
		return ErrNameTooLong
	case mimetype == "":
		return ErrMimeRequired
	}

	return nil
}
