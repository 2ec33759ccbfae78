package errs

import (
	"errors"
	"fmt"
)

var (
	ErrRecordNotFound = errors.New("record not found")
	ErrUnknownTask    = errors.New("unknown task")
	ErrConversion     = errors.New("image conversion failed")

	ErrValidation       = errors.New("validation error")
	ErrInvalidName      = fmt.Errorf("%w: not a valid image format (.png, .jpg, .jpeg)", ErrValidation)
	ErrInvalidMimetype  = fmt.Errorf("%w: not a valid mimetype (image/jpg, image/jpeg, image/png)", ErrValidation)
	ErrInvalidExtension = fmt.Errorf("%w: not a valid extension (jpg, jpeg, png)", ErrValidation)
)
