package v1

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/vkmrishad/image-jinn/internal/controller/restapi/v1/response"
	"github.com/vkmrishad/image-jinn/pkg/types/errs"
)

func errorResponse(ctx *fiber.Ctx, code int, msg string) error {
	return ctx.Status(code).JSON(response.Error{Error: msg})
}

// validationMessage strips the call-site prefixes from a validation error so
// only the rule that failed reaches the client.
func validationMessage(err error) string {
	for _, known := range []error{errs.ErrInvalidName, errs.ErrInvalidMimetype, errs.ErrInvalidExtension} {
		if errors.Is(err, known) {
			return known.Error()
		}
	}

	return errs.ErrValidation.Error()
}
