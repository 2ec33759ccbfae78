package v1

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/vkmrishad/image-jinn/internal/controller/restapi/v1/request"
	"github.com/vkmrishad/image-jinn/internal/controller/restapi/v1/response"
	"github.com/vkmrishad/image-jinn/internal/controller/restapi/v1/validate"
	"github.com/vkmrishad/image-jinn/pkg/types/errs"
)

// @Summary  	Request an upload grant
// @Description Creates an image record in Uploading status and returns a presigned POST to upload the original object with
// @Tags 		images
// @Accept 		json
// @Produce 	json
// @Param 		request body request.UploadImage true "File name and mimetype"
// @Success 	201 {object} response.UploadImage
// @Failure 	400 {object} response.Error "Invalid body, name or mimetype"
// @Failure 	500 {object} response.Error "Internal"
// @Router 		/images/upload [post]
func (r *V1) uploadImage(ctx *fiber.Ctx) error {
	var body request.UploadImage

	err := ctx.BodyParser(&body)
	if err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "invalid request body")
	}

	err = validate.UploadImage(body.Name, body.Mimetype)
	if err != nil {
		return errorResponse(ctx, http.StatusBadRequest, err.Error())
	}

	image, grant, err := r.img.IssueUploadGrant(ctx.UserContext(), body.Name, body.Mimetype)
	if err != nil {
		if errors.Is(err, errs.ErrValidation) {
			return errorResponse(ctx, http.StatusBadRequest, validationMessage(err))
		}
		r.logger.Error(err, "restapi - v1 - uploadImage")

		return errorResponse(ctx, http.StatusInternalServerError, "storage problems")
	}

	return ctx.Status(http.StatusCreated).JSON(response.NewUploadImage(image, grant))
}

// @Summary 	Get image
// @Description Returns the image descriptor with a presigned read URL. A different extension is converted on first request and cached in storage
// @Tags 		images
// @Produce 	json
// @Param 		id 		  path  string true  "Image ID(uuid)"
// @Param 		extension query string false "Requested extension" Enums(jpg, jpeg, png)
// @Success 	200 {object} response.Image
// @Failure 	400 {object} response.Error "Invalid ID or extension"
// @Failure 	404 {object} response.Error "Image not found"
// @Failure 	500 {object} response.Error "Conversion or storage failure"
// @Router 		/images/{id} [get]
func (r *V1) getImage(ctx *fiber.Ctx) error {
	id, err := validate.ID(ctx.Params("id"))
	if err != nil {
		return errorResponse(ctx, http.StatusBadRequest, err.Error())
	}

	image, err := r.img.GetImage(ctx.UserContext(), id)
	if err != nil {
		if errors.Is(err, errs.ErrRecordNotFound) {
			return errorResponse(ctx, http.StatusNotFound, "image not found")
		}
		r.logger.Error(err, "restapi - v1 - getImage")

		return errorResponse(ctx, http.StatusInternalServerError, "storage problems")
	}

	rendered, err := r.variant.Resolve(ctx.UserContext(), image, ctx.Query("extension"))
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrValidation):
			return errorResponse(ctx, http.StatusBadRequest, validationMessage(err))
		case errors.Is(err, errs.ErrConversion):
			r.logger.Error(err, "restapi - v1 - getImage")

			return errorResponse(ctx, http.StatusInternalServerError, "image conversion failed")
		}
		r.logger.Error(err, "restapi - v1 - getImage")

		return errorResponse(ctx, http.StatusInternalServerError, "storage problems")
	}

	return ctx.Status(http.StatusOK).JSON(response.NewImage(rendered))
}

// @Summary 	Report a finished upload
// @Description Marks the image Uploaded if the object is already in storage, otherwise schedules another verification
// @Tags 		images
// @Produce 	json
// @Param 		id path string true "Image ID(uuid)"
// @Success 	200 {object} response.Image
// @Failure 	400 {object} response.Error "Invalid ID"
// @Failure 	404 {object} response.Error "Image not found"
// @Failure 	500 {object} response.Error "Internal"
// @Router 		/images/{id}/upload-finished [patch]
func (r *V1) uploadFinished(ctx *fiber.Ctx) error {
	id, err := validate.ID(ctx.Params("id"))
	if err != nil {
		return errorResponse(ctx, http.StatusBadRequest, err.Error())
	}

	image, err := r.img.NotifyUploadFinished(ctx.UserContext(), id)
	if err != nil {
		if errors.Is(err, errs.ErrRecordNotFound) {
			return errorResponse(ctx, http.StatusNotFound, "image not found")
		}
		r.logger.Error(err, "restapi - v1 - uploadFinished")

		return errorResponse(ctx, http.StatusInternalServerError, "storage problems")
	}

	url, err := r.img.PresignedURL(ctx.UserContext(), image)
	if err != nil {
		r.logger.Error(err, "restapi - v1 - uploadFinished")

		return errorResponse(ctx, http.StatusInternalServerError, "storage problems")
	}

	return ctx.Status(http.StatusOK).JSON(response.NewCanonicalImage(image, url))
}

// @Summary 	List images
// @Description Returns images newest first, each with a presigned read URL of the original object
// @Tags 		images
// @Produce 	json
// @Param 		limit  query int false "Page size(default 20, max 100)"
// @Param 		offset query int false "Offset"
// @Success 	200 {array}  response.Image
// @Failure 	400 {object} response.Error "Invalid limit or offset"
// @Failure 	500 {object} response.Error "Internal"
// @Router 		/images [get]
func (r *V1) listImages(ctx *fiber.Ctx) error {
	limit, err := validate.Limit(ctx.Query("limit"))
	if err != nil {
		return errorResponse(ctx, http.StatusBadRequest, err.Error())
	}

	offset, err := validate.Offset(ctx.Query("offset"))
	if err != nil {
		return errorResponse(ctx, http.StatusBadRequest, err.Error())
	}

	images, err := r.img.ListImages(ctx.UserContext(), limit, offset)
	if err != nil {
		r.logger.Error(err, "restapi - v1 - listImages")

		return errorResponse(ctx, http.StatusInternalServerError, "storage problems")
	}

	resp := make([]response.Image, 0, len(images))
	for _, image := range images {
		url, err := r.img.PresignedURL(ctx.UserContext(), image)
		if err != nil {
			r.logger.Error(err, "restapi - v1 - listImages")

			return errorResponse(ctx, http.StatusInternalServerError, "storage problems")
		}

		resp = append(resp, response.NewCanonicalImage(image, url))
	}

	return ctx.Status(http.StatusOK).JSON(resp)
}
