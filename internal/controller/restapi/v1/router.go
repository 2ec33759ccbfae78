package v1

import (
	"github.com/gofiber/fiber/v2"
	"github.com/vkmrishad/image-jinn/internal/usecase"
	"github.com/vkmrishad/image-jinn/pkg/logger"
)

func NewImageRoutes(apiV1Group fiber.Router, img usecase.ImageUseCase, variant usecase.VariantUseCase, l logger.Interface) {
	r := &V1{img: img, variant: variant, logger: l}

	imagesGroup := apiV1Group.Group("/images")
	{
		imagesGroup.Post("/upload", r.uploadImage)
		imagesGroup.Get("", r.listImages)
		imagesGroup.Get("/:id", r.getImage)
		imagesGroup.Patch("/:id/upload-finished", r.uploadFinished)
	}
}
