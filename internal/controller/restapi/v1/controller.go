package v1

import (
	"github.com/vkmrishad/image-jinn/internal/usecase"
	"github.com/vkmrishad/image-jinn/pkg/logger"
)

type V1 struct {
	img     usecase.ImageUseCase
	variant usecase.VariantUseCase
	logger  logger.Interface
}
