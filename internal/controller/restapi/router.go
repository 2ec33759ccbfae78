package restapi

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vkmrishad/image-jinn/config"
	v1 "github.com/vkmrishad/image-jinn/internal/controller/restapi/v1"
	"github.com/vkmrishad/image-jinn/internal/usecase"
	"github.com/vkmrishad/image-jinn/pkg/logger"
)

// @title Image jinn
// @version 1.0.0
// @host localhost:8080
// @BasePath /v1
func NewRouter(app *fiber.App, cfg *config.Config, img usecase.ImageUseCase, variant usecase.VariantUseCase, l logger.Interface) {
	// Swagger
	if cfg.Swagger.Enabled {
		app.Get("/swagger/*", swagger.HandlerDefault)
	}

	// Prometheus metrics
	if cfg.Metrics.Enabled {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	}

	// Routers
	apiV1Group := app.Group("/v1")
	{
		v1.NewImageRoutes(apiV1Group, img, variant, l)
	}
}
