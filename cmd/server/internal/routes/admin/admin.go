package admin

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/otel"

	"github.com/stegosaurus21/minicms-sub001/cmd/server/internal/judging"
	servermiddleware "github.com/stegosaurus21/minicms-sub001/cmd/server/internal/middleware"
	"github.com/stegosaurus21/minicms-sub001/cmd/server/internal/models"
)

const name = "github.com/stegosaurus21/minicms-sub001/server/routes/admin"

var tracer = otel.Tracer(name)

type Handler struct {
	judging *judging.Service
}

func Create(judgingService *judging.Service) *Handler {
	return &Handler{judging: judgingService}
}

func (h *Handler) AddRoutes(e *echo.Echo, middlewareHandler *servermiddleware.Handler) {
	adminGroup := e.Group("/admin",
		middleware.BasicAuth(middlewareHandler.BasicAuthValidator),
		servermiddleware.HasPermissions(servermiddleware.AuthKey, &models.Permissions{Admin: true}),
	)
	adminGroup.POST("/reset/", h.Reset)
}
