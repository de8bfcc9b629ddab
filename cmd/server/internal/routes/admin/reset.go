package admin

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	srverr "github.com/stegosaurus21/minicms-sub001/cmd/server/internal/error"
	"github.com/stegosaurus21/minicms-sub001/cmd/server/internal/judging"
	servermiddleware "github.com/stegosaurus21/minicms-sub001/cmd/server/internal/middleware"
	"github.com/stegosaurus21/minicms-sub001/cmd/server/internal/models"
	"github.com/stegosaurus21/minicms-sub001/cmd/server/internal/response"
	"github.com/stegosaurus21/minicms-sub001/internal/types"
)

// NOTE: submissions still waiting on the judge are abandoned, their late callbacks are dropped
func (h *Handler) Reset(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "Reset")
	defer span.End()

	user, ok := c.Get(servermiddleware.AuthKey).(*models.User)
	if !ok {
		span.RecordError(srverr.ErrTypeAssertMismatch)
		span.SetStatus(codes.Error, fmt.Sprintf("auth: %s", srverr.ErrTypeAssertMismatch))
		return response.InternalServerError
	}

	span.SetAttributes(attribute.String("user.id", user.ID.String()))

	at, deleted, err := h.judging.Reset(ctx, judging.Viewer{ID: user.ID, Admin: user.Admin})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to reset")
		return response.InternalServerError
	}

	span.SetAttributes(attribute.Int64("deleted", deleted))
	span.RecordError(nil)
	span.SetStatus(codes.Ok, "reset")
	return c.JSON(http.StatusOK, types.ResetResponse{
		Since:              types.NewUnixMilli(at),
		SubmissionsDeleted: deleted,
	})
}
