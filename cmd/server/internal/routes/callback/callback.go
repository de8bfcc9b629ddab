package callback

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/stegosaurus21/minicms-sub001/cmd/server/internal/judge"
	"github.com/stegosaurus21/minicms-sub001/cmd/server/internal/judging"
	"github.com/stegosaurus21/minicms-sub001/cmd/server/internal/response"
	"github.com/stegosaurus21/minicms-sub001/internal/types"
)

const name = "github.com/stegosaurus21/minicms-sub001/server/routes/callback"

var tracer = otel.Tracer(name)

type Handler struct {
	receiver *judging.Receiver
}

func CreateHandler(receiver *judging.Receiver) *Handler {
	return &Handler{receiver: receiver}
}

// The judge authenticates with the secret in the path, not basic auth
func (h *Handler) AddRoutes(e *echo.Echo) {
	e.PUT("/judge/callback/:secret/:submission_id/:test/:timestamp/", h.HandleCallback)
}

func (h *Handler) HandleCallback(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "HandleCallback")
	defer span.End()

	target, err := judge.ParseTarget(c.Param("submission_id"), c.Param("test"), c.Param("timestamp"))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "malformed callback url")
		return response.NotFoundError
	}

	span.SetAttributes(
		attribute.String("submission.id", target.Submission.String()),
		attribute.String("test", target.TestSegment()),
	)

	var cb judge.Callback
	span.AddEvent("parsing request body")
	if err := c.Bind(&cb); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Ok, "failed to parse callback body")
		return echo.NewHTTPError(http.StatusBadRequest, types.StringError("failed to parse request data"))
	}

	if cb.Status.Description == "" {
		span.SetStatus(codes.Ok, "callback without status")
		return echo.NewHTTPError(
			http.StatusBadRequest,
			types.FieldsError("validation error", map[string]string{"status": "required"}),
		)
	}

	result, err := h.receiver.Handle(ctx, c.Param("secret"), target, cb)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to handle callback")
		if errors.Is(err, judging.ErrUnauthorized) {
			return response.UnauthorizedError
		}
		return response.InternalServerError
	}

	span.SetAttributes(attribute.String("result", string(result)))
	span.RecordError(nil)
	span.SetStatus(codes.Ok, "handled callback")
	return c.NoContent(http.StatusOK)
}
