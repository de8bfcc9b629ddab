package v1

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	srverr "github.com/stegosaurus21/minicms-sub001/cmd/server/internal/error"
	"github.com/stegosaurus21/minicms-sub001/cmd/server/internal/leaderboard"
	servermiddleware "github.com/stegosaurus21/minicms-sub001/cmd/server/internal/middleware"
	"github.com/stegosaurus21/minicms-sub001/cmd/server/internal/models"
	"github.com/stegosaurus21/minicms-sub001/cmd/server/internal/response"
	"github.com/stegosaurus21/minicms-sub001/internal/types"
)

func (h *Handler) GetLeaderboard(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "GetLeaderboard")
	defer span.End()

	contest, ok := c.Get("contest").(*models.Contest)
	if !ok {
		span.RecordError(srverr.ErrTypeAssertMismatch)
		span.SetStatus(codes.Error, fmt.Sprintf("contest: %s", srverr.ErrTypeAssertMismatch))
		return response.InternalServerError
	}

	span.SetAttributes(attribute.String("contest.id", contest.ID.String()))

	board, err := h.leaderboard.Build(ctx, contest.ID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to build leaderboard")
		if errors.Is(err, leaderboard.ErrContestNotFound) {
			return response.NotFoundError
		}
		return response.InternalServerError
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "built leaderboard")
	return c.JSON(http.StatusOK, board)
}

func (h *Handler) JoinContest(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "JoinContest")
	defer span.End()

	user, ok := c.Get(servermiddleware.AuthKey).(*models.User)
	if !ok {
		span.RecordError(srverr.ErrTypeAssertMismatch)
		span.SetStatus(codes.Error, fmt.Sprintf("auth: %s", srverr.ErrTypeAssertMismatch))
		return response.InternalServerError
	}

	contest, ok := c.Get("contest").(*models.Contest)
	if !ok {
		span.RecordError(srverr.ErrTypeAssertMismatch)
		span.SetStatus(codes.Error, fmt.Sprintf("contest: %s", srverr.ErrTypeAssertMismatch))
		return response.InternalServerError
	}

	requestTime, err := servermiddleware.RequestTime(c)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return response.InternalServerError
	}

	span.SetAttributes(
		attribute.String("user.id", user.ID.String()),
		attribute.String("contest.id", contest.ID.String()),
	)

	participant, err := h.store.Join(ctx, contest.ID, user.ID, requestTime)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to join contest")
		return response.InternalServerError
	}

	// new rows appear on the leaderboard
	if inv, ok := h.leaderboard.(leaderboard.Invalidator); ok {
		if err := inv.Invalidate(ctx, contest.ID); err != nil {
			span.AddEvent("invalidate_failed")
		}
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "joined contest")
	return c.JSON(http.StatusOK, types.JoinResponse{
		ContestID: contest.ID.String(),
		JoinedAt:  types.NewUnixMilli(participant.JoinedAt),
	})
}
