package v1

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/stegosaurus21/minicms-sub001/cmd/server/internal/dispatch"
	"github.com/stegosaurus21/minicms-sub001/cmd/server/internal/judge"
	"github.com/stegosaurus21/minicms-sub001/cmd/server/internal/judging"
	"github.com/stegosaurus21/minicms-sub001/cmd/server/internal/response"
	"github.com/stegosaurus21/minicms-sub001/internal/logger"
	"github.com/stegosaurus21/minicms-sub001/internal/types"
)

// Maps a failed Submit onto the HTTP error the caller sees
func submitError(ctx context.Context, submitted *dispatch.Submitted, err error) error {
	var inputErr *dispatch.InputError
	var dispatchErr *judge.DispatchError

	switch {
	case errors.As(err, &inputErr):
		return echo.NewHTTPError(http.StatusBadRequest, types.FieldsError("validation error", inputErr.Fields))
	case errors.Is(err, dispatch.ErrLanguageDisabled):
		return echo.NewHTTPError(http.StatusBadRequest, types.StringError("language is disabled"))
	case errors.Is(err, dispatch.ErrChallengeNotFound), errors.Is(err, dispatch.ErrChallengeNotInContest):
		return response.NotFoundError
	case errors.Is(err, dispatch.ErrNotParticipant):
		return echo.NewHTTPError(http.StatusUnauthorized, types.StringError("not a contest participant"))
	case submitted != nil:
		body := types.DispatchErrorResponse{
			Message:      "judge unavailable",
			SubmissionID: submitted.Token.String(),
			Undispatched: submitted.Undispatched,
		}
		if errors.As(err, &dispatchErr) {
			body.Message = "judge rejected submission"
			body.Fields = dispatchErr.FieldMessages()
		}
		return echo.NewHTTPError(http.StatusBadGateway, body)
	}

	logger.Logger.ErrorContext(ctx, "failed to submit", "error", err)
	return response.InternalServerError
}

func judgingError(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, judging.ErrNotFound):
		return response.NotFoundError
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return echo.NewHTTPError(http.StatusServiceUnavailable, types.StringError("gave up waiting"))
	}

	logger.Logger.ErrorContext(ctx, "judging lookup failed", "error", err)
	return response.InternalServerError
}
