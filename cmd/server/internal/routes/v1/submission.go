package v1

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/stegosaurus21/minicms-sub001/cmd/server/internal/dispatch"
	srverr "github.com/stegosaurus21/minicms-sub001/cmd/server/internal/error"
	"github.com/stegosaurus21/minicms-sub001/cmd/server/internal/judging"
	servermiddleware "github.com/stegosaurus21/minicms-sub001/cmd/server/internal/middleware"
	"github.com/stegosaurus21/minicms-sub001/cmd/server/internal/models"
	"github.com/stegosaurus21/minicms-sub001/cmd/server/internal/response"
	"github.com/stegosaurus21/minicms-sub001/internal/types"
)

func viewer(user *models.User) judging.Viewer {
	return judging.Viewer{ID: user.ID, Admin: user.Admin}
}

func (h *Handler) Submit(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "Submit")
	defer span.End()

	span.AddEvent("received submission")

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

	challengeID, err := uuid.Parse(c.Param("challenge_id"))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse challenge id")
		return response.NotFoundError
	}

	span.SetAttributes(
		attribute.String("user.id", user.ID.String()),
		attribute.String("contest.id", contest.ID.String()),
		attribute.String("challenge.id", challengeID.String()),
		attribute.Int64("request.timestamp_ms", requestTime.UnixMilli()),
	)

	var rdata types.SubmitRequest

	span.AddEvent("parsing request body")
	err = c.Bind(&rdata)
	if err != nil {
		span.SetStatus(codes.Ok, "failed to parse request data")
		span.RecordError(err)
		return echo.NewHTTPError(
			http.StatusBadRequest,
			types.StringError("failed to parse request data"),
		)
	}

	span.AddEvent("validating request body")
	err = c.Validate(rdata)
	if err != nil {
		span.SetStatus(codes.Ok, "failed to validate request data")
		span.RecordError(err)
		return echo.NewHTTPError(http.StatusBadRequest, types.ValidationError(err))
	}

	submitted, err := h.dispatcher.Submit(ctx, dispatch.Request{
		Source:      rdata.Source,
		Owner:       user.ID,
		Contest:     contest.ID,
		Challenge:   challengeID,
		LanguageID:  rdata.LanguageID,
		SubmittedAt: requestTime,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to submit")
		return submitError(ctx, submitted, err)
	}

	span.SetAttributes(attribute.String("submission.id", submitted.Token.String()))
	span.RecordError(nil)
	span.SetStatus(codes.Ok, "submitted")
	return c.JSON(http.StatusOK, types.SubmitResponse{
		SubmissionID: submitted.Token.String(),
		Dispatch:     submitted.Dispatch,
	})
}

// Parses the submission id param and fetches the caller
func submissionParams(c echo.Context) (uuid.UUID, *models.User, error) {
	user, ok := c.Get(servermiddleware.AuthKey).(*models.User)
	if !ok {
		return uuid.Nil, nil, srverr.ErrTypeAssertMismatch
	}

	id, err := uuid.Parse(c.Param("submission_id"))
	if err != nil {
		return uuid.Nil, user, err
	}

	return id, user, nil
}

func (h *Handler) GetSubmission(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "GetSubmission")
	defer span.End()

	id, user, err := submissionParams(c)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "bad submission params")
		if user == nil {
			return response.InternalServerError
		}
		return response.NotFoundError
	}

	sub, err := h.judging.Submission(ctx, id, viewer(user))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get submission")
		return judgingError(ctx, err)
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "got submission")
	return c.JSON(http.StatusOK, sub.Response())
}

// Blocks until the submission is scored or the request is cancelled
func (h *Handler) GetScore(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "GetScore")
	defer span.End()

	id, user, err := submissionParams(c)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "bad submission params")
		if user == nil {
			return response.InternalServerError
		}
		return response.NotFoundError
	}

	sub, err := h.judging.Score(ctx, id, viewer(user))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get score")
		return judgingError(ctx, err)
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "got score")
	return c.JSON(http.StatusOK, types.ScoreResponse{
		SubmissionID: sub.ID.String(),
		Score:        models.PtrFromNull(sub.Score),
	})
}

// Blocks until the test's outcome is stored or the request is cancelled
func (h *Handler) GetTestResult(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "GetTestResult")
	defer span.End()

	id, user, err := submissionParams(c)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "bad submission params")
		if user == nil {
			return response.InternalServerError
		}
		return response.NotFoundError
	}

	task, err := strconv.Atoi(c.Param("task"))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "bad task number")
		return response.NotFoundError
	}

	test, err := strconv.Atoi(c.Param("test"))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "bad test number")
		return response.NotFoundError
	}

	span.SetAttributes(
		attribute.String("submission.id", id.String()),
		attribute.Int("task", task),
		attribute.Int("test", test),
	)

	outcome, err := h.judging.TestResult(ctx, id, task, test, viewer(user))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get test result")
		return judgingError(ctx, err)
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "got test result")
	return c.JSON(http.StatusOK, outcome.Response())
}
