// Package judging receives judge callbacks and answers callers waiting on their results.
package judging

import (
	"context"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/stegosaurus21/minicms-sub001/cmd/server/internal/judge"
	"github.com/stegosaurus21/minicms-sub001/cmd/server/internal/models"
	"github.com/stegosaurus21/minicms-sub001/cmd/server/internal/store"
	"github.com/stegosaurus21/minicms-sub001/cmd/server/internal/tracker"
	"github.com/stegosaurus21/minicms-sub001/internal/audit"
	"github.com/stegosaurus21/minicms-sub001/internal/logger"
	"github.com/stegosaurus21/minicms-sub001/internal/validator"
)

const name = "github.com/stegosaurus21/minicms-sub001/server/judging"

var tracer = otel.Tracer(name)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
	ErrPersistence  = errors.New("persistence failure")
)

// What Handle did with a callback. Only ResultStored changed anything.
type Result string

const (
	ResultStored    Result = "stored"
	ResultDuplicate Result = "duplicate"
	ResultStale     Result = "stale"
	ResultUnknown   Result = "unknown_submission"
)

type Receiver struct {
	store   store.Store
	tracker *tracker.Tracker
	secret  []byte
	// unix millis of the last reset, callbacks dispatched before it are dropped
	lastReset atomic.Int64
}

func NewReceiver(s store.Store, t *tracker.Tracker, secret string) *Receiver {
	return &Receiver{store: s, tracker: t, secret: []byte(secret)}
}

func (r *Receiver) LastReset() time.Time {
	return time.UnixMilli(r.lastReset.Load())
}

func (r *Receiver) markReset(at time.Time) {
	r.lastReset.Store(at.UnixMilli())
}

// Judges send plain text compile output, it is kept base64 encoded and truncated
func encodeCompileOutput(out *string) string {
	if out == nil || *out == "" {
		return ""
	}

	raw := []byte(*out)
	if len(raw) > validator.MaxCompileOutputSize {
		raw = raw[:validator.MaxCompileOutputSize]
	}

	encoded := base64.StdEncoding.EncodeToString(raw)
	if !validator.ValidateCompileOutputSize(len(encoded)) {
		return ""
	}
	return encoded
}

func rejected(target judge.Target, reason string) {
	audit.LogCallbackRejected(audit.Context{}, target.Submission.String(), target.TestSegment(), reason)
}

// Stores the outcome a judge callback carries and advances the submission's tracker entry.
// Callbacks the receiver has no use for are acknowledged, only a wrong secret or a store
// failure are errors.
func (r *Receiver) Handle(
	ctx context.Context,
	secret string,
	target judge.Target,
	cb judge.Callback,
) (Result, error) {
	ctx, span := tracer.Start(ctx, "Receiver.Handle", trace.WithAttributes(
		attribute.String("submission.id", target.Submission.String()),
		attribute.Int("task", target.Task),
		attribute.Int("test", target.Test),
		attribute.String("status", cb.Status.Description),
	))
	defer span.End()

	if subtle.ConstantTimeCompare([]byte(secret), r.secret) != 1 {
		rejected(target, "bad secret")
		span.RecordError(ErrUnauthorized)
		span.SetStatus(codes.Error, "bad callback secret")
		return "", ErrUnauthorized
	}

	if target.DispatchedAt.UnixMilli() < r.lastReset.Load() {
		logger.Logger.InfoContext(
			ctx,
			"dropping callback dispatched before the last reset",
			"submission", target.Submission,
			"test", target.TestSegment(),
			"dispatched_at", target.DispatchedAt,
		)
		rejected(target, "dispatched before reset")
		span.AddEvent("stale")
		span.SetStatus(codes.Ok, "dropped stale callback")
		return ResultStale, nil
	}

	if _, err := r.store.Submission(ctx, target.Submission); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			logger.Logger.WarnContext(ctx, "callback for unknown submission", "submission", target.Submission)
			rejected(target, "unknown submission")
			span.AddEvent("unknown_submission")
			span.SetStatus(codes.Ok, "acknowledged unknown submission")
			return ResultUnknown, nil
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to look up submission")
		return "", fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	outcome := &models.TestOutcome{
		SubmissionID:  target.Submission,
		TaskNumber:    target.Task,
		TestNumber:    target.Test,
		JudgeToken:    cb.Token,
		Status:        cb.Status.Description,
		CompileOutput: encodeCompileOutput(cb.CompileOutput),
	}
	if cb.Time != nil {
		outcome.Time = *cb.Time
	}
	if cb.Memory != nil {
		outcome.Memory = *cb.Memory
	}

	first, err := r.store.InsertOutcome(ctx, outcome)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to store outcome")
		return "", fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	if !first {
		// judge retry, the tracker already counted this test
		span.AddEvent("duplicate")
		span.SetStatus(codes.Ok, "acknowledged duplicate callback")
		return ResultDuplicate, nil
	}

	woken := r.tracker.ResolveTest(target.Submission, target.Task, target.Test)
	span.SetAttributes(attribute.Int("test_waiters", woken))

	resolved, err := r.tracker.RecordCallback(target.Submission)
	if err != nil {
		if errors.Is(err, tracker.ErrUnknownSubmission) {
			// partial dispatch or a restart since dispatch, the outcome is stored regardless
			logger.Logger.WarnContext(
				ctx,
				"callback for untracked submission",
				"submission", target.Submission,
				"test", target.TestSegment(),
			)
			span.AddEvent("untracked")
			span.SetStatus(codes.Ok, "stored outcome for untracked submission")
			return ResultStored, nil
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to record callback")
		return "", err
	}

	span.SetAttributes(attribute.Bool("resolved", resolved))
	span.RecordError(nil)
	span.SetStatus(codes.Ok, "stored outcome")
	return ResultStored, nil
}
