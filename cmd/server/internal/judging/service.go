package judging

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/stegosaurus21/minicms-sub001/cmd/server/internal/leaderboard"
	"github.com/stegosaurus21/minicms-sub001/cmd/server/internal/models"
	"github.com/stegosaurus21/minicms-sub001/cmd/server/internal/store"
	"github.com/stegosaurus21/minicms-sub001/cmd/server/internal/tracker"
	"github.com/stegosaurus21/minicms-sub001/internal/audit"
	"github.com/stegosaurus21/minicms-sub001/internal/logger"
	"github.com/stegosaurus21/minicms-sub001/internal/types"
)

// The part of the dispatcher the service waits on
type Finalizer interface {
	// Blocks until an in-flight submission is finalized. false when it was not in flight.
	Await(ctx context.Context, token uuid.UUID) (bool, error)
	// Abandons every in-flight finalization
	ResetInflight() int
}

// Who is asking. Non admins only see their own submissions.
type Viewer struct {
	ID    uuid.UUID
	Admin bool
}

type Service struct {
	store       store.Store
	tracker     *tracker.Tracker
	finalizer   Finalizer
	receiver    *Receiver
	leaderboard leaderboard.Invalidator
}

func NewService(
	s store.Store,
	t *tracker.Tracker,
	f Finalizer,
	r *Receiver,
	lb leaderboard.Invalidator,
) *Service {
	if lb == nil {
		lb = leaderboard.Noop{}
	}
	return &Service{store: s, tracker: t, finalizer: f, receiver: r, leaderboard: lb}
}

func (s *Service) submission(ctx context.Context, token uuid.UUID, viewer Viewer) (*models.Submission, error) {
	sub, err := s.store.Submission(ctx, token)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	// someone else's submission looks exactly like a missing one
	if !viewer.Admin && sub.OwnerID != viewer.ID {
		return nil, ErrNotFound
	}

	return sub, nil
}

// Submission metadata, never waits
func (s *Service) Submission(ctx context.Context, token uuid.UUID, viewer Viewer) (*models.Submission, error) {
	ctx, span := tracer.Start(ctx, "Service.Submission", trace.WithAttributes(
		attribute.String("submission.id", token.String()),
	))
	defer span.End()

	sub, err := s.submission(ctx, token, viewer)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get submission")
		return nil, err
	}

	span.SetStatus(codes.Ok, "found submission")
	return sub, nil
}

// The submission once its score is known. Waits while it is in flight. Submissions that will
// never be scored (partial dispatch, lost on restart) come back with a null score.
func (s *Service) Score(ctx context.Context, token uuid.UUID, viewer Viewer) (*models.Submission, error) {
	ctx, span := tracer.Start(ctx, "Service.Score", trace.WithAttributes(
		attribute.String("submission.id", token.String()),
	))
	defer span.End()

	sub, err := s.submission(ctx, token, viewer)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get submission")
		return nil, err
	}

	if sub.Score.Valid || sub.Dispatch == types.DispatchPartial {
		span.SetStatus(codes.Ok, "no wait needed")
		return sub, nil
	}

	waited, err := s.finalizer.Await(ctx, token)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "stopped waiting for score")
		return nil, err
	}
	span.SetAttributes(attribute.Bool("waited", waited))

	// the finalizer may have finished between the first read and Await
	sub, err = s.submission(ctx, token, viewer)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to reload submission")
		return nil, err
	}

	span.SetStatus(codes.Ok, "finalized")
	return sub, nil
}

func hasTest(challenge *models.Challenge, task, test int) bool {
	for _, t := range challenge.Tests {
		if t.TaskNumber == task && t.Number == test {
			return true
		}
	}
	return false
}

// One test's outcome, waiting until its callback lands
func (s *Service) TestResult(
	ctx context.Context,
	token uuid.UUID,
	task, test int,
	viewer Viewer,
) (*models.TestOutcome, error) {
	ctx, span := tracer.Start(ctx, "Service.TestResult", trace.WithAttributes(
		attribute.String("submission.id", token.String()),
		attribute.Int("task", task),
		attribute.Int("test", test),
	))
	defer span.End()

	sub, err := s.submission(ctx, token, viewer)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get submission")
		return nil, err
	}

	challenge, err := s.store.Challenge(ctx, sub.ChallengeID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get challenge")
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	if !hasTest(challenge, task, test) {
		span.RecordError(ErrNotFound)
		span.SetStatus(codes.Error, "no such test")
		return nil, ErrNotFound
	}

	// registered before the lookup so a callback between the two is not missed
	landed, release := s.tracker.AwaitTest(token, task, test)
	defer release()

	for {
		outcome, err := s.store.Outcome(ctx, token, task, test)
		if err == nil {
			span.SetStatus(codes.Ok, "found outcome")
			return outcome, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to get outcome")
			return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
		}

		if landed == nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "outcome missing after callback")
			return nil, ErrNotFound
		}

		span.AddEvent("waiting")
		select {
		case <-landed:
			landed = nil
		case <-ctx.Done():
			span.RecordError(ctx.Err())
			span.SetStatus(codes.Error, "stopped waiting for outcome")
			return nil, ctx.Err()
		}
	}
}

// Deletes every submission and outcome and forgets everything in flight. Callbacks for tests
// dispatched before the reset are dropped from now on.
func (s *Service) Reset(ctx context.Context, actor Viewer) (time.Time, int64, error) {
	ctx, span := tracer.Start(ctx, "Service.Reset")
	defer span.End()

	at := time.Now()
	s.receiver.markReset(at)

	deleted, err := s.store.Reset(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to reset store")
		return at, 0, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	s.tracker.Clear()
	abandoned := s.finalizer.ResetInflight()

	if err := s.leaderboard.InvalidateAll(ctx); err != nil {
		logger.Logger.WarnContext(ctx, "failed to invalidate leaderboards after reset", "error", err)
	}

	span.SetAttributes(attribute.Int64("deleted", deleted), attribute.Int("abandoned", abandoned))

	actorID := actor.ID.String()
	audit.LogSystemReset(audit.Context{UserID: &actorID}, at, deleted)

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "reset")
	return at, deleted, nil
}
