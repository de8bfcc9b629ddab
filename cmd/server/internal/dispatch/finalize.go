package dispatch

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/stegosaurus21/minicms-sub001/cmd/server/internal/models"
	"github.com/stegosaurus21/minicms-sub001/cmd/server/internal/scoring"
	"github.com/stegosaurus21/minicms-sub001/internal/audit"
	"github.com/stegosaurus21/minicms-sub001/internal/logger"
	"github.com/stegosaurus21/minicms-sub001/internal/types"
)

// Registers the submission as in flight and starts the task that scores it once every callback
// has landed. The returned channel closes when the task ends, scored or not.
func (d *Dispatcher) finalizeLater(
	ctx context.Context,
	sub *models.Submission,
	j *judged,
	completion <-chan struct{},
	dispatchedAt time.Time,
) <-chan struct{} {
	done := make(chan struct{})

	d.mu.Lock()
	// a reset landed during the fan-out and its callbacks will be dropped as stale
	if dispatchedAt.UnixMilli() < d.deps.Resets.LastReset().UnixMilli() {
		d.mu.Unlock()
		logger.Logger.WarnContext(ctx, "submission dispatched before a reset, not scoring it", "submission", sub.ID)
		d.deps.Tracker.Drop(sub.ID)
		close(done)
		return done
	}
	flight := &inflight{done: done}
	d.inflight[sub.ID] = flight
	d.mu.Unlock()

	d.deps.Tasks.RunUntilShutdown(ctx, "finalizeSubmission", func(ctx context.Context) {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		d.mu.Lock()
		flight.cancel = cancel
		// reset raced the task start
		if d.inflight[sub.ID] != flight {
			cancel()
		}
		d.mu.Unlock()

		defer func() {
			d.mu.Lock()
			if d.inflight[sub.ID] == flight {
				delete(d.inflight, sub.ID)
			}
			d.mu.Unlock()
			d.deps.Tracker.Forget(sub.ID)
			close(done)
		}()

		select {
		case <-completion:
		case <-ctx.Done():
			logger.Logger.WarnContext(
				ctx,
				"abandoned submission before every test came back",
				"submission", sub.ID,
				"error", ctx.Err(),
			)
			return
		}

		d.finalize(ctx, sub, j)
	})

	return done
}

func (d *Dispatcher) finalize(ctx context.Context, sub *models.Submission, j *judged) {
	ctx, span := tracer.Start(ctx, "finalize", trace.WithAttributes(
		attribute.String("submission.id", sub.ID.String()),
	))
	defer span.End()

	var set bool
	var score float64
	err := retry.Do(ctx, d.cfg.ScoreBackoff(), func(ctx context.Context) error {
		rows, err := d.deps.Store.Outcomes(ctx, sub.ID)
		if err != nil {
			span.AddEvent("outcomes_failed")
			return retry.RetryableError(err)
		}

		outcomes := make([]scoring.Outcome, 0, len(rows))
		for _, row := range rows {
			outcomes = append(outcomes, row.ScoringOutcome())
		}
		score = scoring.Compute(outcomes, j.tasks, j.maxScore)

		set, err = d.deps.Store.SetScore(ctx, sub.ID, score)
		if err != nil {
			span.AddEvent("set_score_failed")
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		logger.Logger.ErrorContext(ctx, "failed to persist score", "submission", sub.ID, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to persist score")
		return
	}

	span.SetAttributes(attribute.Float64("score", score), attribute.Bool("set", set))
	if !set {
		span.AddEvent("already_scored")
		span.RecordError(nil)
		span.SetStatus(codes.Ok, "score already present")
		return
	}

	d.scored.Add(ctx, 1)

	if err := d.deps.Leaderboard.Invalidate(ctx, sub.ContestID); err != nil {
		logger.Logger.WarnContext(ctx, "failed to invalidate leaderboard", "contest", sub.ContestID, "error", err)
	}

	event := types.ScoreEvent{
		SubmissionID: sub.ID.String(),
		OwnerID:      sub.OwnerID.String(),
		ContestID:    sub.ContestID.String(),
		ChallengeID:  sub.ChallengeID.String(),
		Score:        score,
		SubmittedAt:  types.UnixMilli(sub.SubmittedAt.UnixMilli()),
		ScoredAt:     types.UnixMilli(time.Now().UnixMilli()),
	}
	if err := d.deps.Queue.Enqueue(ctx, event); err != nil {
		logger.Logger.WarnContext(ctx, "failed to publish score event", "submission", sub.ID, "error", err)
	}

	owner := sub.OwnerID.String()
	contest := sub.ContestID.String()
	audit.LogSubmissionScored(
		audit.Context{UserID: &owner, ContestID: &contest},
		sub.ID.String(),
		sub.ChallengeID.String(),
		score,
		j.maxScore,
	)

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "scored submission")
}

// Blocks until the submission's finalize task ends. Reports false straight away when the
// submission is not in flight.
func (d *Dispatcher) Await(ctx context.Context, token uuid.UUID) (bool, error) {
	d.mu.Lock()
	flight, ok := d.inflight[token]
	d.mu.Unlock()
	if !ok {
		return false, nil
	}

	select {
	case <-flight.done:
		return true, nil
	case <-ctx.Done():
		return true, ctx.Err()
	}
}

// Stops every finalize task. Their waiters wake up and find nothing scored.
func (d *Dispatcher) ResetInflight() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	n := len(d.inflight)
	for token, flight := range d.inflight {
		if flight.cancel != nil {
			flight.cancel()
		}
		delete(d.inflight, token)
	}
	return n
}
