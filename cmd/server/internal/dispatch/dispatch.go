// Package dispatch accepts submissions and fans their tests out to the judge.
//
// A submission row always exists before the first judge request is made, and the completion
// tracker is registered before that, so a fast callback can never find nothing to decrement.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/stegosaurus21/minicms-sub001/cmd/server/internal/judge"
	"github.com/stegosaurus21/minicms-sub001/cmd/server/internal/leaderboard"
	"github.com/stegosaurus21/minicms-sub001/cmd/server/internal/models"
	"github.com/stegosaurus21/minicms-sub001/cmd/server/internal/scoring"
	"github.com/stegosaurus21/minicms-sub001/cmd/server/internal/store"
	"github.com/stegosaurus21/minicms-sub001/cmd/server/internal/taskrunner"
	"github.com/stegosaurus21/minicms-sub001/cmd/server/internal/tracker"
	"github.com/stegosaurus21/minicms-sub001/internal/audit"
	"github.com/stegosaurus21/minicms-sub001/internal/fetch"
	"github.com/stegosaurus21/minicms-sub001/internal/hash"
	"github.com/stegosaurus21/minicms-sub001/internal/logger"
	"github.com/stegosaurus21/minicms-sub001/internal/queue"
	"github.com/stegosaurus21/minicms-sub001/internal/types"
	"github.com/stegosaurus21/minicms-sub001/internal/upload"
	"github.com/stegosaurus21/minicms-sub001/internal/validator"
)

const name = "github.com/stegosaurus21/minicms-sub001/server/dispatch"

var (
	tracer = otel.Tracer(name)
	meter  = otel.Meter(name)
)

type Config struct {
	// Backoff used when persisting a computed score, defaults to fibonacci capped at a minute
	ScoreBackoff   func() retry.Backoff
	PublicURL      string
	CallbackSecret string
	MaxParallel    int
}

// Reports when the system was last reset. Callbacks for tests dispatched before then are dropped.
type ResetClock interface {
	LastReset() time.Time
}

type Deps struct {
	Store    store.Store
	Judge    judge.Client
	Tracker  *tracker.Tracker
	TestData fetch.Fetcher
	// Nil disables source archiving
	Archive     upload.Uploader
	Queue       queue.Queuer
	Leaderboard leaderboard.Invalidator
	// Nil means never reset
	Resets ResetClock
	Tasks  *taskrunner.Client
}

type Request struct {
	SubmittedAt time.Time
	Source      string
	Owner       uuid.UUID
	Contest     uuid.UUID
	Challenge   uuid.UUID
	LanguageID  int
}

type Submitted struct {
	// Closed once finalization ends, scored or abandoned by a reset. Never closed for a partial
	// dispatch.
	Done         <-chan struct{}
	Dispatch     types.DispatchStatus
	Undispatched []types.TestRef
	Token        uuid.UUID
}

type inflight struct {
	done   chan struct{}
	cancel context.CancelFunc
}

type Dispatcher struct {
	deps     Deps
	cfg      Config
	inflight map[uuid.UUID]*inflight
	scored   metric.Int64Counter
	requests metric.Int64Counter
	mu       sync.Mutex
}

type neverReset struct{}

func (neverReset) LastReset() time.Time { return time.Time{} }

func New(deps Deps, cfg Config) (*Dispatcher, error) {
	if cfg.MaxParallel <= 0 {
		cfg.MaxParallel = 1
	}
	if cfg.ScoreBackoff == nil {
		cfg.ScoreBackoff = func() retry.Backoff {
			b := retry.NewFibonacci(100 * time.Millisecond)
			b = retry.WithCappedDuration(5*time.Second, b)
			return retry.WithMaxDuration(time.Minute, b)
		}
	}
	if deps.Queue == nil {
		deps.Queue = queue.Discard{}
	}
	if deps.Leaderboard == nil {
		deps.Leaderboard = leaderboard.Noop{}
	}
	if deps.Resets == nil {
		deps.Resets = neverReset{}
	}

	scored, err := meter.Int64Counter(
		"minicms.submissions.scored",
		metric.WithDescription("Submissions whose score has been persisted"),
	)
	if err != nil {
		return nil, err
	}

	requests, err := meter.Int64Counter(
		"minicms.judge.dispatch",
		metric.WithDescription("Judge requests by result"),
	)
	if err != nil {
		return nil, err
	}

	return &Dispatcher{
		deps:     deps,
		cfg:      cfg,
		inflight: make(map[uuid.UUID]*inflight),
		scored:   scored,
		requests: requests,
	}, nil
}

func validateRequest(req Request) error {
	fields := map[string]string{}
	if req.Source == "" {
		fields["source"] = "required"
	} else if !validator.ValidateSourceSize(len(req.Source)) {
		fields["source"] = "too large"
	}
	if req.LanguageID <= 0 {
		fields["language_id"] = "required"
	}
	if req.Challenge == uuid.Nil {
		fields["challenge_id"] = "required"
	}
	if req.Contest == uuid.Nil {
		fields["contest_id"] = "required"
	}
	if req.Owner == uuid.Nil {
		fields["owner"] = "required"
	}

	if len(fields) > 0 {
		return &InputError{Fields: fields}
	}
	return nil
}

type judged struct {
	tasks     []scoring.Task
	challenge *models.Challenge
	maxScore  float64
}

// Lookups that must pass before anything is written
func (d *Dispatcher) check(ctx context.Context, req Request) (*judged, error) {
	lang, err := d.deps.Store.Language(ctx, req.LanguageID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, &InputError{Fields: map[string]string{"language_id": "unknown language"}}
		}
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	if !lang.Enabled {
		return nil, ErrLanguageDisabled
	}

	challenge, err := d.deps.Store.Challenge(ctx, req.Challenge)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrChallengeNotFound
		}
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	cc, err := d.deps.Store.ContestChallenge(ctx, req.Contest, req.Challenge)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrChallengeNotInContest
		}
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	tasks := challenge.ScoringTasks()
	if err := scoring.Validate(tasks); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrChallengeMisconfigured, err)
	}

	_, err = d.deps.Store.Participant(ctx, req.Contest, req.Owner)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotParticipant
		}
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	return &judged{tasks: tasks, challenge: challenge, maxScore: cc.MaxScore}, nil
}

// Creates the submission and sends one judge request per test. When some requests fail the
// returned Submitted is still valid and the error describes what the judge refused; a
// *judge.DispatchError when the judge rejected any of them.
func (d *Dispatcher) Submit(ctx context.Context, req Request) (*Submitted, error) {
	ctx, span := tracer.Start(ctx, "Submit", trace.WithAttributes(
		attribute.String("owner.id", req.Owner.String()),
		attribute.String("contest.id", req.Contest.String()),
		attribute.String("challenge.id", req.Challenge.String()),
		attribute.Int("language.id", req.LanguageID),
	))
	defer span.End()

	if err := validateRequest(req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid input")
		return nil, err
	}

	j, err := d.check(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "submission rejected")
		return nil, err
	}

	if req.SubmittedAt.IsZero() {
		req.SubmittedAt = time.Now()
	}

	sub := &models.Submission{
		OwnerID:      req.Owner,
		ContestID:    req.Contest,
		ChallengeID:  req.Challenge,
		LanguageID:   req.LanguageID,
		Source:       req.Source,
		SourceSHA256: hash.Buffer([]byte(req.Source)),
		SubmittedAt:  req.SubmittedAt,
		Dispatch:     types.DispatchPending,
	}
	if err := d.deps.Store.CreateSubmission(ctx, sub); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to create submission")
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	token := sub.ID
	span.SetAttributes(attribute.String("submission.id", token.String()))

	// pending submissions already count towards the leaderboard
	if err := d.deps.Leaderboard.Invalidate(ctx, req.Contest); err != nil {
		logger.Logger.WarnContext(ctx, "failed to invalidate leaderboard", "contest", req.Contest, "error", err)
	}

	count := scoring.TestCount(j.tasks)
	if err := d.deps.Tracker.Register(token, count); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to track submission")
		return nil, err
	}

	completion, err := d.deps.Tracker.AwaitCompletion(token)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to await submission")
		return nil, err
	}

	dispatchedAt := time.Now()
	undispatched, dispatchErr := d.fanOut(ctx, sub, j, dispatchedAt)

	status := types.DispatchFull
	if len(undispatched) > 0 {
		status = types.DispatchPartial
	}
	span.SetAttributes(
		attribute.String("dispatch", string(status)),
		attribute.Int("tests", count),
		attribute.Int("undispatched", len(undispatched)),
	)

	if err := d.deps.Store.SetDispatch(ctx, token, status, dispatchedAt); err != nil {
		logger.Logger.ErrorContext(
			ctx,
			"failed to record dispatch status",
			"submission", token,
			"dispatch", status,
			"error", err,
		)
	}

	submitted := &Submitted{Token: token, Dispatch: status, Undispatched: undispatched}

	if status == types.DispatchPartial {
		// nothing will ever resolve the entry, callbacks that do land are still stored
		d.deps.Tracker.Drop(token)
		submitted.Done = make(chan struct{})
	} else {
		submitted.Done = d.finalizeLater(ctx, sub, j, completion, dispatchedAt)
	}

	d.archive(ctx, sub)

	userID := req.Owner.String()
	contestID := req.Contest.String()
	audit.LogSubmissionCreated(
		audit.Context{UserID: &userID, ContestID: &contestID},
		token.String(),
		req.Challenge.String(),
		req.LanguageID,
		sub.SourceSHA256,
		count,
		status,
	)

	if dispatchErr != nil {
		span.RecordError(dispatchErr)
		span.SetStatus(codes.Error, "partial dispatch")
		return submitted, dispatchErr
	}

	span.SetStatus(codes.Ok, "dispatched")
	return submitted, nil
}

type testCase struct {
	challengeTest models.ChallengeTest
	task          int
}

func (d *Dispatcher) fanOut(
	ctx context.Context,
	sub *models.Submission,
	j *judged,
	dispatchedAt time.Time,
) ([]types.TestRef, error) {
	ctx, span := tracer.Start(ctx, "fanOut")
	defer span.End()

	cases := make([]testCase, 0, len(j.challenge.Tests))
	for _, test := range j.challenge.Tests {
		cases = append(cases, testCase{challengeTest: test, task: test.TaskNumber})
	}

	errs := make([]error, len(cases))

	// requests already sent are never cancelled, the judge has no cancel API
	g := new(errgroup.Group)
	g.SetLimit(d.cfg.MaxParallel)
	for i, tc := range cases {
		g.Go(func() error {
			errs[i] = d.dispatchOne(ctx, sub, j.challenge, tc, dispatchedAt)
			return nil
		})
	}
	_ = g.Wait()

	var undispatched []types.TestRef
	var rejected []*judge.DispatchError
	var others []error
	for i, err := range errs {
		if err == nil {
			continue
		}
		undispatched = append(undispatched, types.TestRef{
			Task: cases[i].task,
			Test: cases[i].challengeTest.Number,
		})

		var dispatchErr *judge.DispatchError
		if errors.As(err, &dispatchErr) {
			rejected = append(rejected, dispatchErr)
		} else {
			others = append(others, err)
		}
	}

	switch {
	case len(rejected) > 0:
		err := judge.JoinDispatchErrors(rejected...)
		span.RecordError(err)
		span.SetStatus(codes.Error, "judge rejected tests")
		return undispatched, err
	case len(others) > 0:
		err := errors.Join(others...)
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to dispatch tests")
		return undispatched, err
	}

	span.SetStatus(codes.Ok, "dispatched every test")
	return nil, nil
}

func (d *Dispatcher) dispatchOne(
	ctx context.Context,
	sub *models.Submission,
	challenge *models.Challenge,
	tc testCase,
	dispatchedAt time.Time,
) error {
	ctx, span := tracer.Start(ctx, "dispatchOne", trace.WithAttributes(
		attribute.Int("task", tc.task),
		attribute.Int("test", tc.challengeTest.Number),
	))
	defer span.End()

	result := "accepted"
	defer func() {
		d.requests.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
	}()

	stdin, err := fetch.ReadAll(ctx, d.deps.TestData, tc.challengeTest.InputKey)
	if err != nil {
		result = "testdata"
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch input")
		return fmt.Errorf("failed to fetch input %s: %w", tc.challengeTest.InputKey, err)
	}

	expected, err := fetch.ReadAll(ctx, d.deps.TestData, tc.challengeTest.OutputKey)
	if err != nil {
		result = "testdata"
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch expected output")
		return fmt.Errorf("failed to fetch output %s: %w", tc.challengeTest.OutputKey, err)
	}

	callbackURL, err := judge.CallbackURL(d.cfg.PublicURL, d.cfg.CallbackSecret, judge.Target{
		Submission:   sub.ID,
		Task:         tc.task,
		Test:         tc.challengeTest.Number,
		DispatchedAt: dispatchedAt,
	})
	if err != nil {
		result = "config"
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to build callback url")
		return err
	}

	_, err = d.deps.Judge.Submit(ctx, judge.Request{
		SourceCode:     sub.Source,
		LanguageID:     sub.LanguageID,
		Stdin:          string(stdin),
		ExpectedOutput: string(expected),
		CPUTimeLimit:   challenge.CPUTimeLimit,
		MemoryLimit:    challenge.MemoryLimit,
		CallbackURL:    callbackURL,
	})
	if err != nil {
		var dispatchErr *judge.DispatchError
		if errors.As(err, &dispatchErr) {
			result = "rejected"
		} else {
			result = "unavailable"
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "judge refused test")
		return err
	}

	span.SetStatus(codes.Ok, "dispatched")
	return nil
}

func (d *Dispatcher) archive(ctx context.Context, sub *models.Submission) {
	if d.deps.Archive == nil {
		return
	}

	source := sub.Source
	token := sub.ID.String()
	owner := sub.OwnerID.String()
	contest := sub.ContestID.String()

	d.deps.Tasks.Run(ctx, "archiveSource", func(ctx context.Context) {
		key, err := upload.ArchiveSource(ctx, d.deps.Archive, source)
		if err != nil {
			logger.Logger.ErrorContext(ctx, "failed to archive source", "submission", token, "error", err)
			return
		}

		storeID, err := d.deps.Archive.StoreIdentifier(ctx)
		if err != nil {
			logger.Logger.WarnContext(ctx, "failed to identify archive store", "error", err)
		}

		audit.LogSourceArchived(
			audit.Context{UserID: &owner, ContestID: &contest},
			token,
			storeID,
			key,
		)
	})
}
