package judging_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
	"gorm.io/datatypes"

	"github.com/stegosaurus21/minicms-sub001/cmd/server/internal/judge"
	"github.com/stegosaurus21/minicms-sub001/cmd/server/internal/judging"
	"github.com/stegosaurus21/minicms-sub001/cmd/server/internal/models"
	"github.com/stegosaurus21/minicms-sub001/cmd/server/internal/store"
	mockstore "github.com/stegosaurus21/minicms-sub001/cmd/server/internal/store/mock"
	"github.com/stegosaurus21/minicms-sub001/cmd/server/internal/tracker"
	"github.com/stegosaurus21/minicms-sub001/internal/types"
)

// Stands in for the dispatcher. Await blocks on release.
type fakeFinalizer struct {
	release  chan struct{}
	inflight bool
	resets   int
	mu       sync.Mutex
}

func (f *fakeFinalizer) Await(ctx context.Context, _ uuid.UUID) (bool, error) {
	if !f.inflight {
		return false, nil
	}
	select {
	case <-f.release:
		return true, nil
	case <-ctx.Done():
		return true, ctx.Err()
	}
}

func (f *fakeFinalizer) ResetInflight() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets++
	return 0
}

type countingInvalidator struct {
	all int
}

func (c *countingInvalidator) Invalidate(context.Context, uuid.UUID) error { return nil }

func (c *countingInvalidator) InvalidateAll(context.Context) error {
	c.all++
	return nil
}

type ServiceTestSuite struct {
	suite.Suite

	store     *mockstore.MockStore
	tracker   *tracker.Tracker
	finalizer *fakeFinalizer
	lb        *countingInvalidator
	receiver  *judging.Receiver
	service   *judging.Service

	owner judging.Viewer
	token uuid.UUID
}

func TestServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ServiceTestSuite))
}

func (s *ServiceTestSuite) SetupTest() {
	s.store = mockstore.NewMockStore(gomock.NewController(s.T()))
	s.tracker = tracker.New()
	s.finalizer = &fakeFinalizer{release: make(chan struct{})}
	s.lb = &countingInvalidator{}
	s.receiver = judging.NewReceiver(s.store, s.tracker, secret)
	s.service = judging.NewService(s.store, s.tracker, s.finalizer, s.receiver, s.lb)

	s.owner = judging.Viewer{ID: uuid.New()}
	s.token = uuid.New()
}

func (s *ServiceTestSuite) submission(score *float64, dispatch types.DispatchStatus) *models.Submission {
	sub := &models.Submission{
		Model:       models.Model{ID: s.token},
		OwnerID:     s.owner.ID,
		ChallengeID: uuid.New(),
		Dispatch:    dispatch,
	}
	if score != nil {
		sub.Score = datatypes.NewNull(*score)
	}
	return sub
}

func (s *ServiceTestSuite) TestScoreWaitsForFinalizer() {
	ctx := context.Background()
	s.finalizer.inflight = true

	gomock.InOrder(
		s.store.EXPECT().Submission(gomock.Any(), s.token).Return(s.submission(nil, types.DispatchFull), nil),
		s.store.EXPECT().Submission(gomock.Any(), s.token).Return(s.submission(ptr(62.5), types.DispatchFull), nil),
	)

	type result struct {
		sub *models.Submission
		err error
	}
	out := make(chan result, 1)
	go func() {
		sub, err := s.service.Score(ctx, s.token, s.owner)
		out <- result{sub, err}
	}()

	select {
	case <-out:
		s.FailNow("score returned before the submission was finalized")
	case <-time.After(50 * time.Millisecond):
	}

	close(s.finalizer.release)

	select {
	case r := <-out:
		s.Require().NoError(r.err)
		s.Require().True(r.sub.Score.Valid)
		s.Equal(62.5, r.sub.Score.V)
	case <-time.After(5 * time.Second):
		s.FailNow("score never returned")
	}
}

func (s *ServiceTestSuite) TestScoreAlreadyKnown() {
	s.store.EXPECT().Submission(gomock.Any(), s.token).Return(s.submission(ptr(100.0), types.DispatchFull), nil)

	sub, err := s.service.Score(context.Background(), s.token, s.owner)
	s.Require().NoError(err)
	s.Equal(100.0, sub.Score.V)
}

func (s *ServiceTestSuite) TestScorePartialNeverWaits() {
	s.finalizer.inflight = true
	s.store.EXPECT().Submission(gomock.Any(), s.token).Return(s.submission(nil, types.DispatchPartial), nil)

	sub, err := s.service.Score(context.Background(), s.token, s.owner)
	s.Require().NoError(err)
	s.False(sub.Score.Valid)
}

func (s *ServiceTestSuite) TestScoreHonoursContext() {
	s.finalizer.inflight = true
	s.store.EXPECT().Submission(gomock.Any(), s.token).Return(s.submission(nil, types.DispatchFull), nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := s.service.Score(ctx, s.token, s.owner)
	s.ErrorIs(err, context.DeadlineExceeded)
}

func (s *ServiceTestSuite) TestScoreFinalizedBeforeAwait() {
	// the finalizer finished between the first read and Await
	s.finalizer.inflight = false
	gomock.InOrder(
		s.store.EXPECT().Submission(gomock.Any(), s.token).Return(s.submission(nil, types.DispatchFull), nil),
		s.store.EXPECT().Submission(gomock.Any(), s.token).Return(s.submission(ptr(62.5), types.DispatchFull), nil),
	)

	sub, err := s.service.Score(context.Background(), s.token, s.owner)
	s.Require().NoError(err)
	s.Require().True(sub.Score.Valid)
	s.Equal(62.5, sub.Score.V)
}

func (s *ServiceTestSuite) TestScoreNotInFlightStaysNull() {
	s.store.EXPECT().Submission(gomock.Any(), s.token).Return(s.submission(nil, types.DispatchFull), nil).Times(2)

	sub, err := s.service.Score(context.Background(), s.token, s.owner)
	s.Require().NoError(err)
	s.False(sub.Score.Valid)
}

func (s *ServiceTestSuite) TestOtherUsersSubmissionIsNotFound() {
	s.store.EXPECT().Submission(gomock.Any(), s.token).Return(s.submission(ptr(1.0), types.DispatchFull), nil).Times(2)

	_, err := s.service.Score(context.Background(), s.token, judging.Viewer{ID: uuid.New()})
	s.ErrorIs(err, judging.ErrNotFound)

	_, err = s.service.Score(context.Background(), s.token, judging.Viewer{ID: uuid.New(), Admin: true})
	s.NoError(err)
}

func (s *ServiceTestSuite) TestMissingSubmission() {
	s.store.EXPECT().Submission(gomock.Any(), s.token).Return(nil, store.ErrNotFound)

	_, err := s.service.Submission(context.Background(), s.token, s.owner)
	s.ErrorIs(err, judging.ErrNotFound)
}

func (s *ServiceTestSuite) challenge(sub *models.Submission) {
	s.store.EXPECT().Challenge(gomock.Any(), sub.ChallengeID).Return(&models.Challenge{
		Model: models.Model{ID: sub.ChallengeID},
		Tests: []models.ChallengeTest{{TaskNumber: 1, Number: 1}, {TaskNumber: 2, Number: 1}},
	}, nil)
}

func (s *ServiceTestSuite) TestTestResultWaitsForCallback() {
	ctx := context.Background()
	sub := s.submission(nil, types.DispatchFull)
	s.store.EXPECT().Submission(gomock.Any(), s.token).Return(sub, nil).AnyTimes()
	s.challenge(sub)

	stored := &models.TestOutcome{SubmissionID: s.token, TaskNumber: 2, TestNumber: 1, Status: types.StatusAccepted}
	gomock.InOrder(
		s.store.EXPECT().Outcome(gomock.Any(), s.token, 2, 1).Return(nil, store.ErrNotFound),
		s.store.EXPECT().Outcome(gomock.Any(), s.token, 2, 1).Return(stored, nil),
	)
	s.store.EXPECT().InsertOutcome(gomock.Any(), gomock.Any()).Return(true, nil)

	out := make(chan error, 1)
	go func() {
		outcome, err := s.service.TestResult(ctx, s.token, 2, 1, s.owner)
		if err == nil && outcome.Status != types.StatusAccepted {
			err = judging.ErrNotFound
		}
		out <- err
	}()

	select {
	case <-out:
		s.FailNow("returned before the callback")
	case <-time.After(50 * time.Millisecond):
	}

	_, err := s.receiver.Handle(ctx, secret, judge.Target{
		Submission:   s.token,
		Task:         2,
		Test:         1,
		DispatchedAt: time.Now(),
	}, callback(types.StatusAccepted))
	s.Require().NoError(err)

	select {
	case err := <-out:
		s.NoError(err)
	case <-time.After(5 * time.Second):
		s.FailNow("test result never returned")
	}
}

func (s *ServiceTestSuite) TestTestResultUnknownTest() {
	sub := s.submission(nil, types.DispatchFull)
	s.store.EXPECT().Submission(gomock.Any(), s.token).Return(sub, nil)
	s.challenge(sub)

	_, err := s.service.TestResult(context.Background(), s.token, 3, 1, s.owner)
	s.ErrorIs(err, judging.ErrNotFound)
}

func (s *ServiceTestSuite) TestResetDropsStaleCallbacks() {
	ctx := context.Background()
	dispatchedAt := time.Now().Add(-time.Second)

	s.Require().NoError(s.tracker.Register(s.token, 1))
	s.store.EXPECT().Reset(gomock.Any()).Return(int64(4), nil)

	at, deleted, err := s.service.Reset(ctx, judging.Viewer{ID: uuid.New(), Admin: true})
	s.Require().NoError(err)
	s.EqualValues(4, deleted)
	s.Equal(at.UnixMilli(), s.receiver.LastReset().UnixMilli())
	s.Equal(1, s.finalizer.resets)
	s.Equal(1, s.lb.all)

	_, tracked := s.tracker.Remaining(s.token)
	s.False(tracked)

	// no store expectations: a stale callback touches nothing
	result, err := s.receiver.Handle(ctx, secret, judge.Target{
		Submission:   s.token,
		Task:         1,
		Test:         1,
		DispatchedAt: dispatchedAt,
	}, callback(types.StatusAccepted))
	s.Require().NoError(err)
	s.Equal(judging.ResultStale, result)
}
