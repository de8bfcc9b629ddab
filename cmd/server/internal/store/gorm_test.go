package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	sloggorm "github.com/imdatngo/slog-gorm/v2"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/stegosaurus21/minicms-sub001/cmd/server/internal/migrations"
	"github.com/stegosaurus21/minicms-sub001/cmd/server/internal/models"
	"github.com/stegosaurus21/minicms-sub001/cmd/server/internal/scoring"
	"github.com/stegosaurus21/minicms-sub001/internal/types"
)

type StoreTestSuite struct {
	suite.Suite
	container *postgres.PostgresContainer
	db        *gorm.DB
	tx        *gorm.DB
	store     *GormStore

	alice     models.User
	bob       models.User
	contest   models.Contest
	challenge models.Challenge
	other     models.Challenge
}

func TestStore(t *testing.T) {
	suite.Run(t, new(StoreTestSuite))
}

func (s *StoreTestSuite) SetupSuite() {
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16.4-alpine",
		postgres.WithDatabase("minicms"),
		postgres.WithUsername("minicms"),
		postgres.WithPassword("minicms"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Second)),
	)
	s.container = container
	s.Require().NoError(err, "failed to start postgres container")

	dsn, err := container.ConnectionString(ctx)
	s.Require().NoError(err, "failed to get connection string to container")

	s.db, err = gorm.Open(gormpostgres.Open(dsn), &gorm.Config{
		Logger:         sloggorm.New(),
		TranslateError: true,
	})
	s.Require().NoError(err, "failed to connect to the database")

	s.Require().NoError(migrations.Up(ctx, s.db), "failed to migrate db")
}

func (s *StoreTestSuite) TearDownSuite() {
	s.NoError(testcontainers.TerminateContainer(s.container), "failed to terminate container")
}

func (s *StoreTestSuite) SetupTest() {
	s.tx = s.db.Begin()
	s.store = NewGormStore(s.tx)

	s.alice = models.User{Username: "alice", Token: "x", Active: models.NewNullFromData(true)}
	s.bob = models.User{Username: "bob", Token: "x", Active: models.NewNullFromData(true)}
	s.Require().NoError(s.tx.Create(&s.alice).Error)
	s.Require().NoError(s.tx.Create(&s.bob).Error)

	s.Require().NoError(s.tx.Create(&models.Language{ID: 71, Name: "Python", Enabled: true}).Error)

	s.challenge = models.Challenge{Name: "sum", CPUTimeLimit: 1, MemoryLimit: 128000}
	s.other = models.Challenge{Name: "product", CPUTimeLimit: 1, MemoryLimit: 128000}
	s.Require().NoError(s.tx.Create(&s.challenge).Error)
	s.Require().NoError(s.tx.Create(&s.other).Error)

	tasks := []models.ChallengeTask{
		{ChallengeID: s.challenge.ID, Number: 2, Weight: 3, Mode: scoring.ModeIndividual},
		{ChallengeID: s.challenge.ID, Number: 1, Weight: 1, Mode: scoring.ModeBatch},
	}
	s.Require().NoError(s.tx.Create(&tasks).Error)

	tests := []models.ChallengeTest{
		{ChallengeID: s.challenge.ID, TaskNumber: 2, Number: 2, InputKey: "2-2.in", OutputKey: "2-2.out"},
		{ChallengeID: s.challenge.ID, TaskNumber: 1, Number: 1, InputKey: "1-1.in", OutputKey: "1-1.out"},
		{ChallengeID: s.challenge.ID, TaskNumber: 2, Number: 1, InputKey: "2-1.in", OutputKey: "2-1.out"},
	}
	s.Require().NoError(s.tx.Create(&tests).Error)

	s.contest = models.Contest{Name: "open"}
	s.Require().NoError(s.tx.Create(&s.contest).Error)

	ccs := []models.ContestChallenge{
		{ContestID: s.contest.ID, ChallengeID: s.other.ID, Position: 2, MaxScore: 50},
		{ContestID: s.contest.ID, ChallengeID: s.challenge.ID, Position: 1, MaxScore: 100},
	}
	s.Require().NoError(s.tx.Create(&ccs).Error)
}

func (s *StoreTestSuite) TearDownTest() {
	s.tx.Rollback()
}

func (s *StoreTestSuite) submission(owner models.User, challenge uuid.UUID, at time.Time) *models.Submission {
	sub := &models.Submission{
		OwnerID:      owner.ID,
		ContestID:    s.contest.ID,
		ChallengeID:  challenge,
		LanguageID:   71,
		Source:       "print(1)",
		SourceSHA256: "abc",
		SubmittedAt:  at,
		Dispatch:     types.DispatchPending,
	}
	s.Require().NoError(s.store.CreateSubmission(context.Background(), sub))
	return sub
}

func (s *StoreTestSuite) TestChallengeLoadsTasksAndTests() {
	c, err := s.store.Challenge(context.Background(), s.challenge.ID)
	s.Require().NoError(err)

	tasks := c.ScoringTasks()
	s.Require().Len(tasks, 2)
	s.Equal(1, tasks[0].Number)
	s.Equal(scoring.ModeBatch, tasks[0].Mode)
	s.Equal([]int{1}, tasks[0].Tests)
	s.Equal(2, tasks[1].Number)
	s.Equal([]int{1, 2}, tasks[1].Tests)
	s.NoError(scoring.Validate(tasks))
}

func (s *StoreTestSuite) TestNotFound() {
	ctx := context.Background()

	_, err := s.store.Challenge(ctx, uuid.New())
	s.ErrorIs(err, ErrNotFound)

	_, err = s.store.Language(ctx, 1)
	s.ErrorIs(err, ErrNotFound)

	_, err = s.store.ContestChallenge(ctx, s.contest.ID, uuid.New())
	s.ErrorIs(err, ErrNotFound)

	_, err = s.store.Submission(ctx, uuid.New())
	s.ErrorIs(err, ErrNotFound)

	_, err = s.store.Participant(ctx, s.contest.ID, s.alice.ID)
	s.ErrorIs(err, ErrNotFound)

	err = s.store.SetDispatch(ctx, uuid.New(), types.DispatchFull, time.Now())
	s.ErrorIs(err, ErrNotFound)
}

func (s *StoreTestSuite) TestContestChallengesOrdered() {
	ccs, err := s.store.ContestChallenges(context.Background(), s.contest.ID)
	s.Require().NoError(err)
	s.Require().Len(ccs, 2)
	s.Equal(s.challenge.ID, ccs[0].ChallengeID)
	s.Equal(s.other.ID, ccs[1].ChallengeID)
}

func (s *StoreTestSuite) TestJoinKeepsFirstTime() {
	ctx := context.Background()
	first := time.Now().Add(-time.Hour).UTC().Truncate(time.Millisecond)

	p, err := s.store.Join(ctx, s.contest.ID, s.alice.ID, first)
	s.Require().NoError(err)
	s.True(first.Equal(p.JoinedAt))

	p, err = s.store.Join(ctx, s.contest.ID, s.alice.ID, time.Now())
	s.Require().NoError(err)
	s.True(first.Equal(p.JoinedAt), "second join must not move the join time")

	rows, err := s.store.Participants(ctx, s.contest.ID)
	s.Require().NoError(err)
	s.Require().Len(rows, 1)
	s.Equal("alice", rows[0].Username)
}

func (s *StoreTestSuite) TestSetScoreOnce() {
	ctx := context.Background()
	sub := s.submission(s.alice, s.challenge.ID, time.Now())

	set, err := s.store.SetScore(ctx, sub.ID, 62.5)
	s.Require().NoError(err)
	s.True(set)

	set, err = s.store.SetScore(ctx, sub.ID, 100)
	s.Require().NoError(err)
	s.False(set)

	got, err := s.store.Submission(ctx, sub.ID)
	s.Require().NoError(err)
	s.Require().True(got.Score.Valid)
	s.InDelta(62.5, got.Score.V, 1e-9)
}

func (s *StoreTestSuite) TestSetDispatch() {
	ctx := context.Background()
	sub := s.submission(s.alice, s.challenge.ID, time.Now())
	s.Equal(types.DispatchPending, sub.Dispatch)

	s.Require().NoError(s.store.SetDispatch(ctx, sub.ID, types.DispatchPartial, time.Now()))

	got, err := s.store.Submission(ctx, sub.ID)
	s.Require().NoError(err)
	s.Equal(types.DispatchPartial, got.Dispatch)
	s.True(got.DispatchedAt.Valid)
}

func (s *StoreTestSuite) TestInsertOutcomeIdempotent() {
	ctx := context.Background()
	sub := s.submission(s.alice, s.challenge.ID, time.Now())

	outcome := func(status string) *models.TestOutcome {
		return &models.TestOutcome{
			SubmissionID: sub.ID,
			TaskNumber:   2,
			TestNumber:   1,
			JudgeToken:   "tok",
			Time:         "0.01",
			Memory:       1024,
			Status:       status,
		}
	}

	first, err := s.store.InsertOutcome(ctx, outcome(types.StatusAccepted))
	s.Require().NoError(err)
	s.True(first)

	first, err = s.store.InsertOutcome(ctx, outcome(types.StatusWrongAnswer))
	s.Require().NoError(err)
	s.False(first)

	got, err := s.store.Outcome(ctx, sub.ID, 2, 1)
	s.Require().NoError(err)
	s.Equal(types.StatusAccepted, got.Status, "the first delivery wins")

	_, err = s.store.Outcome(ctx, sub.ID, 2, 2)
	s.ErrorIs(err, ErrNotFound)

	all, err := s.store.Outcomes(ctx, sub.ID)
	s.Require().NoError(err)
	s.Len(all, 1)
}

func (s *StoreTestSuite) TestBestScores() {
	ctx := context.Background()
	end := time.Now().UTC()

	early := s.submission(s.alice, s.challenge.ID, end.Add(-time.Hour))
	late := s.submission(s.alice, s.challenge.ID, end.Add(time.Hour))
	_ = s.submission(s.bob, s.challenge.ID, end.Add(-time.Minute)) // never scored

	_, err := s.store.SetScore(ctx, early.ID, 30)
	s.Require().NoError(err)
	_, err = s.store.SetScore(ctx, late.ID, 80)
	s.Require().NoError(err)

	all, err := s.store.BestScores(ctx, s.contest.ID, nil)
	s.Require().NoError(err)
	s.Require().Len(all, 2)
	s.Equal(BestScore{Username: "alice", ChallengeID: s.challenge.ID, Best: 80, Count: 2}, all[0])
	s.Equal(BestScore{Username: "bob", ChallengeID: s.challenge.ID, Best: 0, Count: 1}, all[1])

	official, err := s.store.BestScores(ctx, s.contest.ID, &end)
	s.Require().NoError(err)
	s.Require().Len(official, 2)
	s.Equal(BestScore{Username: "alice", ChallengeID: s.challenge.ID, Best: 30, Count: 1}, official[0])
	s.Equal(BestScore{Username: "bob", ChallengeID: s.challenge.ID, Best: 0, Count: 1}, official[1])
}

func (s *StoreTestSuite) TestReset() {
	ctx := context.Background()
	sub := s.submission(s.alice, s.challenge.ID, time.Now())
	_, err := s.store.InsertOutcome(ctx, &models.TestOutcome{
		SubmissionID: sub.ID, TaskNumber: 1, TestNumber: 1, Status: types.StatusAccepted,
	})
	s.Require().NoError(err)

	deleted, err := s.store.Reset(ctx)
	s.Require().NoError(err)
	s.Equal(int64(1), deleted)

	_, err = s.store.Submission(ctx, sub.ID)
	s.ErrorIs(err, ErrNotFound)
}

func TestNotFoundWrapping(t *testing.T) {
	err := notFound(gorm.ErrRecordNotFound)
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
