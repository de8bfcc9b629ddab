package leaderboard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/stegosaurus21/minicms-sub001/cmd/server/internal/models"
	"github.com/stegosaurus21/minicms-sub001/cmd/server/internal/store"
	mockstore "github.com/stegosaurus21/minicms-sub001/cmd/server/internal/store/mock"
)

type fixture struct {
	store     *mockstore.MockStore
	contestID uuid.UUID
	first     uuid.UUID
	second    uuid.UUID
	end       time.Time
}

func newFixture(t *testing.T, withEnd bool) *fixture {
	f := &fixture{
		store:     mockstore.NewMockStore(gomock.NewController(t)),
		contestID: uuid.New(),
		first:     uuid.New(),
		second:    uuid.New(),
		end:       time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	contest := &models.Contest{Name: "c"}
	contest.ID = f.contestID
	if withEnd {
		contest.EndTime = models.NewNullFromData(f.end)
	}

	f.store.EXPECT().Contest(gomock.Any(), f.contestID).Return(contest, nil)
	f.store.EXPECT().ContestChallenges(gomock.Any(), f.contestID).Return([]models.ContestChallenge{
		{ContestID: f.contestID, ChallengeID: f.first, Position: 1, MaxScore: 100},
		{ContestID: f.contestID, ChallengeID: f.second, Position: 2, MaxScore: 50},
	}, nil)

	return f
}

func TestBuild(t *testing.T) {
	ctx := context.Background()

	t.Run("NoEndOfficialEqualsAll", func(t *testing.T) {
		f := newFixture(t, false)
		f.store.EXPECT().Participants(gomock.Any(), f.contestID).Return([]store.ParticipantRow{
			{Username: "alice", JoinedAt: f.end.Add(time.Hour)},
		}, nil)
		f.store.EXPECT().BestScores(gomock.Any(), f.contestID, nil).Return([]store.BestScore{
			{Username: "alice", ChallengeID: f.second, Best: 20, Count: 3},
		}, nil)

		lb, err := NewBuilder(f.store).Build(ctx, f.contestID)
		require.NoError(t, err)

		assert.Nil(t, lb.EndTime)
		assert.Equal(t, []string{f.first.String(), f.second.String()}, lb.Challenges)
		assert.Equal(t, []float64{100, 50}, lb.MaxScores)
		assert.Equal(t, lb.All, lb.Official)
		assert.Equal(t, &Row{Scores: []float64{0, 20}, Counts: []int64{0, 3}}, lb.All["alice"])

		lb.Official["alice"].Scores[0] = 1
		assert.Zero(t, lb.All["alice"].Scores[0], "views must not share rows")
	})

	t.Run("ParticipantWithoutSubmissions", func(t *testing.T) {
		f := newFixture(t, false)
		f.store.EXPECT().Participants(gomock.Any(), f.contestID).Return([]store.ParticipantRow{
			{Username: "idle", JoinedAt: f.end},
		}, nil)
		f.store.EXPECT().BestScores(gomock.Any(), f.contestID, nil).Return(nil, nil)

		lb, err := NewBuilder(f.store).Build(ctx, f.contestID)
		require.NoError(t, err)

		require.Contains(t, lb.All, "idle")
		assert.Equal(t, &Row{Scores: []float64{0, 0}, Counts: []int64{0, 0}}, lb.All["idle"])
		assert.Equal(t, &Row{Scores: []float64{0, 0}, Counts: []int64{0, 0}}, lb.Official["idle"])
	})

	t.Run("OfficialFiltersBySubmissionTime", func(t *testing.T) {
		f := newFixture(t, true)
		f.store.EXPECT().Participants(gomock.Any(), f.contestID).Return([]store.ParticipantRow{
			{Username: "alice", JoinedAt: f.end.Add(-time.Hour)},
		}, nil)
		// S1 scored 30 before the end, S2 scored 80 after it
		f.store.EXPECT().BestScores(gomock.Any(), f.contestID, nil).Return([]store.BestScore{
			{Username: "alice", ChallengeID: f.first, Best: 80, Count: 2},
		}, nil)
		f.store.EXPECT().BestScores(gomock.Any(), f.contestID, gomock.Not(gomock.Nil())).
			DoAndReturn(func(_ context.Context, _ uuid.UUID, before *time.Time) ([]store.BestScore, error) {
				assert.True(t, before.Equal(f.end))
				return []store.BestScore{
					{Username: "alice", ChallengeID: f.first, Best: 30, Count: 1},
				}, nil
			})

		lb, err := NewBuilder(f.store).Build(ctx, f.contestID)
		require.NoError(t, err)

		require.NotNil(t, lb.EndTime)
		assert.True(t, lb.EndTime.Time().Equal(f.end))
		assert.Equal(t, &Row{Scores: []float64{80, 0}, Counts: []int64{2, 0}}, lb.All["alice"])
		assert.Equal(t, &Row{Scores: []float64{30, 0}, Counts: []int64{1, 0}}, lb.Official["alice"])
	})

	t.Run("LateJoinerNotSeededInOfficial", func(t *testing.T) {
		f := newFixture(t, true)
		f.store.EXPECT().Participants(gomock.Any(), f.contestID).Return([]store.ParticipantRow{
			{Username: "early", JoinedAt: f.end.Add(-time.Minute)},
			{Username: "late", JoinedAt: f.end.Add(time.Minute)},
		}, nil)
		f.store.EXPECT().BestScores(gomock.Any(), f.contestID, nil).Return(nil, nil)
		f.store.EXPECT().BestScores(gomock.Any(), f.contestID, gomock.Not(gomock.Nil())).Return(nil, nil)

		lb, err := NewBuilder(f.store).Build(ctx, f.contestID)
		require.NoError(t, err)

		assert.Contains(t, lb.All, "early")
		assert.Contains(t, lb.All, "late")
		assert.Contains(t, lb.Official, "early")
		assert.NotContains(t, lb.Official, "late")
	})

	t.Run("StaleChallengeSkippedAndNonParticipantAdded", func(t *testing.T) {
		f := newFixture(t, false)
		f.store.EXPECT().Participants(gomock.Any(), f.contestID).Return(nil, nil)
		f.store.EXPECT().BestScores(gomock.Any(), f.contestID, nil).Return([]store.BestScore{
			{Username: "ghost", ChallengeID: uuid.New(), Best: 99, Count: 9},
			{Username: "walkin", ChallengeID: f.first, Best: 12.5, Count: 1},
		}, nil)

		lb, err := NewBuilder(f.store).Build(ctx, f.contestID)
		require.NoError(t, err)

		assert.NotContains(t, lb.All, "ghost")
		assert.Equal(t, &Row{Scores: []float64{12.5, 0}, Counts: []int64{1, 0}}, lb.All["walkin"])
		assert.InDelta(t, 12.5, lb.All["walkin"].Total(), 1e-9)
	})

	t.Run("ContestNotFound", func(t *testing.T) {
		s := mockstore.NewMockStore(gomock.NewController(t))
		id := uuid.New()
		s.EXPECT().Contest(gomock.Any(), id).Return(nil, store.ErrNotFound)

		_, err := NewBuilder(s).Build(ctx, id)
		assert.ErrorIs(t, err, ErrContestNotFound)
	})

	t.Run("StoreError", func(t *testing.T) {
		f := newFixture(t, false)
		boom := errors.New("boom")
		f.store.EXPECT().Participants(gomock.Any(), f.contestID).Return(nil, boom)

		_, err := NewBuilder(f.store).Build(ctx, f.contestID)
		assert.ErrorIs(t, err, boom)
		assert.NotErrorIs(t, err, ErrContestNotFound)
	})
}
