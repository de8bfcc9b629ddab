// Package store is the durable record of submissions, test outcomes and the contest
// configuration they are judged against.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/stegosaurus21/minicms-sub001/cmd/server/internal/models"
	"github.com/stegosaurus21/minicms-sub001/internal/types"
)

//go:generate mockgen -destination ./mock/mock.go -package mock . Store

var ErrNotFound = errors.New("not found")

// Best score and submission count for one (user, challenge) cell
type BestScore struct {
	Username    string
	ChallengeID uuid.UUID
	Best        float64
	Count       int64
}

type ParticipantRow struct {
	JoinedAt time.Time
	Username string
}

type Store interface {
	Language(ctx context.Context, id int) (*models.Language, error)
	// Challenge with its tasks and tests loaded
	Challenge(ctx context.Context, id uuid.UUID) (*models.Challenge, error)
	Contest(ctx context.Context, id uuid.UUID) (*models.Contest, error)
	ContestChallenge(
		ctx context.Context,
		contestID uuid.UUID,
		challengeID uuid.UUID,
	) (*models.ContestChallenge, error)
	// Ordered by position
	ContestChallenges(ctx context.Context, contestID uuid.UUID) ([]models.ContestChallenge, error)

	Participant(ctx context.Context, contestID, userID uuid.UUID) (*models.Participant, error)
	Participants(ctx context.Context, contestID uuid.UUID) ([]ParticipantRow, error)
	// Joining twice keeps the first join time
	Join(ctx context.Context, contestID, userID uuid.UUID, at time.Time) (*models.Participant, error)

	CreateSubmission(ctx context.Context, s *models.Submission) error
	Submission(ctx context.Context, id uuid.UUID) (*models.Submission, error)
	SetDispatch(ctx context.Context, id uuid.UUID, status types.DispatchStatus, at time.Time) error
	// Sets the score once. Reports false when a score was already present.
	SetScore(ctx context.Context, id uuid.UUID, score float64) (bool, error)

	// Reports false when an outcome for the same (submission, task, test) already exists
	InsertOutcome(ctx context.Context, o *models.TestOutcome) (bool, error)
	Outcome(ctx context.Context, submissionID uuid.UUID, task, test int) (*models.TestOutcome, error)
	Outcomes(ctx context.Context, submissionID uuid.UUID) ([]models.TestOutcome, error)

	// Groups a contest's submissions by (owner, challenge). When `before` is set only
	// submissions made strictly before it are counted.
	BestScores(ctx context.Context, contestID uuid.UUID, before *time.Time) ([]BestScore, error)

	// Deletes every submission and outcome
	Reset(ctx context.Context) (int64, error)
}
