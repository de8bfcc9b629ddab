package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/stegosaurus21/minicms-sub001/cmd/server/internal/models"
	"github.com/stegosaurus21/minicms-sub001/internal/types"
)

const name = "github.com/stegosaurus21/minicms-sub001/server/store"

var tracer = otel.Tracer(name)

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	return err
}

func fail(span trace.Span, err error, msg string) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, msg)
	return fmt.Errorf("%s: %w", msg, notFound(err))
}

func (s *GormStore) Language(ctx context.Context, id int) (*models.Language, error) {
	ctx, span := tracer.Start(ctx, "Language", trace.WithAttributes(
		attribute.Int("language.id", id),
	))
	defer span.End()

	var lang models.Language
	if err := s.db.WithContext(ctx).First(&lang, id).Error; err != nil {
		return nil, fail(span, err, "failed to get language")
	}

	span.SetStatus(codes.Ok, "")
	return &lang, nil
}

func (s *GormStore) Challenge(ctx context.Context, id uuid.UUID) (*models.Challenge, error) {
	ctx, span := tracer.Start(ctx, "Challenge", trace.WithAttributes(
		attribute.String("challenge.id", id.String()),
	))
	defer span.End()

	var challenge models.Challenge
	err := s.db.WithContext(ctx).
		Preload("Tasks", func(db *gorm.DB) *gorm.DB { return db.Order("number") }).
		Preload("Tests", func(db *gorm.DB) *gorm.DB { return db.Order("task_number, number") }).
		First(&challenge, id).Error
	if err != nil {
		return nil, fail(span, err, "failed to get challenge")
	}

	span.SetStatus(codes.Ok, "")
	return &challenge, nil
}

func (s *GormStore) Contest(ctx context.Context, id uuid.UUID) (*models.Contest, error) {
	ctx, span := tracer.Start(ctx, "Contest", trace.WithAttributes(
		attribute.String("contest.id", id.String()),
	))
	defer span.End()

	contest, err := models.ByID[models.Contest](ctx, s.db, id)
	if err != nil {
		return nil, fail(span, err, "failed to get contest")
	}

	span.SetStatus(codes.Ok, "")
	return contest, nil
}

func (s *GormStore) ContestChallenge(
	ctx context.Context,
	contestID uuid.UUID,
	challengeID uuid.UUID,
) (*models.ContestChallenge, error) {
	ctx, span := tracer.Start(ctx, "ContestChallenge", trace.WithAttributes(
		attribute.String("contest.id", contestID.String()),
		attribute.String("challenge.id", challengeID.String()),
	))
	defer span.End()

	var cc models.ContestChallenge
	err := s.db.WithContext(ctx).
		Where("contest_id = ? AND challenge_id = ?", contestID, challengeID).
		First(&cc).Error
	if err != nil {
		return nil, fail(span, err, "failed to get contest challenge")
	}

	span.SetStatus(codes.Ok, "")
	return &cc, nil
}

func (s *GormStore) ContestChallenges(
	ctx context.Context,
	contestID uuid.UUID,
) ([]models.ContestChallenge, error) {
	ctx, span := tracer.Start(ctx, "ContestChallenges", trace.WithAttributes(
		attribute.String("contest.id", contestID.String()),
	))
	defer span.End()

	var ccs []models.ContestChallenge
	err := s.db.WithContext(ctx).
		Where("contest_id = ?", contestID).
		Order("position, challenge_id").
		Find(&ccs).Error
	if err != nil {
		return nil, fail(span, err, "failed to list contest challenges")
	}

	span.SetAttributes(attribute.Int("count", len(ccs)))
	span.SetStatus(codes.Ok, "")
	return ccs, nil
}

func (s *GormStore) Participant(
	ctx context.Context,
	contestID uuid.UUID,
	userID uuid.UUID,
) (*models.Participant, error) {
	ctx, span := tracer.Start(ctx, "Participant", trace.WithAttributes(
		attribute.String("contest.id", contestID.String()),
		attribute.String("user.id", userID.String()),
	))
	defer span.End()

	var p models.Participant
	err := s.db.WithContext(ctx).
		Where("contest_id = ? AND user_id = ?", contestID, userID).
		First(&p).Error
	if err != nil {
		return nil, fail(span, err, "failed to get participant")
	}

	span.SetStatus(codes.Ok, "")
	return &p, nil
}

func (s *GormStore) Participants(
	ctx context.Context,
	contestID uuid.UUID,
) ([]ParticipantRow, error) {
	ctx, span := tracer.Start(ctx, "Participants", trace.WithAttributes(
		attribute.String("contest.id", contestID.String()),
	))
	defer span.End()

	var rows []ParticipantRow
	err := s.db.WithContext(ctx).
		Table("participant").
		Select("app_user.username AS username, participant.joined_at AS joined_at").
		Joins("JOIN app_user ON app_user.id = participant.user_id").
		Where("participant.contest_id = ?", contestID).
		Order("participant.joined_at, app_user.username").
		Scan(&rows).Error
	if err != nil {
		return nil, fail(span, err, "failed to list participants")
	}

	span.SetAttributes(attribute.Int("count", len(rows)))
	span.SetStatus(codes.Ok, "")
	return rows, nil
}

func (s *GormStore) Join(
	ctx context.Context,
	contestID uuid.UUID,
	userID uuid.UUID,
	at time.Time,
) (*models.Participant, error) {
	ctx, span := tracer.Start(ctx, "Join", trace.WithAttributes(
		attribute.String("contest.id", contestID.String()),
		attribute.String("user.id", userID.String()),
	))
	defer span.End()

	db := s.db.WithContext(ctx)

	p := &models.Participant{ContestID: contestID, UserID: userID, JoinedAt: at}
	result := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "contest_id"}, {Name: "user_id"}},
		DoNothing: true,
	}).Create(p)
	if result.Error != nil {
		return nil, fail(span, result.Error, "failed to join contest")
	}

	if result.RowsAffected == 0 {
		span.AddEvent("already joined")
		return s.Participant(ctx, contestID, userID)
	}

	span.SetStatus(codes.Ok, "joined")
	return p, nil
}

func (s *GormStore) CreateSubmission(ctx context.Context, sub *models.Submission) error {
	ctx, span := tracer.Start(ctx, "CreateSubmission")
	defer span.End()

	if err := s.db.WithContext(ctx).Create(sub).Error; err != nil {
		return fail(span, err, "failed to create submission")
	}

	span.SetAttributes(attribute.String("submission.id", sub.ID.String()))
	span.SetStatus(codes.Ok, "")
	return nil
}

func (s *GormStore) Submission(ctx context.Context, id uuid.UUID) (*models.Submission, error) {
	ctx, span := tracer.Start(ctx, "Submission", trace.WithAttributes(
		attribute.String("submission.id", id.String()),
	))
	defer span.End()

	sub, err := models.ByID[models.Submission](ctx, s.db, id)
	if err != nil {
		return nil, fail(span, err, "failed to get submission")
	}

	span.SetStatus(codes.Ok, "")
	return sub, nil
}

func (s *GormStore) SetDispatch(
	ctx context.Context,
	id uuid.UUID,
	status types.DispatchStatus,
	at time.Time,
) error {
	ctx, span := tracer.Start(ctx, "SetDispatch", trace.WithAttributes(
		attribute.String("submission.id", id.String()),
		attribute.String("dispatch", string(status)),
	))
	defer span.End()

	result := s.db.WithContext(ctx).
		Model(&models.Submission{}).
		Where("id = ?", id).
		Updates(map[string]any{"dispatch": status, "dispatched_at": at})
	if result.Error != nil {
		return fail(span, result.Error, "failed to set dispatch status")
	}
	if result.RowsAffected == 0 {
		return fail(span, gorm.ErrRecordNotFound, "failed to set dispatch status")
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

func (s *GormStore) SetScore(ctx context.Context, id uuid.UUID, score float64) (bool, error) {
	ctx, span := tracer.Start(ctx, "SetScore", trace.WithAttributes(
		attribute.String("submission.id", id.String()),
		attribute.Float64("score", score),
	))
	defer span.End()

	result := s.db.WithContext(ctx).
		Model(&models.Submission{}).
		Where("id = ? AND score IS NULL", id).
		Update("score", score)
	if result.Error != nil {
		return false, fail(span, result.Error, "failed to set score")
	}

	if result.RowsAffected == 0 {
		span.AddEvent("score already set")
		span.SetStatus(codes.Ok, "score already set")
		return false, nil
	}

	span.SetStatus(codes.Ok, "set score")
	return true, nil
}

func (s *GormStore) InsertOutcome(ctx context.Context, o *models.TestOutcome) (bool, error) {
	ctx, span := tracer.Start(ctx, "InsertOutcome", trace.WithAttributes(
		attribute.String("submission.id", o.SubmissionID.String()),
		attribute.Int("task", o.TaskNumber),
		attribute.Int("test", o.TestNumber),
	))
	defer span.End()

	result := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "submission_id"},
			{Name: "task_number"},
			{Name: "test_number"},
		},
		DoNothing: true,
	}).Create(o)
	if result.Error != nil {
		return false, fail(span, result.Error, "failed to insert outcome")
	}

	first := result.RowsAffected > 0
	span.SetAttributes(attribute.Bool("first", first))
	span.SetStatus(codes.Ok, "")
	return first, nil
}

func (s *GormStore) Outcome(
	ctx context.Context,
	submissionID uuid.UUID,
	task int,
	test int,
) (*models.TestOutcome, error) {
	ctx, span := tracer.Start(ctx, "Outcome", trace.WithAttributes(
		attribute.String("submission.id", submissionID.String()),
		attribute.Int("task", task),
		attribute.Int("test", test),
	))
	defer span.End()

	var o models.TestOutcome
	err := s.db.WithContext(ctx).
		Where(
			"submission_id = ? AND task_number = ? AND test_number = ?",
			submissionID, task, test,
		).
		First(&o).Error
	if err != nil {
		return nil, fail(span, err, "failed to get outcome")
	}

	span.SetStatus(codes.Ok, "")
	return &o, nil
}

func (s *GormStore) Outcomes(
	ctx context.Context,
	submissionID uuid.UUID,
) ([]models.TestOutcome, error) {
	ctx, span := tracer.Start(ctx, "Outcomes", trace.WithAttributes(
		attribute.String("submission.id", submissionID.String()),
	))
	defer span.End()

	var outcomes []models.TestOutcome
	err := s.db.WithContext(ctx).
		Where("submission_id = ?", submissionID).
		Order("task_number, test_number").
		Find(&outcomes).Error
	if err != nil {
		return nil, fail(span, err, "failed to list outcomes")
	}

	span.SetAttributes(attribute.Int("count", len(outcomes)))
	span.SetStatus(codes.Ok, "")
	return outcomes, nil
}

func (s *GormStore) BestScores(
	ctx context.Context,
	contestID uuid.UUID,
	before *time.Time,
) ([]BestScore, error) {
	ctx, span := tracer.Start(ctx, "BestScores", trace.WithAttributes(
		attribute.String("contest.id", contestID.String()),
		attribute.Bool("filtered", before != nil),
	))
	defer span.End()

	query := s.db.WithContext(ctx).
		Table("submission").
		Select(`app_user.username AS username,
submission.challenge_id AS challenge_id,
MAX(COALESCE(submission.score, 0)) AS best,
COUNT(*) AS count`).
		Joins("JOIN app_user ON app_user.id = submission.owner_id").
		Where("submission.contest_id = ?", contestID)
	if before != nil {
		query = query.Where("submission.submitted_at < ?", *before)
	}

	var rows []BestScore
	err := query.
		Group("app_user.username, submission.challenge_id").
		Order("app_user.username").
		Scan(&rows).Error
	if err != nil {
		return nil, fail(span, err, "failed to aggregate scores")
	}

	span.SetAttributes(attribute.Int("count", len(rows)))
	span.SetStatus(codes.Ok, "")
	return rows, nil
}

func (s *GormStore) Reset(ctx context.Context) (int64, error) {
	ctx, span := tracer.Start(ctx, "Reset")
	defer span.End()

	var deleted int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM test_outcome").Error; err != nil {
			return err
		}

		result := tx.Exec("DELETE FROM submission")
		if result.Error != nil {
			return result.Error
		}
		deleted = result.RowsAffected
		return nil
	})
	if err != nil {
		return 0, fail(span, err, "failed to reset submissions")
	}

	span.SetAttributes(attribute.Int64("deleted", deleted))
	span.SetStatus(codes.Ok, "reset")
	return deleted, nil
}
