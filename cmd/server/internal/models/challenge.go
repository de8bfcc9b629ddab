package models

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/stegosaurus21/minicms-sub001/cmd/server/internal/scoring"
)

type Challenge struct {
	Name string
	Model
	Tasks        []ChallengeTask `gorm:"foreignKey:ChallengeID"`
	Tests        []ChallengeTest `gorm:"foreignKey:ChallengeID"`
	CPUTimeLimit float64         `gorm:"column:cpu_time_limit"`
	MemoryLimit  int
}

func (Challenge) TableName() string {
	return "challenge"
}

func (c Challenge) GetID() uuid.UUID {
	return c.ID
}

type ChallengeTask struct {
	Mode scoring.Mode
	Model
	ChallengeID uuid.UUID
	Number      int
	Weight      float64
}

func (ChallengeTask) TableName() string {
	return "challenge_task"
}

func (t ChallengeTask) GetID() uuid.UUID {
	return t.ID
}

type ChallengeTest struct {
	InputKey  string
	OutputKey string
	Model
	ChallengeID uuid.UUID
	TaskNumber  int
	Number      int
}

func (ChallengeTest) TableName() string {
	return "challenge_test"
}

func (t ChallengeTest) GetID() uuid.UUID {
	return t.ID
}

// Builds the scoring view of the challenge. Tasks and tests come out in number order.
func (c *Challenge) ScoringTasks() []scoring.Task {
	tests := make(map[int][]int, len(c.Tasks))
	for _, test := range c.Tests {
		tests[test.TaskNumber] = append(tests[test.TaskNumber], test.Number)
	}

	tasks := make([]scoring.Task, 0, len(c.Tasks))
	for _, task := range c.Tasks {
		numbers := tests[task.Number]
		sort.Ints(numbers)

		tasks = append(tasks, scoring.Task{
			Number: task.Number,
			Weight: task.Weight,
			Mode:   task.Mode,
			Tests:  numbers,
		})
	}

	sort.Slice(tasks, func(i, j int) bool { return tasks[i].Number < tasks[j].Number })

	return tasks
}

// Inserts the challenge with its tasks and tests in one transaction. Tasks go in before tests
// since tests reference them.
func CreateChallenge(ctx context.Context, db *gorm.DB, c *Challenge) error {
	ctx, span := tracer.Start(ctx, "CreateChallenge", trace.WithAttributes(
		attribute.String("challenge.name", c.Name),
		attribute.Int("tasks", len(c.Tasks)),
		attribute.Int("tests", len(c.Tests)),
	))
	defer span.End()

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(c).Error; err != nil {
			return err
		}

		for i := range c.Tasks {
			c.Tasks[i].ChallengeID = c.ID
		}
		for i := range c.Tests {
			c.Tests[i].ChallengeID = c.ID
		}

		if len(c.Tasks) > 0 {
			if err := tx.Create(&c.Tasks).Error; err != nil {
				return err
			}
		}
		if len(c.Tests) > 0 {
			if err := tx.Create(&c.Tests).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to create challenge")
		return fmt.Errorf("failed to create challenge: %w", err)
	}

	span.SetAttributes(attribute.String("challenge.id", c.ID.String()))
	span.RecordError(nil)
	span.SetStatus(codes.Ok, "created challenge")
	return nil
}
