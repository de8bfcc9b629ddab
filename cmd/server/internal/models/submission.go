package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/stegosaurus21/minicms-sub001/cmd/server/internal/scoring"
	"github.com/stegosaurus21/minicms-sub001/internal/types"
)

// The ID doubles as the submission token handed to clients and the judge
type Submission struct {
	SubmittedAt  time.Time
	Source       string
	SourceSHA256 string `gorm:"column:source_sha256"`
	Dispatch     types.DispatchStatus
	Model
	DispatchedAt datatypes.Null[time.Time]
	Score        datatypes.Null[float64]
	OwnerID      uuid.UUID
	ContestID    uuid.UUID
	ChallengeID  uuid.UUID
	LanguageID   int
}

func (Submission) TableName() string {
	return "submission"
}

func (s Submission) GetID() uuid.UUID {
	return s.ID
}

func (s *Submission) Response() types.SubmissionResponse {
	return types.SubmissionResponse{
		SubmissionID: s.ID.String(),
		ContestID:    s.ContestID.String(),
		ChallengeID:  s.ChallengeID.String(),
		LanguageID:   s.LanguageID,
		SubmittedAt:  types.NewUnixMilli(s.SubmittedAt),
		Dispatch:     string(s.Dispatch),
		Score:        PtrFromNull(s.Score),
	}
}

type TestOutcome struct {
	JudgeToken    string
	Time          string
	Status        string
	CompileOutput string // base64
	Model
	SubmissionID uuid.UUID
	TaskNumber   int
	TestNumber   int
	Memory       int64
}

func (TestOutcome) TableName() string {
	return "test_outcome"
}

func (o TestOutcome) GetID() uuid.UUID {
	return o.ID
}

func (o *TestOutcome) Response() types.TestResultResponse {
	return types.TestResultResponse{
		SubmissionID:  o.SubmissionID.String(),
		Task:          o.TaskNumber,
		Test:          o.TestNumber,
		Status:        o.Status,
		Time:          o.Time,
		Memory:        o.Memory,
		CompileOutput: o.CompileOutput,
	}
}

func (o *TestOutcome) ScoringOutcome() scoring.Outcome {
	return scoring.Outcome{Task: o.TaskNumber, Test: o.TestNumber, Status: o.Status}
}
