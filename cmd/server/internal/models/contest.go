package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Contest struct {
	Name string
	Model
	EndTime datatypes.Null[time.Time]
}

func (Contest) TableName() string {
	return "contest"
}

func (c Contest) GetID() uuid.UUID {
	return c.ID
}

// Ordered by Position on the leaderboard
type ContestChallenge struct {
	Model
	ContestID   uuid.UUID
	ChallengeID uuid.UUID
	Position    int
	MaxScore    float64
}

func (ContestChallenge) TableName() string {
	return "contest_challenge"
}

func (c ContestChallenge) GetID() uuid.UUID {
	return c.ID
}

type Participant struct {
	JoinedAt time.Time
	Model
	ContestID uuid.UUID
	UserID    uuid.UUID
}

func (Participant) TableName() string {
	return "participant"
}

func (p Participant) GetID() uuid.UUID {
	return p.ID
}
