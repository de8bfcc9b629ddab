package audit

import (
	"github.com/stegosaurus21/minicms-sub001/internal/types"
)

var schemaVersion = "1.0.0"
var logContext = "audit"

type Disposition string

const (
	DispositionNeutral Disposition = "neutral"
	DispositionGood    Disposition = "good"
	DispositionBad     Disposition = "bad"
)

type EventType string

const (
	EvtSubmissionCreated EventType = "submission_created"
	EvtSubmissionScored  EventType = "submission_scored"
	EvtCallbackRejected  EventType = "callback_rejected"
	EvtSourceArchived    EventType = "source_archived"
	EvtSystemReset       EventType = "system_reset"
)

type Message struct {
	UserID        *string     `json:"user_id"`
	ContestID     *string     `json:"contest_id"`
	LogContext    string      `json:"log_context" validate:"required"`
	SchemaVersion string      `json:"version"     validate:"required"`
	Disposition   Disposition `json:"disposition" validate:"required"`
	Type          EventType   `json:"event_type"  validate:"required"`

	Timestamp types.UnixMilli `json:"timestamp" validate:"required"`
}

type SubmissionCreatedEvent struct {
	SubmissionID string               `json:"submission_id"`
	ChallengeID  string               `json:"challenge_id"`
	LanguageID   int                  `json:"language_id"`
	SourceSHA256 string               `json:"source_sha256"`
	TestCount    int                  `json:"test_count"`
	Dispatch     types.DispatchStatus `json:"dispatch"`
}

type SubmissionCreated struct {
	Message
	Event SubmissionCreatedEvent `json:"event"`
}

type SubmissionScoredEvent struct {
	SubmissionID string  `json:"submission_id"`
	ChallengeID  string  `json:"challenge_id"`
	Score        float64 `json:"score"`
	MaxScore     float64 `json:"max_score"`
}

type SubmissionScored struct {
	Message
	Event SubmissionScoredEvent `json:"event"`
}

type CallbackRejectedEvent struct {
	SubmissionID string `json:"submission_id"`
	Test         string `json:"test"`
	Reason       string `json:"reason"`
}

type CallbackRejected struct {
	Message
	Event CallbackRejectedEvent `json:"event"`
}

type SourceArchivedEvent struct {
	SubmissionID string `json:"submission_id"`
	BucketName   string `json:"bucket_name"`
	ObjectName   string `json:"object_name"`
}

type SourceArchived struct {
	Message
	Event SourceArchivedEvent `json:"event"`
}

type SystemResetEvent struct {
	Since              types.UnixMilli `json:"since"`
	SubmissionsDeleted int64           `json:"submissions_deleted"`
}

type SystemReset struct {
	Message
	Event SystemResetEvent `json:"event"`
}
