package types

type (
	SubmitRequest struct {
		// Source code, sent to the judge verbatim
		Source string `json:"source"      validate:"required,maxsource"`
		// Judge language id
		LanguageID int `json:"language_id" validate:"required,gt=0"`
	}

	TestRef struct {
		Task int `json:"task"`
		Test int `json:"test"`
	}

	SubmitResponse struct {
		SubmissionID string         `json:"submission_id" format:"uuid"`
		Dispatch     DispatchStatus `json:"dispatch"`
		// Tests that never reached the judge, only set for partial dispatches
		Undispatched []TestRef `json:"undispatched,omitempty"`
	}

	SubmissionResponse struct {
		SubmissionID string    `json:"submission_id" format:"uuid"`
		ContestID    string    `json:"contest_id"    format:"uuid"`
		ChallengeID  string    `json:"challenge_id"  format:"uuid"`
		LanguageID   int       `json:"language_id"`
		SubmittedAt  UnixMilli `json:"submitted_at"`
		Dispatch     string    `json:"dispatch"`
		Score        *float64  `json:"score"`
	}

	ScoreResponse struct {
		SubmissionID string   `json:"submission_id" format:"uuid"`
		// Null until every test result has arrived
		Score *float64 `json:"score"`
	}

	TestResultResponse struct {
		SubmissionID string `json:"submission_id"  format:"uuid"`
		Task         int    `json:"task"`
		Test         int    `json:"test"`
		Status       string `json:"status"`
		Time         string `json:"time"`
		Memory       int64  `json:"memory"`
		// base64 encoded
		CompileOutput string `json:"compile_output"`
	}

	JoinResponse struct {
		ContestID string    `json:"contest_id" format:"uuid"`
		JoinedAt  UnixMilli `json:"joined_at"`
	}
)

type DispatchStatus string

const (
	DispatchPending DispatchStatus = "pending"
	DispatchFull    DispatchStatus = "full"
	DispatchPartial DispatchStatus = "partial"
)

// Body of a 502 from the submit endpoint. The submission exists, some tests never reached the
// judge.
type DispatchErrorResponse struct {
	Fields       map[string]string `json:"fields,omitempty"`
	Message      string            `json:"message"`
	SubmissionID string            `json:"submission_id,omitempty" format:"uuid"`
	Undispatched []TestRef         `json:"undispatched,omitempty"`
}
