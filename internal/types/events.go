package types

// Published on the score events queue once a submission's score is final
type ScoreEvent struct {
	SubmissionID string    `json:"submission_id"`
	OwnerID      string    `json:"owner_id"`
	ContestID    string    `json:"contest_id"`
	ChallengeID  string    `json:"challenge_id"`
	Score        float64   `json:"score"`
	SubmittedAt  UnixMilli `json:"submitted_at"`
	ScoredAt     UnixMilli `json:"scored_at"`
}
