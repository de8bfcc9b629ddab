package types

import "time"

// Milliseconds since the unix epoch
type UnixMilli int64

func NewUnixMilli(t time.Time) UnixMilli {
	return UnixMilli(t.UnixMilli())
}

func (u UnixMilli) Time() time.Time {
	return time.UnixMilli(int64(u))
}

type PingResponse struct {
	Status string `json:"status" validate:"required"`
}

type ResetResponse struct {
	Since              UnixMilli `json:"since"               validate:"required"`
	SubmissionsDeleted int64     `json:"submissions_deleted"`
}
