package audit

import (
	"bytes"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/stegosaurus21/minicms-sub001/internal/types"
)

func ptr[T any](v T) *T {
	return &v
}

func capture(t *testing.T, fn func()) string {
	var buf bytes.Buffer
	prev := SetOutput(&buf)
	t.Cleanup(func() { SetOutput(prev) })

	fn()

	return buf.String()
}

func TestLogSubmissionCreated(t *testing.T) {
	c := Context{UserID: ptr("user"), ContestID: ptr("contest")}

	got := capture(t, func() {
		LogSubmissionCreated(c, "sub", "chal", 71, "abc", 3, types.DispatchFull)
	})

	expect := regexp.MustCompile(
		`{"user_id":"user","contest_id":"contest","log_context":"audit","version":"\d\.\d\.\d","disposition":"neutral","event_type":"submission_created","timestamp":\d+,"event":{"submission_id":"sub","challenge_id":"chal","language_id":71,"source_sha256":"abc","test_count":3,"dispatch":"full"}}`,
	)
	assert.Regexp(t, expect, got)
}

func TestLogSubmissionCreatedPartial(t *testing.T) {
	got := capture(t, func() {
		LogSubmissionCreated(Context{}, "sub", "chal", 71, "abc", 3, types.DispatchPartial)
	})

	assert.Contains(t, got, `"disposition":"bad"`)
	assert.Contains(t, got, `"user_id":null`)
}

func TestLogSubmissionScored(t *testing.T) {
	c := Context{UserID: ptr("user"), ContestID: ptr("contest")}

	tests := []struct {
		name        string
		score       float64
		disposition string
	}{
		{name: "Full", score: 100, disposition: "good"},
		{name: "Partial", score: 62.5, disposition: "neutral"},
		{name: "Zero", score: 0, disposition: "bad"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := capture(t, func() {
				LogSubmissionScored(c, "sub", "chal", tt.score, 100)
			})
			assert.Contains(t, got, `"disposition":"`+tt.disposition+`"`)
			assert.Contains(t, got, `"event_type":"submission_scored"`)
		})
	}
}

func TestLogSystemReset(t *testing.T) {
	since := time.UnixMilli(1700000000000)
	got := capture(t, func() {
		LogSystemReset(Context{UserID: ptr("admin")}, since, 12)
	})

	expect := regexp.MustCompile(
		`"event_type":"system_reset","timestamp":\d+,"event":{"since":1700000000000,"submissions_deleted":12}}`,
	)
	assert.Regexp(t, expect, got)
}

func TestLogCallbackRejected(t *testing.T) {
	got := capture(t, func() {
		LogCallbackRejected(Context{}, "sub", "1-2", "stale")
	})

	assert.Contains(t, got, `"event":{"submission_id":"sub","test":"1-2","reason":"stale"}`)
}
