package judge

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrBadCallback = errors.New("malformed callback")

// What the judge PUTs back once a test has run
type Callback struct {
	Time          *string `json:"time"`
	Memory        *int64  `json:"memory"`
	CompileOutput *string `json:"compile_output"`
	Token         string  `json:"token"`
	Status        Status  `json:"status"`
}

type Status struct {
	Description string `json:"description"`
	ID          int    `json:"id"`
}

// The parts of a callback URL that identify the test it reports on
type Target struct {
	DispatchedAt time.Time
	Submission   uuid.UUID
	Task         int
	Test         int
}

// {task}-{test}
func (t Target) TestSegment() string {
	return strconv.Itoa(t.Task) + "-" + strconv.Itoa(t.Test)
}

// Builds {publicURL}/judge/callback/{secret}/{submission}/{task}-{test}/{dispatchedAtMillis}/
func CallbackURL(publicURL string, secret string, t Target) (string, error) {
	u, err := url.Parse(publicURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse public url: %w", err)
	}

	u = u.JoinPath(
		"judge", "callback",
		secret,
		t.Submission.String(),
		t.TestSegment(),
		strconv.FormatInt(t.DispatchedAt.UnixMilli(), 10),
	)

	return u.String() + "/", nil
}

// Parses the path parameters of a callback URL
func ParseTarget(submission, test, timestamp string) (Target, error) {
	id, err := uuid.Parse(submission)
	if err != nil {
		return Target{}, fmt.Errorf("%w: submission: %w", ErrBadCallback, err)
	}

	taskStr, testStr, ok := strings.Cut(test, "-")
	if !ok {
		return Target{}, fmt.Errorf("%w: test segment %q", ErrBadCallback, test)
	}

	taskNum, err := strconv.Atoi(taskStr)
	if err != nil {
		return Target{}, fmt.Errorf("%w: task: %w", ErrBadCallback, err)
	}

	testNum, err := strconv.Atoi(testStr)
	if err != nil {
		return Target{}, fmt.Errorf("%w: test: %w", ErrBadCallback, err)
	}

	millis, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return Target{}, fmt.Errorf("%w: timestamp: %w", ErrBadCallback, err)
	}

	return Target{
		Submission:   id,
		Task:         taskNum,
		Test:         testNum,
		DispatchedAt: time.UnixMilli(millis),
	}, nil
}
