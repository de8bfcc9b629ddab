package audit

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/stegosaurus21/minicms-sub001/internal/logger"
	"github.com/stegosaurus21/minicms-sub001/internal/types"
)

// Context identifies who an audit event concerns
type Context struct {
	UserID    *string
	ContestID *string
}

var (
	outMu sync.Mutex
	out   io.Writer = os.Stdout
)

// SetOutput redirects audit events, returns the previous writer.
func SetOutput(w io.Writer) io.Writer {
	outMu.Lock()
	defer outMu.Unlock()

	prev := out
	out = w
	return prev
}

func newMessage(c Context, evt EventType, d Disposition) Message {
	return Message{
		UserID:        c.UserID,
		ContestID:     c.ContestID,
		LogContext:    logContext,
		SchemaVersion: schemaVersion,
		Disposition:   d,
		Type:          evt,
		Timestamp:     types.NewUnixMilli(time.Now().UTC()),
	}
}

func emit(evt EventType, event any) {
	evtStr, err := json.Marshal(event)
	if err != nil {
		logger.Logger.Error("could not serialize audit event", "event_type", evt, "error", err)
		return
	}

	outMu.Lock()
	defer outMu.Unlock()
	fmt.Fprintln(out, string(evtStr))
}

func LogSubmissionCreated(
	c Context,
	submissionID string,
	challengeID string,
	languageID int,
	sourceSHA256 string,
	testCount int,
	dispatch types.DispatchStatus,
) {
	d := DispositionNeutral
	if dispatch == types.DispatchPartial {
		d = DispositionBad
	}

	event := SubmissionCreated{Message: newMessage(c, EvtSubmissionCreated, d)}
	event.Event = SubmissionCreatedEvent{
		SubmissionID: submissionID,
		ChallengeID:  challengeID,
		LanguageID:   languageID,
		SourceSHA256: sourceSHA256,
		TestCount:    testCount,
		Dispatch:     dispatch,
	}

	emit(EvtSubmissionCreated, event)
}

func LogSubmissionScored(c Context, submissionID, challengeID string, score, maxScore float64) {
	d := DispositionNeutral
	switch {
	case score >= maxScore:
		d = DispositionGood
	case score <= 0:
		d = DispositionBad
	}

	event := SubmissionScored{Message: newMessage(c, EvtSubmissionScored, d)}
	event.Event = SubmissionScoredEvent{
		SubmissionID: submissionID,
		ChallengeID:  challengeID,
		Score:        score,
		MaxScore:     maxScore,
	}

	emit(EvtSubmissionScored, event)
}

func LogCallbackRejected(c Context, submissionID, test, reason string) {
	event := CallbackRejected{Message: newMessage(c, EvtCallbackRejected, DispositionBad)}
	event.Event = CallbackRejectedEvent{
		SubmissionID: submissionID,
		Test:         test,
		Reason:       reason,
	}

	emit(EvtCallbackRejected, event)
}

func LogSourceArchived(c Context, submissionID, bucketName, objectName string) {
	event := SourceArchived{Message: newMessage(c, EvtSourceArchived, DispositionNeutral)}
	event.Event = SourceArchivedEvent{
		SubmissionID: submissionID,
		BucketName:   bucketName,
		ObjectName:   objectName,
	}

	emit(EvtSourceArchived, event)
}

func LogSystemReset(c Context, since time.Time, submissionsDeleted int64) {
	event := SystemReset{Message: newMessage(c, EvtSystemReset, DispositionNeutral)}
	event.Event = SystemResetEvent{
		Since:              types.NewUnixMilli(since),
		SubmissionsDeleted: submissionsDeleted,
	}

	emit(EvtSystemReset, event)
}
