package dispatch

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrInvalidInput           = errors.New("invalid input")
	ErrLanguageDisabled       = errors.New("language disabled")
	ErrChallengeNotFound      = errors.New("challenge not found")
	ErrChallengeNotInContest  = errors.New("challenge not in contest")
	ErrChallengeMisconfigured = errors.New("challenge misconfigured")
	ErrNotParticipant         = errors.New("not a contest participant")
	ErrPersistence            = errors.New("persistence failure")
	ErrUnknownSubmission      = errors.New("submission not in flight")
)

// Rejected request fields. Matches ErrInvalidInput.
type InputError struct {
	Fields map[string]string
}

func (e *InputError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}

	return ErrInvalidInput.Error() + ": " + strings.Join(parts, "; ")
}

func (e *InputError) Is(target error) bool {
	return target == ErrInvalidInput
}
