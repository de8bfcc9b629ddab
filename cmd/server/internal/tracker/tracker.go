// Package tracker counts outstanding judge callbacks per submission.
//
// Every channel handed out is single-shot: it is closed at most once and never sent on.
// Waiters dropped by Clear are abandoned, their channels stay open.
package tracker

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

var (
	ErrDuplicateSubmission = errors.New("submission already tracked")
	ErrUnknownSubmission   = errors.New("submission not tracked")
	ErrAlreadyAwaited      = errors.New("submission already has a waiter")
)

type entry struct {
	done      chan struct{}
	remaining int
	awaited   bool
	resolved  bool
}

type testKey struct {
	submission uuid.UUID
	task       int
	test       int
}

type Tracker struct {
	entries map[uuid.UUID]*entry
	tests   map[testKey]map[uint64]chan struct{}
	mu      sync.Mutex
	nextID  uint64
}

func New() *Tracker {
	return &Tracker{
		entries: make(map[uuid.UUID]*entry),
		tests:   make(map[testKey]map[uint64]chan struct{}),
	}
}

// Starts tracking `token` expecting `expected` callbacks
func (t *Tracker) Register(token uuid.UUID, expected int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.entries[token]; ok {
		return ErrDuplicateSubmission
	}

	t.entries[token] = &entry{
		remaining: expected,
		done:      make(chan struct{}),
	}

	return nil
}

// Returns a channel closed once every expected callback for `token` has been recorded. The
// channel is already closed if that happened before the call.
func (t *Tracker) AwaitCompletion(token uuid.UUID) (<-chan struct{}, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[token]
	if !ok {
		return nil, ErrUnknownSubmission
	}

	if e.awaited {
		return nil, ErrAlreadyAwaited
	}
	e.awaited = true

	if e.remaining <= 0 && !e.resolved {
		e.resolved = true
		close(e.done)
	}

	return e.done, nil
}

// Records one callback for `token`. done reports whether this call resolved the waiter.
// Calls after resolution are no-ops.
func (t *Tracker) RecordCallback(token uuid.UUID) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[token]
	if !ok {
		return false, ErrUnknownSubmission
	}

	if e.resolved {
		return false, nil
	}

	e.remaining--
	if e.remaining > 0 || !e.awaited {
		return false, nil
	}

	e.resolved = true
	close(e.done)

	return true, nil
}

// Remaining callbacks for `token`
func (t *Tracker) Remaining(token uuid.UUID) (int, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[token]
	if !ok {
		return 0, false
	}
	return e.remaining, true
}

// Drops a resolved entry so the map does not grow for the life of the process
func (t *Tracker) Forget(token uuid.UUID) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if e, ok := t.entries[token]; ok && e.resolved {
		delete(t.entries, token)
	}
}

// Stops tracking `token`. An outstanding completion waiter is abandoned, later callbacks for the
// token fail with ErrUnknownSubmission.
func (t *Tracker) Drop(token uuid.UUID) {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.entries, token)
}

// Returns a channel closed when the callback for (token, task, test) lands. Call release once
// the caller stops waiting, whether or not the channel fired.
func (t *Tracker) AwaitTest(token uuid.UUID, task, test int) (<-chan struct{}, func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := testKey{submission: token, task: task, test: test}
	id := t.nextID
	t.nextID++

	ch := make(chan struct{})
	waiters, ok := t.tests[key]
	if !ok {
		waiters = make(map[uint64]chan struct{})
		t.tests[key] = waiters
	}
	waiters[id] = ch

	release := func() {
		t.mu.Lock()
		defer t.mu.Unlock()

		waiters, ok := t.tests[key]
		if !ok {
			return
		}
		delete(waiters, id)
		if len(waiters) == 0 {
			delete(t.tests, key)
		}
	}

	return ch, release
}

// Wakes every waiter for (token, task, test)
func (t *Tracker) ResolveTest(token uuid.UUID, task, test int) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := testKey{submission: token, task: task, test: test}
	waiters := t.tests[key]
	for _, ch := range waiters {
		close(ch)
	}
	delete(t.tests, key)

	return len(waiters)
}

// Drops every entry and waiter without resolving them
func (t *Tracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.entries = make(map[uuid.UUID]*entry)
	t.tests = make(map[testKey]map[uint64]chan struct{})
}
