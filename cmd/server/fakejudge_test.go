package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/stegosaurus21/minicms-sub001/cmd/server/internal/judge"
	"github.com/stegosaurus21/minicms-sub001/internal/types"
)

// Test inputs are named after their test, e.g. "2-1". A source containing "wrong:2-1" fails
// that test and "reject:2-1" makes the judge refuse it outright.
type fakeJudge struct {
	server *httptest.Server

	mu   sync.Mutex
	hold bool
	// callbacks not sent yet because hold was set
	held []sentCallback
	// every callback that reached the server, with its response code
	sent []sentCallback
	wg   sync.WaitGroup
}

type sentCallback struct {
	url  string
	body judge.Callback
	code int
}

func newFakeJudge() *fakeJudge {
	f := &fakeJudge{}

	e := echo.New()
	e.HideBanner = true
	e.POST("/submissions", f.submit)

	f.server = httptest.NewServer(e)
	return f
}

func (f *fakeJudge) URL() string {
	return f.server.URL
}

func (f *fakeJudge) Close() {
	f.wg.Wait()
	f.server.Close()
}

func (f *fakeJudge) submit(c echo.Context) error {
	var req judge.Request
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string][]string{"body": {err.Error()}})
	}

	if strings.Contains(req.SourceCode, "reject:"+req.Stdin) {
		return c.JSON(http.StatusUnprocessableEntity, map[string][]string{
			"source_code": {"refused by judge"},
		})
	}

	status := judge.Status{ID: 3, Description: types.StatusAccepted}
	if strings.Contains(req.SourceCode, "wrong:"+req.Stdin) {
		status = judge.Status{ID: 4, Description: types.StatusWrongAnswer}
	}

	elapsed := "0.01"
	memory := int64(1024)
	cb := sentCallback{
		url: req.CallbackURL,
		body: judge.Callback{
			Token:  uuid.NewString(),
			Time:   &elapsed,
			Memory: &memory,
			Status: status,
		},
	}

	f.mu.Lock()
	if f.hold {
		f.held = append(f.held, cb)
		f.mu.Unlock()
	} else {
		f.mu.Unlock()
		f.wg.Add(1)
		go func() {
			defer f.wg.Done()
			f.deliver(cb)
		}()
	}

	return c.JSON(http.StatusCreated, judge.Accepted{Token: cb.body.Token})
}

func (f *fakeJudge) deliver(cb sentCallback) int {
	raw, err := json.Marshal(cb.body)
	if err != nil {
		return 0
	}

	req, err := http.NewRequest(http.MethodPut, cb.url, bytes.NewReader(raw))
	if err != nil {
		return 0
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		return 0
	}
	res.Body.Close()

	cb.code = res.StatusCode
	f.mu.Lock()
	f.sent = append(f.sent, cb)
	f.mu.Unlock()

	return res.StatusCode
}

// Holds callbacks until release is called
func (f *fakeJudge) Hold() {
	f.mu.Lock()
	f.hold = true
	f.mu.Unlock()
}

// Sends every held callback synchronously and returns their response codes
func (f *fakeJudge) Release() []int {
	f.mu.Lock()
	held := f.held
	f.held = nil
	f.hold = false
	f.mu.Unlock()

	codes := make([]int, 0, len(held))
	for _, cb := range held {
		codes = append(codes, f.deliver(cb))
	}
	return codes
}

func (f *fakeJudge) Sent() []sentCallback {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]sentCallback, len(f.sent))
	copy(out, f.sent)
	return out
}

func (f *fakeJudge) Held() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.held)
}
