package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/labstack/echo/v4"

	"github.com/stegosaurus21/minicms-sub001/internal/logger"
	"github.com/stegosaurus21/minicms-sub001/internal/types"
)

type SubmissionRequest struct {
	SourceCode     string  `json:"source_code"    validate:"required"`
	Stdin          string  `json:"stdin"`
	ExpectedOutput string  `json:"expected_output"`
	CallbackURL    string  `json:"callback_url"   validate:"required,url"`
	CPUTimeLimit   float64 `json:"cpu_time_limit" validate:"gte=0"`
	LanguageID     int     `json:"language_id"    validate:"required,gt=0"`
	MemoryLimit    int     `json:"memory_limit"   validate:"gte=0"`
}

type callbackStatus struct {
	Description string `json:"description"`
	ID          int    `json:"id"`
}

type Callback struct {
	Time          string         `json:"time"`
	Token         string         `json:"token"`
	Status        callbackStatus `json:"status"`
	CompileOutput *string        `json:"compile_output"`
	Memory        int64          `json:"memory"`
}

type Handler struct {
	client *retryablehttp.Client
	delay  time.Duration
	// in flight callbacks
	wg sync.WaitGroup
}

func NewHandler(delay time.Duration) *Handler {
	client := retryablehttp.NewClient()
	client.RetryMax = 3
	client.Logger = logger.Component("callback")

	return &Handler{client: client, delay: delay}
}

// Wait blocks until every scheduled callback was delivered or gave up
func (h *Handler) Wait() {
	h.wg.Wait()
}

// Judge0 reports validation failures as {field: [messages]}
func validationBody(err error) map[string][]string {
	out := map[string][]string{}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		out["body"] = []string{err.Error()}
		return out
	}

	for _, fieldError := range validationErrors {
		out[fieldError.Field()] = append(out[fieldError.Field()], "failed "+fieldError.Tag())
	}
	return out
}

func verdict(req SubmissionRequest) callbackStatus {
	expected := strings.TrimSpace(req.ExpectedOutput)
	if strings.Contains(req.SourceCode, expected) {
		return callbackStatus{ID: 3, Description: types.StatusAccepted}
	}
	return callbackStatus{ID: 4, Description: types.StatusWrongAnswer}
}

func (h *Handler) Submit(c echo.Context) error {
	var req SubmissionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, validationBody(err))
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, validationBody(err))
	}

	cb := Callback{
		Token:  uuid.NewString(),
		Time:   "0.001",
		Memory: 1024,
		Status: verdict(req),
	}

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		time.Sleep(h.delay)
		h.deliver(context.Background(), req.CallbackURL, cb)
	}()

	return c.JSON(http.StatusCreated, map[string]string{"token": cb.Token})
}

func (h *Handler) deliver(ctx context.Context, url string, cb Callback) {
	l := logger.Logger.With("token", cb.Token, "status", cb.Status.Description)

	raw, err := json.Marshal(cb)
	if err != nil {
		l.Error("failed to encode callback", "error", err)
		return
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(raw))
	if err != nil {
		l.Error("failed to build callback", "error", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := h.client.Do(req)
	if err != nil {
		l.Error("failed to deliver callback", "error", err)
		return
	}
	res.Body.Close()

	l.Info("delivered callback", "code", res.StatusCode)
}
