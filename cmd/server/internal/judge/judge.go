// Package judge talks to a Judge0 compatible code execution service.
package judge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/stegosaurus21/minicms-sub001/internal/logger"
)

//go:generate mockgen -destination ./mock/mock.go -package mock . Client

const name = "github.com/stegosaurus21/minicms-sub001/server/judge"

var tracer = otel.Tracer(name)

var ErrJudgeUnavailable = errors.New("judge unavailable")

// One test execution. Limits use the judge's units: seconds and kilobytes.
type Request struct {
	SourceCode     string  `json:"source_code"`
	Stdin          string  `json:"stdin"`
	ExpectedOutput string  `json:"expected_output"`
	CallbackURL    string  `json:"callback_url"`
	CPUTimeLimit   float64 `json:"cpu_time_limit"`
	LanguageID     int     `json:"language_id"`
	MemoryLimit    int     `json:"memory_limit"`
}

type Accepted struct {
	Token string `json:"token"`
}

type Client interface {
	Submit(ctx context.Context, req Request) (*Accepted, error)
}

// The judge refused a request. Fields holds its validation messages keyed by request field.
type DispatchError struct {
	Fields map[string][]string
	Status int
}

func (e *DispatchError) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("judge rejected submission with status %d", e.Status)
	}

	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(e.Fields[k], ", "))
	}

	return "judge rejected submission: " + strings.Join(parts, "; ")
}

// Merges field messages from several rejections
func JoinDispatchErrors(errs ...*DispatchError) *DispatchError {
	out := &DispatchError{Fields: map[string][]string{}}
	seen := map[string]map[string]struct{}{}

	for _, e := range errs {
		if e == nil {
			continue
		}
		if out.Status == 0 {
			out.Status = e.Status
		}
		for field, msgs := range e.Fields {
			if seen[field] == nil {
				seen[field] = map[string]struct{}{}
			}
			for _, m := range msgs {
				if _, ok := seen[field][m]; ok {
					continue
				}
				seen[field][m] = struct{}{}
				out.Fields[field] = append(out.Fields[field], m)
			}
		}
	}

	return out
}

// Flattens the messages for an HTTP error body
func (e *DispatchError) FieldMessages() map[string]string {
	out := make(map[string]string, len(e.Fields))
	for k, v := range e.Fields {
		out[k] = strings.Join(v, ", ")
	}
	return out
}

type HTTPClient struct {
	client    *retryablehttp.Client
	baseURL   *url.URL
	authToken string
}

var _ Client = (*HTTPClient)(nil)

func NewHTTPClient(
	baseURL string,
	authToken string,
	timeout time.Duration,
	retryMax int,
) (*HTTPClient, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse judge url: %w", err)
	}

	rc := retryablehttp.NewClient()
	rc.RetryMax = retryMax
	rc.RetryWaitMin = 100 * time.Millisecond
	rc.RetryWaitMax = 2 * time.Second
	rc.HTTPClient.Timeout = timeout
	rc.Logger = logger.Component("judge")
	// hand the last response back instead of a generic error so it can be decoded
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return &HTTPClient{client: rc, baseURL: u, authToken: authToken}, nil
}

func (c *HTTPClient) Submit(ctx context.Context, req Request) (*Accepted, error) {
	ctx, span := tracer.Start(ctx, "Submit", trace.WithAttributes(
		attribute.Int("language.id", req.LanguageID),
	))
	defer span.End()

	body, err := json.Marshal(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to encode request")
		return nil, err
	}

	target := c.baseURL.JoinPath("submissions")
	target.RawQuery = url.Values{"base64_encoded": {"false"}}.Encode()

	httpReq, err := retryablehttp.NewRequestWithContext(
		ctx,
		http.MethodPost,
		target.String(),
		bytes.NewReader(body),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to build request")
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.authToken != "" {
		httpReq.Header.Set("X-Auth-Token", c.authToken)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to reach judge")
		return nil, fmt.Errorf("%w: %w", ErrJudgeUnavailable, err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("status", resp.StatusCode))

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read judge response")
		return nil, fmt.Errorf("%w: %w", ErrJudgeUnavailable, err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		var accepted Accepted
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &accepted); err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, "failed to decode judge response")
				return nil, fmt.Errorf("failed to decode judge response: %w", err)
			}
		}

		span.SetStatus(codes.Ok, "accepted")
		return &accepted, nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		dispatchErr := &DispatchError{Status: resp.StatusCode, Fields: map[string][]string{}}
		if err := json.Unmarshal(raw, &dispatchErr.Fields); err != nil {
			dispatchErr.Fields = map[string][]string{"error": {strings.TrimSpace(string(raw))}}
		}

		span.RecordError(dispatchErr)
		span.SetStatus(codes.Error, "judge rejected submission")
		return nil, dispatchErr
	default:
		err := fmt.Errorf("%w: status %d", ErrJudgeUnavailable, resp.StatusCode)
		span.RecordError(err)
		span.SetStatus(codes.Error, "judge failed")
		return nil, err
	}
}
