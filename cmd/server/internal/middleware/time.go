package middleware

import (
	"fmt"
	"time"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	srverr "github.com/stegosaurus21/minicms-sub001/cmd/server/internal/error"
)

const (
	requestTimeKey    = "request_time"
	RequestTimeHeader = "X-Request-Time"
)

// Stamps every request with the time it was received. Submission and join times come from here.
// The stamp is truncated to what postgres stores and echoed back in X-Request-Time.
func StampRequestTime(now func() time.Time) echo.MiddlewareFunc {
	if now == nil {
		now = time.Now
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			t := now().UTC().Truncate(time.Microsecond)
			c.Set(requestTimeKey, t)
			c.Response().Header().Set(RequestTimeHeader, t.Format(time.RFC3339Nano))

			trace.SpanFromContext(c.Request().Context()).SetAttributes(
				attribute.Int64("request.time_ms", t.UnixMilli()),
			)
			return next(c)
		}
	}
}

// The time StampRequestTime recorded for this request
func RequestTime(c echo.Context) (time.Time, error) {
	t, ok := c.Get(requestTimeKey).(time.Time)
	if !ok {
		return time.Time{}, fmt.Errorf("request time: %w", srverr.ErrTypeAssertMismatch)
	}
	return t, nil
}
