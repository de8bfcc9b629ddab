package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	srverr "github.com/stegosaurus21/minicms-sub001/cmd/server/internal/error"
)

func TestRequestTime(t *testing.T) {
	received := time.Date(2026, 3, 1, 11, 59, 59, 999_999_999, time.FixedZone("x", 3600))

	t.Run("Stamped", func(t *testing.T) {
		e := echo.New()
		var got time.Time
		e.GET("/", func(c echo.Context) error {
			var err error
			got, err = RequestTime(c)
			if err != nil {
				return err
			}
			return c.NoContent(http.StatusOK)
		}, StampRequestTime(func() time.Time { return received }))

		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, received.UTC().Truncate(time.Microsecond), got)
		assert.Equal(t, time.UTC, got.Location())
		assert.Equal(t, "2026-03-01T10:59:59.999999Z", rec.Header().Get(RequestTimeHeader))
	})

	t.Run("Missing", func(t *testing.T) {
		e := echo.New()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

		_, err := RequestTime(c)
		assert.ErrorIs(t, err, srverr.ErrTypeAssertMismatch)
	})
}
