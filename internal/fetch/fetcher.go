package fetch

import (
	"context"
	"io"

	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer(
	"github.com/stegosaurus21/minicms-sub001/internal/fetch",
)

//go:generate mockgen -destination ./mock/mock.go -package mock . Fetcher

// Fetcher reads objects (test inputs, expected outputs) by key.
type Fetcher interface {
	Fetch(ctx context.Context, key string) (io.ReadCloser, error)
}

// ReadAll fetches `key` and returns its whole content.
func ReadAll(ctx context.Context, f Fetcher, key string) ([]byte, error) {
	body, err := f.Fetch(ctx, key)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	return io.ReadAll(body)
}
