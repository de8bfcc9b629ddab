package upload

import (
	"context"
	"io"
	"time"

	"github.com/sethvargo/go-retry"
	"go.opentelemetry.io/otel/codes"
)

// Ensure RetryUploader implements Uploader interface.
var _ Uploader = (*RetryUploader)(nil)

// Meta uploader that wraps uploader operations in backoff loops
type RetryUploader struct {
	uploader Uploader
	backoff  func() retry.Backoff
}

func NewRetryUploaderBackoff(uploader Uploader, backoff func() retry.Backoff) *RetryUploader {
	return &RetryUploader{
		uploader: uploader,
		backoff:  backoff,
	}
}

// For non latency sensitive archiving
func NewRetryUploader(uploader Uploader) *RetryUploader {
	return NewRetryUploaderBackoff(uploader, func() retry.Backoff {
		b := retry.NewExponential(time.Second)
		b = retry.WithMaxDuration(time.Second*120, b)
		return b
	})
}

// every failure of op is retryable, the last one is returned once the backoff gives up
func (r *RetryUploader) do(ctx context.Context, spanName string, op func(context.Context) error) error {
	ctx, span := tracer.Start(ctx, spanName)
	defer span.End()

	attempt := 0
	err := retry.Do(ctx, r.backoff(), func(ctx context.Context) error {
		attempt++
		if err := op(ctx); err != nil {
			span.AddEvent("attempt_failed")
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "gave up retrying")
		return err
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "succeeded")
	return nil
}

func (r *RetryUploader) Exists(ctx context.Context, key string) (bool, error) {
	var exists bool
	err := r.do(ctx, "RetryUploader.Exists", func(ctx context.Context) error {
		var err error
		exists, err = r.uploader.Exists(ctx, key)
		return err
	})
	if err != nil {
		return false, err
	}

	return exists, nil
}

func (r *RetryUploader) StoreIdentifier(ctx context.Context) (string, error) {
	var ident string
	err := r.do(ctx, "RetryUploader.StoreIdentifier", func(ctx context.Context) error {
		var err error
		ident, err = r.uploader.StoreIdentifier(ctx)
		return err
	})
	if err != nil {
		return "", err
	}

	return ident, nil
}

func (r *RetryUploader) Upload(
	ctx context.Context,
	reader io.ReadSeeker,
	length int64,
	key string,
) error {
	return r.do(ctx, "RetryUploader.Upload", func(ctx context.Context) error {
		if _, err := reader.Seek(0, io.SeekStart); err != nil {
			return err
		}

		return r.uploader.Upload(ctx, reader, length, key)
	})
}
