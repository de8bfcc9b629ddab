package fetch

import (
	"context"
	"io"

	"github.com/minio/minio-go/v7"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Ensure MinioFetcher implements Fetcher interface.
var _ Fetcher = (*MinioFetcher)(nil)

// Minio (S3) backed fetcher
type MinioFetcher struct {
	client *minio.Client
	bucket string
}

func NewMinioFetcher(client *minio.Client, bucket string) *MinioFetcher {
	return &MinioFetcher{client: client, bucket: bucket}
}

func (m *MinioFetcher) Fetch(ctx context.Context, key string) (io.ReadCloser, error) {
	ctx, span := tracer.Start(ctx, "MinioFetcher.Fetch", trace.WithAttributes(
		attribute.String("bucket", m.bucket),
		attribute.String("key", key),
	))
	defer span.End()

	obj, err := m.client.GetObject(ctx, m.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get object")
		return nil, err
	}

	// GetObject is lazy, stat surfaces a missing key here instead of on first read
	if _, err := obj.Stat(); err != nil {
		_ = obj.Close()
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to stat object")
		return nil, err
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "fetched object")
	return obj, nil
}
