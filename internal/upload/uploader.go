package upload

import (
	"bytes"
	"context"
	"io"
	"path"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/stegosaurus21/minicms-sub001/internal/hash"
)

var tracer = otel.Tracer(
	"github.com/stegosaurus21/minicms-sub001/internal/upload",
)

//go:generate mockgen -destination ./mock/mock.go -package mock . Uploader

// Generic object persistence interface
type Uploader interface {
	// Create / Overwrite object contents by `key`
	Upload(ctx context.Context, reader io.ReadSeeker, length int64, key string) error
	// Check if an object exists. Used to skip re-uploading identical content, not authoritative.
	//
	// May always return false
	Exists(ctx context.Context, key string) (bool, error)
	// Provide an identifier for where objects are being uploaded to. Useful for logging and auditing purposes.
	StoreIdentifier(ctx context.Context) (string, error)
}

// SourceKey is the content addressed object key for an archived submission source.
func SourceKey(digest string) string {
	return path.Join("sources", digest)
}

// ArchiveSource stores `source` under its sha256 digest unless an object with that digest
// already exists. Returns the object key.
func ArchiveSource(ctx context.Context, u Uploader, source string) (string, error) {
	ctx, span := tracer.Start(ctx, "ArchiveSource", trace.WithAttributes(
		attribute.Int("length", len(source)),
	))
	defer span.End()

	key := SourceKey(hash.Buffer([]byte(source)))
	span.SetAttributes(attribute.String("key", key))

	exists, err := u.Exists(ctx, key)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to check if source exists")
		return "", err
	}

	if exists {
		span.RecordError(nil)
		span.SetStatus(codes.Ok, "found existing source")
		return key, nil
	}

	err = u.Upload(ctx, bytes.NewReader([]byte(source)), int64(len(source)), key)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to upload source")
		return "", err
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "archived source")
	return key, nil
}
