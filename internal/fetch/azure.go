package fetch

import (
	"context"
	"errors"
	"io"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Ensure AzureFetcher implements Fetcher interface.
var _ Fetcher = (*AzureFetcher)(nil)

// Azure blob backed fetcher
type AzureFetcher struct {
	az *azblob.Client
	// `container` in the storage account where the objects are stored
	container string
}

// `container` must be part of the storage account of `client`
func NewAzureFetcher(client *azblob.Client, container string) (*AzureFetcher, error) {
	if container == "" {
		return nil, errors.New("container is required")
	}

	return &AzureFetcher{
		az:        client,
		container: container,
	}, nil
}

func (a *AzureFetcher) Fetch(ctx context.Context, key string) (io.ReadCloser, error) {
	ctx, span := tracer.Start(ctx, "AzureFetcher.Fetch", trace.WithAttributes(
		attribute.String("key", key),
	))
	defer span.End()

	res, err := a.az.DownloadStream(ctx, a.container, key, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch")
		return nil, err
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "fetched blob")
	return res.Body, nil
}
