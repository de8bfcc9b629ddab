// Package storage builds the blob store clients selected by config.
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/redis/go-redis/v9"

	"github.com/stegosaurus21/minicms-sub001/internal/config"
	"github.com/stegosaurus21/minicms-sub001/internal/fetch"
	"github.com/stegosaurus21/minicms-sub001/internal/queue"
	"github.com/stegosaurus21/minicms-sub001/internal/upload"
)

const testDataCachePrefix = "minicms:testdata:"

// Blob store handles for the configured backend
type Storage struct {
	// Reads test inputs and expected outputs
	TestData fetch.Fetcher
	// Receives archived submission sources
	Archive upload.Uploader
}

func newMinioClient(cfg *config.MinioConfig) (*minio.Client, error) {
	return minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.SSLEnabled,
	})
}

func newAzureClient(cfg *config.AzureStorageConfig) (*azblob.Client, error) {
	cred, err := azblob.NewSharedKeyCredential(cfg.Name, cfg.Key)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize azure credentials: %w", err)
	}

	client, err := azblob.NewClientWithSharedKeyCredential(cfg.BlobURL, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize azure client: %w", err)
	}
	return client, nil
}

// Builds the fetcher and archive uploader for cfg.Storage. Test data reads go through redis
// when rdb is not nil.
func New(ctx context.Context, cfg *config.Config, rdb redis.UniversalClient) (*Storage, error) {
	var testData fetch.Fetcher
	var archive upload.Uploader

	switch cfg.Storage.Backend {
	case config.StorageBackendMinio:
		client, err := newMinioClient(cfg.Storage.Minio)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize minio client: %w", err)
		}

		archiveUploader := upload.NewMinioUploader(client, cfg.Storage.Archive)
		if err := archiveUploader.EnsureBucket(ctx); err != nil {
			return nil, fmt.Errorf("failed to ensure archive bucket: %w", err)
		}

		testData = fetch.NewMinioFetcher(client, cfg.Storage.TestData)
		archive = archiveUploader
	case config.StorageBackendAzure:
		client, err := newAzureClient(cfg.Storage.Azure)
		if err != nil {
			return nil, err
		}

		azureFetcher, err := fetch.NewAzureFetcher(client, cfg.Storage.TestData)
		if err != nil {
			return nil, err
		}

		azureUploader, err := upload.NewAzureUploader(client, cfg.Storage.Archive)
		if err != nil {
			return nil, err
		}

		testData = azureFetcher
		archive = azureUploader
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}

	if rdb != nil {
		testData = fetch.NewCachedFetcher(testData, rdb, testDataCachePrefix, time.Hour)
	}

	return &Storage{
		TestData: testData,
		Archive:  upload.NewRetryUploader(archive),
	}, nil
}

// Score event queue, or a queue that drops everything when none is configured
func NewScoreQueue(cfg *config.Config) (queue.Queuer, error) {
	if cfg.Queue == nil || cfg.Queue.ScoreEvents == "" {
		return queue.Discard{}, nil
	}
	if cfg.Storage.Azure == nil || cfg.Storage.Azure.QueueURL == "" {
		return nil, fmt.Errorf("score event queue %q needs storage.azure.queue_url", cfg.Queue.ScoreEvents)
	}

	return queue.NewAzureQueuer(
		cfg.Storage.Azure.Name,
		cfg.Storage.Azure.Key,
		cfg.Storage.Azure.QueueURL,
		cfg.Queue.ScoreEvents,
		24*time.Hour,
	)
}
