package queue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azqueue"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Azure storage queues backed queuer
type AzureQueuer struct {
	az *azqueue.QueueClient
	// seconds a message lives before the queue drops it, nil uses the service default
	ttl *int32
}

var _ Queuer = (*AzureQueuer)(nil)

// `queueName` must exist in the storage account
func NewAzureQueuer(storageAccountName string,
	storageAccountKey string,
	queueServiceURL string,
	queueName string,
	ttl time.Duration,
) (*AzureQueuer, error) {
	azureCred, err := azqueue.NewSharedKeyCredential(storageAccountName, storageAccountKey)
	if err != nil {
		return nil, err
	}
	serviceClient, err := azqueue.NewServiceClientWithSharedKeyCredential(
		queueServiceURL,
		azureCred,
		&azqueue.ClientOptions{
			ClientOptions: policy.ClientOptions{
				Retry: policy.RetryOptions{
					MaxRetries: 5,
					RetryDelay: 500 * time.Millisecond,
				},
			},
		},
	)
	if err != nil {
		return nil, err
	}

	q := &AzureQueuer{az: serviceClient.NewQueueClient(queueName)}
	if ttl > 0 {
		secs := int32(ttl.Seconds())
		q.ttl = &secs
	}

	return q, nil
}

func (q *AzureQueuer) Enqueue(ctx context.Context, message any) error {
	ctx, span := tracer.Start(ctx, "AzureQueuer.Enqueue")
	defer span.End()

	msgJSON, err := json.Marshal(message)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to marshal message")
		return err
	}

	span.AddEvent("serialized_message", trace.WithAttributes(
		attribute.Int("length", len(msgJSON)),
	))

	_, err = q.az.EnqueueMessage(ctx, string(msgJSON), &azqueue.EnqueueMessageOptions{
		TimeToLive: q.ttl,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to enqueue message")
		return err
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "enqueued message")
	return nil
}
