package queue

import (
	"context"

	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer(
	"github.com/stegosaurus21/minicms-sub001/internal/queue",
)

//go:generate mockgen -destination ./mock/mock.go -package mock . Queuer

// Outbound message queue. Messages are JSON encoded.
type Queuer interface {
	// May block while queuing data
	Enqueue(ctx context.Context, message any) error
}

// Discard drops every message. Used when no queue is configured.
type Discard struct{}

var _ Queuer = Discard{}

func (Discard) Enqueue(context.Context, any) error { return nil }
