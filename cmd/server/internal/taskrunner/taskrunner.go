package taskrunner

import (
	"context"
	"errors"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const name = "github.com/stegosaurus21/minicms-sub001/server/taskrunner"

var tracer = otel.Tracer(name)

var ErrShutdownTimeout = errors.New("error shutting down in time")

// Provides a wrapper around [sync.WaitGroup] that has [Shutdown] vs timeout racing functionality
type Client struct {
	stopping context.Context
	stop     context.CancelFunc
	running  sync.WaitGroup
}

func Create() *Client {
	stopping, stop := context.WithCancel(context.Background())
	return &Client{stopping: stopping, stop: stop}
}

// Invokes the provided function as a go routine while tracking its state.
// The task outlives `ctx` and is waited on by [Shutdown], bounded by the shutdown timeout.
func (c *Client) Run(ctx context.Context, name string, a func(context.Context)) {
	c.run(ctx, name, false, a)
}

// Like [Run] but the task's context is cancelled as soon as [Shutdown] starts. For tasks that
// wait on something external that will not arrive during shutdown.
func (c *Client) RunUntilShutdown(ctx context.Context, name string, a func(context.Context)) {
	c.run(ctx, name, true, a)
}

func (c *Client) run(ctx context.Context, taskName string, cancelOnStop bool, a func(context.Context)) {
	c.running.Add(1)
	go func() {
		defer c.running.Done()

		//nolint:govet // shadow: intentionally shadow ctx to avoid using the incorrect one.
		ctx, span := tracer.Start(ctx, "Run", trace.WithAttributes(
			attribute.String("task", taskName),
			attribute.Bool("cancelOnStop", cancelOnStop),
		))
		defer span.End()

		ctx = context.WithoutCancel(ctx)
		if cancelOnStop {
			var cancel context.CancelFunc
			ctx, cancel = context.WithCancel(ctx)
			defer cancel()

			unregister := context.AfterFunc(c.stopping, cancel)
			defer unregister()
		}

		a(ctx)

		span.RecordError(nil)
		span.SetStatus(codes.Ok, "ran task")
	}()
}

// Will race waiting for all of the tasks finishing and `ctx` becoming "done"
func (c *Client) Shutdown(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "Shutdown")
	defer span.End()

	c.stop()

	done := make(chan struct{})
	go func() {
		c.running.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		span.AddEvent("hit_timeout")
		span.RecordError(ErrShutdownTimeout)
		span.SetStatus(codes.Error, ErrShutdownTimeout.Error())
		return ErrShutdownTimeout
	case <-done:
		span.AddEvent("done")
		span.RecordError(nil)
		span.SetStatus(codes.Ok, "finished shutting down")
		return nil
	}
}
