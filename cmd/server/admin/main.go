// minicms-admin manages the minicms database: migrations, users, languages and contests.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"go.opentelemetry.io/otel"

	"github.com/stegosaurus21/minicms-sub001/cmd/server/admin/cmds"
	"github.com/stegosaurus21/minicms-sub001/internal/logger"
	otelminicms "github.com/stegosaurus21/minicms-sub001/internal/otel"
)

var tracer = otel.Tracer("github.com/stegosaurus21/minicms-sub001/admin")

func runApp(ctx context.Context) int {
	useOTLP := os.Getenv("MINICMS_LOGGING_USE_OTLP") == "true"

	shutdown, err := otelminicms.SetupOTelSDK(ctx, "minicms-admin", useOTLP)
	if err != nil {
		logger.Logger.Warn("failed to setup otel sdk", "error", err)
	} else {
		defer func() {
			if fail := shutdown(context.Background()); fail != nil {
				logger.Logger.Warn("no clean shutdown for otel", "error", fail)
			}
		}()
	}

	ctx, span := tracer.Start(ctx, "Admin")
	defer span.End()

	if err := cmds.Execute(ctx); err != nil {
		logger.Logger.Error("error executing subcommands", "error", err)
		return 1
	}

	return 0
}

func main() {
	logger.LogLevel.Set(slog.LevelInfo)
	logger.InitSlog()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	code := runApp(ctx)
	cancel()

	os.Exit(code)
}
