// mock_judge stands in for a Judge0 compatible judge during local development. It never runs
// code: a test is accepted when the source contains the expected output.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	slogecho "github.com/samber/slog-echo"
	"github.com/spf13/cobra"

	"github.com/stegosaurus21/minicms-sub001/cmd/mock_judge/routes"
	"github.com/stegosaurus21/minicms-sub001/internal/logger"
	"github.com/stegosaurus21/minicms-sub001/internal/validator"
)

var (
	listen    string
	authToken string
	delay     time.Duration
)

var rootCmd = &cobra.Command{
	Use:          "mock_judge",
	Short:        "Fake judge that answers submissions with callbacks",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		e := build(routes.NewHandler(delay))

		go func() {
			<-cmd.Context().Done()
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = e.Shutdown(ctx)
		}()

		logger.Logger.Info("mock judge listening", "address", listen)
		if err := e.Start(listen); err != nil && cmd.Context().Err() == nil {
			return err
		}
		return nil
	},
}

func build(h *routes.Handler) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	validate := validator.Create()
	e.Validator = &validate

	e.Use(slogecho.New(logger.Logger))

	submissions := e.Group("/submissions")
	if authToken != "" {
		submissions.Use(middleware.KeyAuthWithConfig(middleware.KeyAuthConfig{
			KeyLookup: "header:X-Auth-Token",
			Validator: func(key string, _ echo.Context) (bool, error) {
				return key == authToken, nil
			},
		}))
	}
	submissions.POST("", h.Submit)

	return e
}

func main() {
	logger.InitSlog()

	rootCmd.Flags().StringVar(&listen, "listen", ":2358", "Address to listen on")
	rootCmd.Flags().StringVar(&authToken, "token", "", "Required X-Auth-Token, unchecked when empty")
	rootCmd.Flags().DurationVar(&delay, "delay", 200*time.Millisecond, "Time before each callback")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	err := rootCmd.ExecuteContext(ctx)
	cancel()

	if err != nil {
		logger.Logger.Error("mock judge failed", "error", err)
		os.Exit(1)
	}
}
