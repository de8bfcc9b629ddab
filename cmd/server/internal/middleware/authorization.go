package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"reflect"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/stegosaurus21/minicms-sub001/cmd/server/internal/models"
	"github.com/stegosaurus21/minicms-sub001/internal/logger"
	"github.com/stegosaurus21/minicms-sub001/internal/types"
)

// Checks that all `needed` permissions are present on `has`
func hasPermission(
	ctx context.Context,
	needed *models.Permissions,
	has *models.Permissions,
	l *slog.Logger,
) bool {
	ctx, span := tracer.Start(ctx, "hasPermission")
	defer span.End()

	logger.Logger.DebugContext(ctx, "comparing permissions", "needed", *needed, "has", *has)

	// reflection so a new permission field is checked without touching this
	valNeeded := reflect.Indirect(reflect.ValueOf(needed))
	valHas := reflect.Indirect(reflect.ValueOf(has))

	typNeeded := valNeeded.Type()
	typHas := valHas.Type()

	if typNeeded != typHas {
		span.RecordError(nil)
		span.SetStatus(codes.Ok, "non matching types")
		return false
	}

	for i := range valNeeded.NumField() {
		fieldNeeded := valNeeded.Field(i)
		fieldHas := valHas.Field(i)

		if fieldNeeded.Kind() != reflect.Bool || fieldHas.Kind() != reflect.Bool {
			l.WarnContext(ctx, "non boolean fields on permissions skipping")
			continue
		}

		// if we need it but dont have
		if fieldNeeded.Bool() && !fieldHas.Bool() {
			l.DebugContext(ctx, "missing permission")
			span.RecordError(nil)
			span.SetStatus(codes.Ok, "missing permission")
			return false
		}
	}

	l.DebugContext(ctx, "granting access")
	span.RecordError(nil)
	span.SetStatus(codes.Ok, "granting access")
	return true
}

// The user stored under `authKey` must hold every permission set to true on `permissions`
func HasPermissions(authKey string, permissions *models.Permissions) echo.MiddlewareFunc {
	l := logger.Logger.With("authKey", authKey, "permissions", permissions)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx, span := tracer.Start(c.Request().Context(), "HasPermissions", trace.WithAttributes(
				attribute.String("authKey", authKey),
			))
			defer span.End()

			l.DebugContext(ctx, "getting user")
			user, ok := c.Get(authKey).(*models.User)
			if !ok {
				l.WarnContext(ctx, "failed to get user")
				span.RecordError(nil)
				span.SetStatus(codes.Error, "failed to get user")
				return echo.NewHTTPError(http.StatusUnauthorized, types.StringError("Unauthorized"))
			}

			has := user.Permissions()
			comparison := hasPermission(ctx, permissions, &has, l)
			if !comparison {
				span.RecordError(nil)
				span.SetStatus(codes.Ok, "unauthorized")
				return echo.NewHTTPError(http.StatusUnauthorized, types.StringError("Unauthorized"))
			}

			span.RecordError(nil)
			span.SetStatus(codes.Ok, "checked permissions")
			return next(c)
		}
	}
}
