package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"
)

var tracer = otel.Tracer(
	"github.com/stegosaurus21/minicms-sub001/cmd/server/internal/migrations",
)

// Migrations live in this package as Go files registered from init, so goose gets no directory.
const dir = "."

// Runs `op` against the raw connection under a span named `name`
func withSQL(ctx context.Context, db *gorm.DB, name string, op func(context.Context, *sql.DB) error) error {
	ctx, span := tracer.Start(ctx, name)
	defer span.End()

	rawDB, err := db.DB()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get raw connection")
		return err
	}

	if err := op(ctx, rawDB); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, name+" failed")
		return err
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, name+" done")
	return nil
}

// Applies every pending migration
func Up(ctx context.Context, db *gorm.DB) error {
	return withSQL(ctx, db, "Up", func(ctx context.Context, rawDB *sql.DB) error {
		return goose.UpContext(ctx, rawDB, dir)
	})
}

// Rolls back every migration, leaving an empty schema
func Down(ctx context.Context, db *gorm.DB) error {
	return withSQL(ctx, db, "Down", func(ctx context.Context, rawDB *sql.DB) error {
		return goose.DownToContext(ctx, rawDB, dir, 0)
	})
}

// Current schema version against the newest migration this binary knows
func Version(ctx context.Context, db *gorm.DB) (int64, int64, error) {
	var current, latest int64
	err := withSQL(ctx, db, "Version", func(ctx context.Context, rawDB *sql.DB) error {
		v, err := goose.GetDBVersionContext(ctx, rawDB)
		if err != nil {
			return err
		}

		known, err := goose.CollectMigrations(dir, 0, goose.MaxVersion)
		if err != nil {
			return err
		}
		last, err := known.Last()
		if err != nil {
			return err
		}

		current, latest = v, last.Version
		return nil
	})
	return current, latest, err
}

type statement struct {
	query string
	args  []any
}

func execStatements(ctx context.Context, tx *sql.Tx, statements ...statement) error {
	for _, statement := range statements {
		_, err := tx.ExecContext(ctx, statement.query, statement.args...)
		if err != nil {
			return err
		}
	}

	return nil
}
