package models

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// id is assigned by the judge
type Language struct {
	CreatedAt time.Time
	UpdatedAt time.Time
	Name      string
	ID        int `gorm:"primaryKey;autoIncrement:false"`
	Enabled   bool
}

func (Language) TableName() string {
	return "language"
}

// Creates the language or replaces its name and enabled flag
func UpsertLanguage(ctx context.Context, db *gorm.DB, lang *Language) error {
	ctx, span := tracer.Start(ctx, "UpsertLanguage")
	defer span.End()

	span.SetAttributes(
		attribute.Int("language.id", lang.ID),
		attribute.Bool("language.enabled", lang.Enabled),
	)

	result := db.WithContext(ctx).Clauses(
		clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "enabled"}),
		},
		clause.Returning{},
	).Create(lang)
	if result.Error != nil {
		span.RecordError(result.Error)
		span.SetStatus(codes.Error, "failed to upsert language")
		return fmt.Errorf("failed to upsert language: %w", result.Error)
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "upserted language")
	return nil
}
