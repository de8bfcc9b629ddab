package models

import (
	"context"
	"fmt"

	"github.com/alexedwards/argon2id"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Permissions struct {
	Admin bool `json:"admin"`
}

type User struct {
	Username string
	Token    string // argon2id hash
	Model
	Admin  bool
	Active datatypes.Null[bool]
}

func (User) TableName() string {
	return "app_user"
}

func (u User) GetID() uuid.UUID {
	return u.ID
}

func (u User) Permissions() Permissions {
	return Permissions{Admin: u.Admin}
}

// Creates or replaces the user named `username`, hashing `token`. The user is left active.
func UpsertUser(
	ctx context.Context,
	db *gorm.DB,
	username string,
	token string,
	admin bool,
) (*User, error) {
	ctx, span := tracer.Start(ctx, "UpsertUser")
	defer span.End()

	span.SetAttributes(
		attribute.String("username", username),
		attribute.Bool("admin", admin),
	)

	db = db.WithContext(ctx)

	hash, err := argon2id.CreateHash(token, argon2id.DefaultParams)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "error creating hash for token")
		return nil, err
	}

	user := &User{
		Username: username,
		Token:    hash,
		Admin:    admin,
		Active:   NewNullFromData(true),
	}

	span.AddEvent("upserting user")
	result := db.Clauses(
		clause.OnConflict{
			Columns:   []clause.Column{{Name: "username"}},
			DoUpdates: clause.AssignmentColumns([]string{"token", "admin", "active"}),
		},
		clause.Returning{},
	).Create(user)
	if result.Error != nil {
		span.RecordError(result.Error)
		span.SetStatus(codes.Error, "failed to upsert user")
		return nil, fmt.Errorf("failed to upsert user: %w", result.Error)
	}

	span.SetAttributes(attribute.String("user.id", user.ID.String()))

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "upserted user")
	return user, nil
}

// Sets the active flag on a user by name
func SetUserActive(ctx context.Context, db *gorm.DB, username string, active bool) error {
	ctx, span := tracer.Start(ctx, "SetUserActive")
	defer span.End()

	db = db.WithContext(ctx)

	result := db.Model(&User{}).
		Where("username = ?", username).
		Update("active", active)
	if result.Error != nil {
		span.RecordError(result.Error)
		span.SetStatus(codes.Error, "failed to update user")
		return fmt.Errorf("failed to update user: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		span.SetStatus(codes.Error, "user not found")
		return gorm.ErrRecordNotFound
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "updated user")
	return nil
}
