package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(Up0005, Down0005)
}

func Up0005(ctx context.Context, tx *sql.Tx) error {
	return execStatements(ctx, tx,
		statement{query: `
CREATE TABLE contest (
    id UUID PRIMARY KEY DEFAULT uuidv7_sub_ms(),
    name TEXT NOT NULL,
    end_time TIMESTAMP WITH TIME ZONE,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT current_timestamp,
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT current_timestamp
);`},
		statement{query: `
CREATE TABLE contest_challenge (
    id UUID PRIMARY KEY DEFAULT uuidv7_sub_ms(),
    contest_id UUID NOT NULL REFERENCES contest (id) ON DELETE CASCADE,
    challenge_id UUID NOT NULL REFERENCES challenge (id) ON DELETE CASCADE,
    position INTEGER NOT NULL,
    max_score DOUBLE PRECISION NOT NULL CHECK (max_score >= 0),
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT current_timestamp,
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT current_timestamp,
    UNIQUE (contest_id, challenge_id)
);`},
		statement{query: `
CREATE TABLE participant (
    id UUID PRIMARY KEY DEFAULT uuidv7_sub_ms(),
    contest_id UUID NOT NULL REFERENCES contest (id) ON DELETE CASCADE,
    user_id UUID NOT NULL REFERENCES app_user (id) ON DELETE CASCADE,
    joined_at TIMESTAMP WITH TIME ZONE NOT NULL,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT current_timestamp,
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT current_timestamp,
    UNIQUE (contest_id, user_id)
);`},
	)
}

func Down0005(ctx context.Context, tx *sql.Tx) error {
	return execStatements(ctx, tx,
		statement{query: `DROP TABLE participant;`},
		statement{query: `DROP TABLE contest_challenge;`},
		statement{query: `DROP TABLE contest;`},
	)
}
