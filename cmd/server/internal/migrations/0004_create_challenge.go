package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(Up0004, Down0004)
}

func Up0004(ctx context.Context, tx *sql.Tx) error {
	return execStatements(ctx, tx,
		statement{query: `
CREATE TABLE challenge (
    id UUID PRIMARY KEY DEFAULT uuidv7_sub_ms(),
    name TEXT NOT NULL UNIQUE,
    cpu_time_limit DOUBLE PRECISION NOT NULL,
    memory_limit INTEGER NOT NULL,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT current_timestamp,
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT current_timestamp
);`},
		statement{query: `
CREATE TYPE task_mode AS ENUM ('batch', 'individual');`},
		statement{query: `
CREATE TABLE challenge_task (
    id UUID PRIMARY KEY DEFAULT uuidv7_sub_ms(),
    challenge_id UUID NOT NULL REFERENCES challenge (id) ON DELETE CASCADE,
    number INTEGER NOT NULL,
    weight DOUBLE PRECISION NOT NULL CHECK (weight > 0),
    mode task_mode NOT NULL,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT current_timestamp,
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT current_timestamp,
    UNIQUE (challenge_id, number)
);`},
		statement{query: `
CREATE TABLE challenge_test (
    id UUID PRIMARY KEY DEFAULT uuidv7_sub_ms(),
    challenge_id UUID NOT NULL,
    task_number INTEGER NOT NULL,
    number INTEGER NOT NULL,
    input_key TEXT NOT NULL,
    output_key TEXT NOT NULL,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT current_timestamp,
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT current_timestamp,
    UNIQUE (challenge_id, task_number, number),
    FOREIGN KEY (challenge_id, task_number)
        REFERENCES challenge_task (challenge_id, number) ON DELETE CASCADE
);`},
	)
}

func Down0004(ctx context.Context, tx *sql.Tx) error {
	return execStatements(ctx, tx,
		statement{query: `DROP TABLE challenge_test;`},
		statement{query: `DROP TABLE challenge_task;`},
		statement{query: `DROP TYPE task_mode;`},
		statement{query: `DROP TABLE challenge;`},
	)
}
