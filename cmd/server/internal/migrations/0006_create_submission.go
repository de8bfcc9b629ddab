package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(Up0006, Down0006)
}

func Up0006(ctx context.Context, tx *sql.Tx) error {
	return execStatements(ctx, tx,
		statement{query: `
CREATE TYPE dispatch_status AS ENUM ('pending', 'full', 'partial');`},
		statement{query: `
CREATE TABLE submission (
    id UUID PRIMARY KEY DEFAULT uuidv7_sub_ms(),
    owner_id UUID NOT NULL REFERENCES app_user (id),
    contest_id UUID NOT NULL REFERENCES contest (id),
    challenge_id UUID NOT NULL REFERENCES challenge (id),
    language_id INTEGER NOT NULL REFERENCES language (id),
    source TEXT NOT NULL,
    source_sha256 TEXT NOT NULL,
    submitted_at TIMESTAMP WITH TIME ZONE NOT NULL,
    dispatched_at TIMESTAMP WITH TIME ZONE,
    dispatch dispatch_status NOT NULL DEFAULT 'pending',
    score DOUBLE PRECISION,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT current_timestamp,
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT current_timestamp
);`},
		statement{query: `
CREATE INDEX submission_contest_owner_challenge_index
    ON submission (contest_id, owner_id, challenge_id);`},
		statement{query: `
CREATE TABLE test_outcome (
    id UUID PRIMARY KEY DEFAULT uuidv7_sub_ms(),
    submission_id UUID NOT NULL REFERENCES submission (id) ON DELETE CASCADE,
    task_number INTEGER NOT NULL,
    test_number INTEGER NOT NULL,
    judge_token TEXT NOT NULL,
    time TEXT NOT NULL,
    memory BIGINT NOT NULL,
    status TEXT NOT NULL,
    compile_output TEXT NOT NULL,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT current_timestamp,
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT current_timestamp,
    UNIQUE (submission_id, task_number, test_number)
);`},
	)
}

func Down0006(ctx context.Context, tx *sql.Tx) error {
	return execStatements(ctx, tx,
		statement{query: `DROP TABLE test_outcome;`},
		statement{query: `DROP TABLE submission;`},
		statement{query: `DROP TYPE dispatch_status;`},
	)
}
