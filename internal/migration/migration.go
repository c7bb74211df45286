package migration

import (
	"context"

	"github.com/pgocasting/ipatrollersys-sub002/internal/errors"

	"github.com/jmoiron/sqlx"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner handles database schema migrations
type MigrationRunner struct {
	version string
}

// NewRunner creates a new migration runner
func NewRunner() *MigrationRunner {
	return &MigrationRunner{
		version: "1.1.0",
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Run executes all database migrations in order. Every step is idempotent.
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	for _, step := range r.Steps() {
		if _, err := db.ExecContext(ctx, step.SQL); err != nil {
			return errors.Wrapf(err, "failed to %s", step.Name)
		}
	}
	return nil
}

// Step is one named schema change.
type Step struct {
	Name string
	SQL  string
}

// Steps lists the schema changes in execution order.
func (r *MigrationRunner) Steps() []Step {
	return []Step{
		{Name: "create documents table", SQL: `
			CREATE TABLE IF NOT EXISTS documents (
				collection TEXT NOT NULL,
				id TEXT NOT NULL,
				data JSONB NOT NULL DEFAULT '{}'::jsonb,
				seq BIGSERIAL,
				created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
				PRIMARY KEY (collection, id)
			)
		`},
		{Name: "add documents.updated_by column", SQL: `
			DO $$
			BEGIN
				IF NOT EXISTS (
					SELECT 1 FROM information_schema.columns
					WHERE table_name = 'documents' AND column_name = 'updated_by'
				) THEN
					ALTER TABLE documents ADD COLUMN updated_by TEXT;
				END IF;
			END $$;
		`},
		{Name: "create documents order index", SQL: `CREATE INDEX IF NOT EXISTS idx_documents_collection_seq ON documents(collection, seq)`},
		{Name: "create documents department index", SQL: `CREATE INDEX IF NOT EXISTS idx_documents_department ON documents((data->>'department'))`},
	}
}
