package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/pgocasting/ipatrollersys-sub002/domain/core"
	"github.com/pgocasting/ipatrollersys-sub002/domain/report"
	"github.com/pgocasting/ipatrollersys-sub002/internal/errors"
	"github.com/pgocasting/ipatrollersys-sub002/ports"
)

// documentStore keeps every collection in one JSONB table. Insertion
// order is preserved through the seq column.
type documentStore struct {
	db *sqlx.DB
}

// NewDocumentStore creates a DocumentStore over the documents table.
func NewDocumentStore(db *sqlx.DB) ports.DocumentStore {
	return &documentStore{db: db}
}

type documentRow struct {
	ID   string `db:"id"`
	Data []byte `db:"data"`
}

// ListCollections returns the distinct collection names
func (s *documentStore) ListCollections(ctx context.Context) ([]string, error) {
	var names []string
	err := s.db.SelectContext(ctx, &names, `SELECT DISTINCT collection FROM documents ORDER BY collection`)
	if err != nil {
		return nil, errors.DatabaseError("failed to list collections", err)
	}
	return names, nil
}

// GetAllDocuments returns a collection in insertion order
func (s *documentStore) GetAllDocuments(ctx context.Context, collection string) ([]ports.Document, error) {
	var rows []documentRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT id, data FROM documents WHERE collection = $1 ORDER BY seq`, collection)
	if err != nil {
		return nil, errors.DatabaseError(fmt.Sprintf("failed to read collection %s", collection), err)
	}

	docs := make([]ports.Document, 0, len(rows))
	for _, row := range rows {
		data, err := decode(row.Data)
		if err != nil {
			return nil, fmt.Errorf("failed to decode %s/%s: %w", collection, row.ID, err)
		}
		docs = append(docs, ports.Document{ID: row.ID, Data: data})
	}
	return docs, nil
}

// GetDocument retrieves one document
func (s *documentStore) GetDocument(ctx context.Context, collection, id string) (map[string]any, bool, error) {
	var rows []documentRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT id, data FROM documents WHERE collection = $1 AND id = $2`, collection, id)
	if err != nil {
		return nil, false, errors.DatabaseError(fmt.Sprintf("failed to get %s/%s", collection, id), err)
	}
	if len(rows) == 0 {
		return nil, false, nil
	}
	data, err := decode(rows[0].Data)
	if err != nil {
		return nil, false, fmt.Errorf("failed to decode %s/%s: %w", collection, id, err)
	}
	return data, true, nil
}

// WriteDocumentField merges one top-level field and the write metadata
// into the stored document
func (s *documentStore) WriteDocumentField(ctx context.Context, collection, id, field string, value any, meta ports.WriteMetadata) error {
	patch := map[string]any{field: value}
	if !meta.UpdatedAt.IsZero() {
		patch[report.FieldUpdatedAt] = meta.UpdatedAt.UTC().Format(time.RFC3339Nano)
	}
	if meta.UpdatedBy != "" {
		patch[report.FieldUpdatedBy] = meta.UpdatedBy
	}
	patchJSON, err := json.Marshal(patch)
	if err != nil {
		return fmt.Errorf("failed to marshal field %s: %w", field, err)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE documents
		SET data = data || $3::jsonb, updated_at = NOW(), updated_by = NULLIF($4, '')
		WHERE collection = $1 AND id = $2`,
		collection, id, patchJSON, meta.UpdatedBy)
	if err != nil {
		return errors.DatabaseError(fmt.Sprintf("failed to write %s/%s.%s", collection, id, field), err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.DatabaseError(fmt.Sprintf("failed to check write of %s/%s", collection, id), err)
	}
	if n == 0 {
		return core.NewNotFoundError(collection, id)
	}
	return nil
}

// DeleteDocument removes one document
func (s *documentStore) DeleteDocument(ctx context.Context, collection, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE collection = $1 AND id = $2`, collection, id)
	if err != nil {
		return errors.DatabaseError(fmt.Sprintf("failed to delete %s/%s", collection, id), err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.DatabaseError(fmt.Sprintf("failed to check delete of %s/%s", collection, id), err)
	}
	if n == 0 {
		return core.NewNotFoundError(collection, id)
	}
	return nil
}

// BatchCreate inserts all payloads in one transaction
func (s *documentStore) BatchCreate(ctx context.Context, collection string, payloads []map[string]any) ([]string, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, errors.DatabaseError("failed to begin batch", err)
	}
	defer tx.Rollback()

	ids := make([]string, 0, len(payloads))
	for _, p := range payloads {
		id, _ := p[report.FieldID].(string)
		if id == "" {
			id = core.NewID().String()
		}
		data, err := json.Marshal(p)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal document %s: %w", id, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO documents (collection, id, data)
			VALUES ($1, $2, $3::jsonb)
			ON CONFLICT (collection, id) DO UPDATE SET data = EXCLUDED.data, updated_at = NOW()`,
			collection, id, data)
		if err != nil {
			return nil, errors.DatabaseError(fmt.Sprintf("failed to insert %s/%s", collection, id), err)
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.DatabaseError("failed to commit batch", err)
	}
	return ids, nil
}

func decode(raw []byte) (map[string]any, error) {
	data := map[string]any{}
	if len(raw) == 0 {
		return data, nil
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, err
	}
	return data, nil
}
