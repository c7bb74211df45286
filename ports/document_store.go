package ports

import (
	"context"
	"time"
)

// Document is one stored document: its id and decoded payload.
type Document struct {
	ID   string
	Data map[string]any
}

// WriteMetadata is stamped next to every field write.
type WriteMetadata struct {
	UpdatedAt time.Time
	UpdatedBy string
}

// DocumentStore is the shared document database. Collections hold
// schemaless documents; array fields are rewritten whole.
type DocumentStore interface {
	ListCollections(ctx context.Context) ([]string, error)
	// GetAllDocuments returns documents in a stable order.
	GetAllDocuments(ctx context.Context, collection string) ([]Document, error)
	// GetDocument returns found=false when the document does not exist.
	GetDocument(ctx context.Context, collection, id string) (data map[string]any, found bool, err error)
	// WriteDocumentField sets one top-level field. It fails with
	// core.ErrNotFound when the document does not exist.
	WriteDocumentField(ctx context.Context, collection, id, field string, value any, meta WriteMetadata) error
	DeleteDocument(ctx context.Context, collection, id string) error
	// BatchCreate inserts new documents and returns their ids in order.
	// A payload carrying a string "id" keeps it as the document id.
	BatchCreate(ctx context.Context, collection string, payloads []map[string]any) ([]string, error)
}
