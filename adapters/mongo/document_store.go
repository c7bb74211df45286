// Package mongo stores documents in MongoDB, one Mongo collection per
// logical collection.
package mongo

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/pgocasting/ipatrollersys-sub002/domain/core"
	"github.com/pgocasting/ipatrollersys-sub002/domain/report"
	"github.com/pgocasting/ipatrollersys-sub002/internal/errors"
	"github.com/pgocasting/ipatrollersys-sub002/ports"
)

// DocumentStore implements ports.DocumentStore on a Mongo database.
type DocumentStore struct {
	db *mongo.Database
}

// Connect opens a client and pings it.
func Connect(ctx context.Context, uri, database string) (*DocumentStore, func(context.Context) error, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, errors.DatabaseError("failed to connect to mongo", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, nil, errors.DatabaseError("failed to ping mongo", err)
	}
	return NewDocumentStore(client.Database(database)), client.Disconnect, nil
}

// NewDocumentStore wraps an open database.
func NewDocumentStore(db *mongo.Database) *DocumentStore {
	return &DocumentStore{db: db}
}

func (s *DocumentStore) ListCollections(ctx context.Context) ([]string, error) {
	names, err := s.db.ListCollectionNames(ctx, bson.D{})
	if err != nil {
		return nil, errors.DatabaseError("failed to list collections", err)
	}
	sort.Strings(names)
	return names, nil
}

// GetAllDocuments returns documents in natural (insertion) order.
func (s *DocumentStore) GetAllDocuments(ctx context.Context, collection string) ([]ports.Document, error) {
	opts := options.Find().SetSort(bson.D{{Key: "$natural", Value: 1}})
	cur, err := s.db.Collection(collection).Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, errors.DatabaseError(fmt.Sprintf("failed to read collection %s", collection), err)
	}
	defer cur.Close(ctx)

	var docs []ports.Document
	for cur.Next(ctx) {
		var raw bson.M
		if err := cur.Decode(&raw); err != nil {
			return nil, fmt.Errorf("failed to decode document in %s: %w", collection, err)
		}
		id, data := split(raw)
		docs = append(docs, ports.Document{ID: id, Data: data})
	}
	if err := cur.Err(); err != nil {
		return nil, errors.DatabaseError(fmt.Sprintf("failed to iterate %s", collection), err)
	}
	return docs, nil
}

func (s *DocumentStore) GetDocument(ctx context.Context, collection, id string) (map[string]any, bool, error) {
	var raw bson.M
	err := s.db.Collection(collection).FindOne(ctx, idFilter(id)).Decode(&raw)
	if err == mongo.ErrNoDocuments {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.DatabaseError(fmt.Sprintf("failed to get %s/%s", collection, id), err)
	}
	_, data := split(raw)
	return data, true, nil
}

func (s *DocumentStore) WriteDocumentField(ctx context.Context, collection, id, field string, value any, meta ports.WriteMetadata) error {
	set := bson.M{field: value}
	if !meta.UpdatedAt.IsZero() {
		set[report.FieldUpdatedAt] = meta.UpdatedAt.UTC()
	}
	if meta.UpdatedBy != "" {
		set[report.FieldUpdatedBy] = meta.UpdatedBy
	}
	res, err := s.db.Collection(collection).UpdateOne(ctx, idFilter(id), bson.M{"$set": set})
	if err != nil {
		return errors.DatabaseError(fmt.Sprintf("failed to write %s/%s.%s", collection, id, field), err)
	}
	if res.MatchedCount == 0 {
		return core.NewNotFoundError(collection, id)
	}
	return nil
}

func (s *DocumentStore) DeleteDocument(ctx context.Context, collection, id string) error {
	res, err := s.db.Collection(collection).DeleteOne(ctx, idFilter(id))
	if err != nil {
		return errors.DatabaseError(fmt.Sprintf("failed to delete %s/%s", collection, id), err)
	}
	if res.DeletedCount == 0 {
		return core.NewNotFoundError(collection, id)
	}
	return nil
}

func (s *DocumentStore) BatchCreate(ctx context.Context, collection string, payloads []map[string]any) ([]string, error) {
	if len(payloads) == 0 {
		return nil, nil
	}
	ids := make([]string, 0, len(payloads))
	docs := make([]any, 0, len(payloads))
	for _, p := range payloads {
		id, _ := p[report.FieldID].(string)
		if id == "" {
			id = core.NewID().String()
		}
		doc := bson.M{"_id": id}
		for k, v := range p {
			doc[k] = v
		}
		ids = append(ids, id)
		docs = append(docs, doc)
	}
	if _, err := s.db.Collection(collection).InsertMany(ctx, docs, options.InsertMany().SetOrdered(true)); err != nil {
		return nil, errors.DatabaseError(fmt.Sprintf("failed to insert %d documents into %s", len(docs), collection), err)
	}
	return ids, nil
}

// idFilter matches string ids and, for legacy documents, ObjectIDs.
func idFilter(id string) bson.M {
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		return bson.M{"_id": bson.M{"$in": bson.A{id, oid}}}
	}
	return bson.M{"_id": id}
}

// split separates _id from the payload and converts BSON containers to
// plain maps and slices.
func split(raw bson.M) (string, map[string]any) {
	var id string
	switch v := raw["_id"].(type) {
	case string:
		id = v
	case primitive.ObjectID:
		id = v.Hex()
	default:
		id = fmt.Sprint(v)
	}
	delete(raw, "_id")
	return id, Plain(raw).(map[string]any)
}

// Plain converts decoded BSON values into the plain Go types the rest of
// the engine expects.
func Plain(v any) any {
	switch val := v.(type) {
	case bson.M:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = Plain(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = Plain(item)
		}
		return out
	case bson.D:
		out := make(map[string]any, len(val))
		for _, e := range val {
			out[e.Key] = Plain(e.Value)
		}
		return out
	case bson.A:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = Plain(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = Plain(item)
		}
		return out
	case primitive.DateTime:
		return val.Time().UTC()
	case primitive.Timestamp:
		return time.Unix(int64(val.T), 0).UTC()
	case primitive.ObjectID:
		return val.Hex()
	case int32:
		return float64(val)
	case int64:
		return float64(val)
	}
	return v
}

var _ ports.DocumentStore = (*DocumentStore)(nil)
