package mongo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/pgocasting/ipatrollersys-sub002/internal/errors"
)

func TestSplit_ConvertsBSONTypes(t *testing.T) {
	oid := primitive.NewObjectID()
	at := time.Date(2025, 1, 15, 8, 0, 0, 0, time.UTC)
	raw := bson.M{
		"_id":  oid,
		"when": primitive.NewDateTimeFromTime(at),
		"actions": bson.A{
			bson.M{"what": "a", "count": int32(2)},
			bson.D{{Key: "what", Value: "b"}},
		},
	}

	id, data := split(raw)
	assert.Equal(t, oid.Hex(), id)
	assert.NotContains(t, data, "_id")
	assert.Equal(t, at, data["when"])

	actions, ok := data["actions"].([]any)
	if assert.True(t, ok) && assert.Len(t, actions, 2) {
		assert.Equal(t, map[string]any{"what": "a", "count": 2.0}, actions[0])
		assert.Equal(t, map[string]any{"what": "b"}, actions[1])
	}
}

func TestIDFilter(t *testing.T) {
	assert.Equal(t, bson.M{"_id": "2025-01"}, idFilter("2025-01"))

	hex := primitive.NewObjectID().Hex()
	f := idFilter(hex)
	in := f["_id"].(bson.M)["$in"].(bson.A)
	assert.Len(t, in, 2)
	assert.Equal(t, hex, in[0])
}

func TestDocumentStore_DriverFailuresCarryDatabaseCode(t *testing.T) {
	ctx := context.Background()
	// Nothing listens on port 1; server selection gives up quickly.
	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI("mongodb://127.0.0.1:1").
		SetServerSelectionTimeout(200*time.Millisecond))
	require.NoError(t, err)
	defer client.Disconnect(ctx)
	s := NewDocumentStore(client.Database("test"))

	_, _, err = s.GetDocument(ctx, "reports", "a")
	require.Error(t, err)
	assert.Equal(t, errors.CodeDatabaseError, errors.GetCode(err))

	_, err = s.GetAllDocuments(ctx, "reports")
	assert.Equal(t, errors.CodeDatabaseError, errors.GetCode(err))
}
