package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Mongo implements Store on MongoDB. Batches are committed as ordered bulk
// writes inside a single transaction, which gives the per-batch atomicity the
// writer relies on.
type Mongo struct {
	client   *mongo.Client
	database *mongo.Database
}

// NewMongo connects with connection pooling and verifies the server is
// reachable before returning.
func NewMongo(ctx context.Context, uri, dbName string) (*Mongo, error) {
	clientOptions := options.Client().
		ApplyURI(uri).
		SetMaxPoolSize(50).
		SetMinPoolSize(5).
		SetMaxConnIdleTime(30 * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetConnectTimeout(10 * time.Second)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return &Mongo{
		client:   client,
		database: client.Database(dbName),
	}, nil
}

func (m *Mongo) Get(ctx context.Context, collection, id string) (map[string]interface{}, error) {
	var doc bson.M
	err := m.database.Collection(collection).FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document %s/%s: %w", collection, id, err)
	}
	return doc, nil
}

func (m *Mongo) CommitBatch(ctx context.Context, collection string, writes []Write) error {
	if len(writes) == 0 {
		return nil
	}

	models := make([]mongo.WriteModel, 0, len(writes))
	for _, w := range writes {
		id := w.ID
		if id == "" {
			id = uuid.NewString()
		}
		update := bson.M{
			"$set":         bson.M(w.Doc),
			"$currentDate": bson.M{IngestedAtField: true},
		}
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": id}).
			SetUpdate(update).
			SetUpsert(true))
	}

	session, err := m.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		opts := options.BulkWrite().SetOrdered(true)
		return m.database.Collection(collection).BulkWrite(sessCtx, models, opts)
	})
	if err != nil {
		return fmt.Errorf("batch write of %d documents to %s failed: %w", len(writes), collection, err)
	}
	return nil
}

func (m *Mongo) FindInRange(ctx context.Context, collection, field string, start, end time.Time) ([]string, error) {
	filter := bson.M{field: bson.M{"$gte": start, "$lt": end}}
	opts := options.Find().SetProjection(bson.M{"_id": 1})

	cursor, err := m.database.Collection(collection).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("range query on %s.%s failed: %w", collection, field, err)
	}
	defer cursor.Close(ctx)

	var ids []string
	for cursor.Next(ctx) {
		var doc struct {
			ID interface{} `bson:"_id"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		switch id := doc.ID.(type) {
		case string:
			ids = append(ids, id)
		case primitive.ObjectID:
			ids = append(ids, id.Hex())
		}
	}
	return ids, cursor.Err()
}

func (m *Mongo) Delete(ctx context.Context, collection, id string) error {
	// Documents written by other services may carry ObjectID keys.
	var key interface{} = id
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		key = oid
	}
	_, err := m.database.Collection(collection).DeleteOne(ctx, bson.M{"_id": key})
	if err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", collection, id, err)
	}
	return nil
}

// Ping checks whether the connection is still alive.
func (m *Mongo) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the underlying client.
func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}
