package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/abeer-rozba/vr-therapy-server/internal/domain"
)

// MongoResource keeps the whole session document as a single Mongo document,
// read in full and replaced in full per commit: the same contract as the
// file backend, just durable in a database. The document payload is the
// canonical JSON encoding rather than nested BSON because session ids are
// opaque client strings and may contain characters BSON keys reject.
type MongoResource struct {
	client *mongo.Client
	coll   *mongo.Collection
}

const sessionDocumentID = "sessions"

type sessionDocument struct {
	ID      string `bson:"_id"`
	Payload []byte `bson:"payload"`
}

func NewMongoConnection(uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = client.Ping(ctx, readpref.Primary())

	return client, nil
}

func NewMongoResource(client *mongo.Client, database string) *MongoResource {
	return &MongoResource{
		client: client,
		coll:   client.Database(database).Collection("session_store"),
	}
}

func (m *MongoResource) ReadAll(ctx context.Context) (map[string]*domain.SessionRecord, error) {
	var doc sessionDocument
	err := m.coll.FindOne(ctx, bson.M{"_id": sessionDocumentID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return map[string]*domain.SessionRecord{}, nil
	}
	if err != nil {
		return nil, err
	}

	var wrapper document
	if err := json.Unmarshal(doc.Payload, &wrapper); err != nil {
		return nil, fmt.Errorf("corrupt session document: %w", err)
	}
	if wrapper.Sessions == nil {
		wrapper.Sessions = map[string]*domain.SessionRecord{}
	}
	return wrapper.Sessions, nil
}

func (m *MongoResource) ReplaceAll(ctx context.Context, sessions map[string]*domain.SessionRecord) error {
	raw, err := json.Marshal(document{Sessions: sessions})
	if err != nil {
		return err
	}

	opts := options.Replace().SetUpsert(true)
	_, err = m.coll.ReplaceOne(ctx, bson.M{"_id": sessionDocumentID}, sessionDocument{
		ID:      sessionDocumentID,
		Payload: raw,
	}, opts)
	return err
}

func (m *MongoResource) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}
