package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/spigell/interview-coach/internal/interview"
)

const DefaultMongoCollection = "interview_sessions"

// sessionDocument stores the state as a JSON string so the document shape
// follows the JSON tags of interview.State.
type sessionDocument struct {
	ID        string    `bson:"_id"`
	State     string    `bson:"state"`
	Role      string    `bson:"role,omitempty"`
	Finished  bool      `bson:"finished"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

// MongoStore keeps states in a MongoDB collection.
type MongoStore struct {
	sessions *mongo.Collection
}

func NewMongoStore(db *mongo.Database, collection string) *MongoStore {
	if collection == "" {
		collection = DefaultMongoCollection
	}
	return &MongoStore{sessions: db.Collection(collection)}
}

func (m *MongoStore) Get(ctx context.Context, id string) (*interview.State, error) {
	var doc sessionDocument
	err := m.sessions.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("mongo find: %w", err)
	}

	return decodeState(id, doc.State)
}

func (m *MongoStore) Put(ctx context.Context, id string, state interview.State) error {
	if err := validID(id); err != nil {
		return err
	}

	data, err := encodeState(id, state)
	if err != nil {
		return err
	}

	doc := sessionDocument{
		ID:        id,
		State:     data,
		Role:      state.Role,
		Finished:  state.Finished,
		UpdatedAt: state.UpdatedAt.UTC(),
	}

	opts := options.Replace().SetUpsert(true)
	if _, err := m.sessions.ReplaceOne(ctx, bson.M{"_id": id}, doc, opts); err != nil {
		return fmt.Errorf("mongo replace: %w", err)
	}
	return nil
}

func (m *MongoStore) Delete(ctx context.Context, id string) error {
	if _, err := m.sessions.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("mongo delete: %w", err)
	}
	return nil
}
