package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const sessionCollection = "sessions"

// MongoStore is a MongoDB-backed session store for multi-instance
// deployments. Expired sessions are removed server-side through a TTL
// index on expires_at, so Cleanup is a no-op.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoStore connects to MongoDB and prepares the session collection.
// The TTL index is created on first use; creating it again is a no-op.
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	coll := client.Database(database).Collection(sessionCollection)

	ttlIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "expires_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0),
	}
	if _, err := coll.Indexes().CreateOne(ctx, ttlIndex); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("create ttl index: %w", err)
	}

	return &MongoStore{client: client, coll: coll}, nil
}

func (s *MongoStore) Get(ctx context.Context, sessionID string) (*Session, error) {
	var sess Session
	err := s.coll.FindOne(ctx, bson.M{"_id": sessionID}).Decode(&sess)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find session: %w", err)
	}

	// The TTL monitor runs periodically, so an expired document can
	// still be present for up to a minute.
	if sess.IsExpired() {
		_ = s.Delete(ctx, sessionID)
		return nil, nil
	}
	return &sess, nil
}

func (s *MongoStore) Set(ctx context.Context, sess *Session) error {
	opts := options.Replace().SetUpsert(true)
	if _, err := s.coll.ReplaceOne(ctx, bson.M{"_id": sess.ID}, sess, opts); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

func (s *MongoStore) Delete(ctx context.Context, sessionID string) error {
	if _, err := s.coll.DeleteOne(ctx, bson.M{"_id": sessionID}); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Cleanup is a no-op; the TTL index removes expired sessions.
func (s *MongoStore) Cleanup(ctx context.Context) error {
	return nil
}

// Close disconnects from MongoDB.
func (s *MongoStore) Close(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

var _ Store = (*MongoStore)(nil)
