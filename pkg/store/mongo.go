package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/michaelzixizhou/codag/pkg/errors"
)

const layoutsCollection = "layouts"

// MongoStore persists layouts in a MongoDB collection, one document per
// snapshot hash.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoStore connects to MongoDB and prepares the layouts collection.
// database defaults to "codag" when empty.
func NewMongoStore(ctx context.Context, url, database string) (*MongoStore, error) {
	if database == "" {
		database = "codag"
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(url))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "connect to mongo")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "ping mongo")
	}

	coll := client.Database(database).Collection(layoutsCollection)
	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "hash", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "create layouts index")
	}
	return &MongoStore{client: client, coll: coll}, nil
}

// Save upserts a record by snapshot hash.
func (s *MongoStore) Save(ctx context.Context, rec *Record) error {
	if rec == nil || rec.Hash == "" {
		return errors.New(errors.ErrCodeInvalidInput, "record must have a hash")
	}
	cp := *rec
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now()
	}
	_, err := s.coll.ReplaceOne(ctx,
		bson.M{"hash": cp.Hash},
		cp,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "save layout %s", cp.Hash)
	}
	return nil
}

// Get retrieves the record for a snapshot hash.
func (s *MongoStore) Get(ctx context.Context, hash string) (*Record, error) {
	var rec Record
	err := s.coll.FindOne(ctx, bson.M{"hash": hash}).Decode(&rec)
	if err == mongo.ErrNoDocuments {
		return nil, errors.New(errors.ErrCodeLayoutNotFound, "no layout for snapshot %s", hash)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "load layout %s", hash)
	}
	return &rec, nil
}

// Latest retrieves the most recently saved record.
func (s *MongoStore) Latest(ctx context.Context) (*Record, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})
	var rec Record
	err := s.coll.FindOne(ctx, bson.M{}, opts).Decode(&rec)
	if err == mongo.ErrNoDocuments {
		return nil, errors.New(errors.ErrCodeLayoutNotFound, "store is empty")
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "load latest layout")
	}
	return &rec, nil
}

// Close disconnects from MongoDB.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

var _ Store = (*MongoStore)(nil)
