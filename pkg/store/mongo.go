package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	dferrors "github.com/matzehuels/dungeonforge/pkg/errors"
)

// Mongo defaults.
const (
	DefaultMongoDatabase   = "dungeonforge"
	DefaultMongoCollection = "simulations"
)

// MongoConfig locates the job collection.
type MongoConfig struct {
	URI        string
	Database   string
	Collection string
}

// MongoStore keeps jobs in a MongoDB collection. Expired jobs are removed
// by a TTL index on expiresAt.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoStore connects, pings and ensures the collection indexes.
func NewMongoStore(ctx context.Context, cfg MongoConfig) (*MongoStore, error) {
	if cfg.Database == "" {
		cfg.Database = DefaultMongoDatabase
	}
	if cfg.Collection == "" {
		cfg.Collection = DefaultMongoCollection
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, dferrors.Wrap(dferrors.ErrCodeStorage, err, "connect mongodb")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, dferrors.Wrap(dferrors.ErrCodeStorage, err, "ping mongodb")
	}

	s := &MongoStore{client: client, coll: client.Database(cfg.Database).Collection(cfg.Collection)}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return s, nil
}

func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "expiresAt", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		},
		{
			Keys: bson.D{{Key: "generatorId", Value: 1}, {Key: "createdAt", Value: -1}},
		},
	})
	if err != nil {
		return dferrors.Wrap(dferrors.ErrCodeStorage, err, "create indexes")
	}
	return nil
}

func (s *MongoStore) Get(ctx context.Context, id string) (*Record, error) {
	var r Record
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&r)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, dferrors.Wrap(dferrors.ErrCodeStorage, err, "get simulation %s", id)
	}
	// The TTL monitor runs once a minute; hide records it has not reached yet.
	if r.Expired() {
		return nil, ErrNotFound
	}
	return &r, nil
}

func (s *MongoStore) Put(ctx context.Context, r *Record) error {
	r.UpdatedAt = time.Now().UTC()
	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": r.ID}, r, options.Replace().SetUpsert(true))
	if err != nil {
		return dferrors.Wrap(dferrors.ErrCodeStorage, err, "put simulation %s", r.ID)
	}
	return nil
}

func (s *MongoStore) Delete(ctx context.Context, id string) error {
	if _, err := s.coll.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return dferrors.Wrap(dferrors.ErrCodeStorage, err, "delete simulation %s", id)
	}
	return nil
}

func (s *MongoStore) List(ctx context.Context, opts ListOptions) ([]*Record, error) {
	filter := bson.M{"expiresAt": bson.M{"$gt": time.Now().UTC()}}
	if opts.GeneratorID != "" {
		filter["generatorId"] = opts.GeneratorID
	}
	find := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}})
	if opts.Limit > 0 {
		find.SetLimit(int64(opts.Limit))
	}

	cur, err := s.coll.Find(ctx, filter, find)
	if err != nil {
		return nil, dferrors.Wrap(dferrors.ErrCodeStorage, err, "list simulations")
	}
	var out []*Record
	if err := cur.All(ctx, &out); err != nil {
		return nil, dferrors.Wrap(dferrors.ErrCodeStorage, err, "decode simulations")
	}
	return out, nil
}

func (s *MongoStore) Cleanup(ctx context.Context) (int, error) {
	res, err := s.coll.DeleteMany(ctx, bson.M{"expiresAt": bson.M{"$lte": time.Now().UTC()}})
	if err != nil {
		return 0, dferrors.Wrap(dferrors.ErrCodeStorage, err, "cleanup simulations")
	}
	return int(res.DeletedCount), nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	if err := s.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("disconnect mongodb: %w", err)
	}
	return nil
}

var _ Store = (*MongoStore)(nil)
