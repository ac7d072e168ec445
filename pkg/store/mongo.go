package store

import (
	"context"
	stderrors "errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/matzehuels/gradlayer/pkg/errors"
	"github.com/matzehuels/gradlayer/pkg/graph"
)

// DefaultCollection holds layout documents.
const DefaultCollection = "layouts"

// connectTimeout bounds the initial connect and ping.
const connectTimeout = 10 * time.Second

// MongoOptions configures a [MongoStore].
type MongoOptions struct {
	URI        string
	Database   string
	Collection string // DefaultCollection if empty
}

// MongoStore keeps layouts in a MongoDB collection, one document per
// layout with the layout id as _id.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoStore connects to MongoDB and pings the primary. An unparsable
// URI returns INVALID_CONFIG; an unreachable server returns INTERNAL_ERROR.
func NewMongoStore(ctx context.Context, opts MongoOptions) (*MongoStore, error) {
	if opts.Database == "" {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "mongo store requires a database name")
	}
	if opts.Collection == "" {
		opts.Collection = DefaultCollection
	}

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(opts.URI))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "connect mongo")
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "ping mongo")
	}
	return NewMongoStoreWithClient(client, opts.Database, opts.Collection), nil
}

// NewMongoStoreWithClient wraps an existing client. The store disconnects
// the client on Close.
func NewMongoStoreWithClient(client *mongo.Client, database, collection string) *MongoStore {
	return &MongoStore{
		client: client,
		coll:   client.Database(database).Collection(collection),
	}
}

// Put implements [Store]. Documents are upserted by id.
func (s *MongoStore) Put(ctx context.Context, l graph.Layout) error {
	if err := checkID(l.ID); err != nil {
		return err
	}
	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": l.ID}, l, options.Replace().SetUpsert(true))
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "store layout %s", l.ID)
	}
	return nil
}

// Get implements [Store].
func (s *MongoStore) Get(ctx context.Context, id string) (graph.Layout, error) {
	var l graph.Layout
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&l)
	if stderrors.Is(err, mongo.ErrNoDocuments) {
		return graph.Layout{}, errors.Wrap(errors.ErrCodeNotFound, err, "layout %q", id)
	}
	if err != nil {
		return graph.Layout{}, errors.Wrap(errors.ErrCodeInternal, err, "load layout %q", id)
	}
	return l, nil
}

// Delete implements [Store].
func (s *MongoStore) Delete(ctx context.Context, id string) error {
	if _, err := s.coll.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "delete layout %q", id)
	}
	return nil
}

// List implements [Store].
func (s *MongoStore) List(ctx context.Context, limit int) ([]string, error) {
	find := options.Find().
		SetProjection(bson.M{"_id": 1}).
		SetSort(bson.D{{Key: "_id", Value: 1}})
	if limit > 0 {
		find.SetLimit(int64(limit))
	}

	cur, err := s.coll.Find(ctx, bson.M{}, find)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "list layouts")
	}
	defer cur.Close(ctx)

	var docs []struct {
		ID string `bson:"_id"`
	}
	if err := cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "list layouts")
	}
	ids := make([]string, len(docs))
	for i, d := range docs {
		ids[i] = d.ID
	}
	return ids, nil
}

// Close implements [Store].
func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := s.client.Disconnect(ctx); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "disconnect mongo")
	}
	return nil
}
