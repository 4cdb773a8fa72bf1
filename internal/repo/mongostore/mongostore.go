// Package mongostore is the MongoDB record store backend. It stores one
// document per video keyed by the video ID and keeps a compound
// (feed_type asc, sent_time desc) index for the feed query.
package mongostore

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tbourn/video-feed-backend/internal/domain"
)

const feedIndexName = "idx_feed_type_sent_time"

// Connect dials uri, verifies connectivity, and returns the named database.
// The caller owns the client and must Disconnect it on shutdown.
func Connect(ctx context.Context, uri, database string) (*mongo.Database, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err = client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	log.Info().Str("db", database).Msg("mongodb connected")
	return client.Database(database), nil
}

// VideoStore implements the record store contract on a Mongo collection.
type VideoStore struct {
	col *mongo.Collection
}

// NewVideoStore binds a store to db.collection.
func NewVideoStore(db *mongo.Database, collection string) *VideoStore {
	if collection == "" {
		collection = domain.Video{}.TableName()
	}
	return &VideoStore{col: db.Collection(collection)}
}

// EnsureIndexes creates the feed ordering index if it is missing.
func (s *VideoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.col.Indexes().CreateOne(ctx, feedIndexModel())
	return err
}

// Put upserts v by ID, replacing any existing document.
func (s *VideoStore) Put(ctx context.Context, v *domain.Video) error {
	_, err := s.col.ReplaceOne(ctx, bson.M{"_id": v.ID}, v, options.Replace().SetUpsert(true))
	return err
}

// LatestByFeed returns up to limit videos of feedType, newest first.
func (s *VideoStore) LatestByFeed(ctx context.Context, feedType string, limit int) ([]domain.Video, error) {
	filter, opts := latestQuery(feedType, limit)

	cursor, err := s.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = cursor.Close(ctx)
	}()

	out := make([]domain.Video, 0)
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// latestQuery builds the filter and find options for LatestByFeed.
func latestQuery(feedType string, limit int) (bson.M, *options.FindOptions) {
	if limit <= 0 {
		limit = 20
	}
	opts := options.Find().
		SetSort(bson.D{
			{Key: "sent_time", Value: -1},
			{Key: "_id", Value: -1},
		}).
		SetLimit(int64(limit))
	return bson.M{"feed_type": feedType}, opts
}

func feedIndexModel() mongo.IndexModel {
	return mongo.IndexModel{
		Keys: bson.D{
			{Key: "feed_type", Value: 1},
			{Key: "sent_time", Value: -1},
		},
		Options: options.Index().SetName(feedIndexName),
	}
}
