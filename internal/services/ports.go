package services

import (
	"context"

	"github.com/tbourn/video-feed-backend/internal/domain"
	"github.com/tbourn/video-feed-backend/internal/storage"
)

// AssetFetcher downloads the bytes behind a URI.
type AssetFetcher interface {
	Get(ctx context.Context, uri string) ([]byte, error)
}

// BlobStore writes an object and returns its public URI.
type BlobStore interface {
	Put(ctx context.Context, obj storage.Object) (string, error)
}

// VideoStore is the record store: single-record upserts and a descending
// time-ordered read per feed.
type VideoStore interface {
	Put(ctx context.Context, v *domain.Video) error
	LatestByFeed(ctx context.Context, feedType string, limit int) ([]domain.Video, error)
}
