package services

import (
	"context"
	"fmt"
	"io"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/tbourn/video-feed-backend/internal/domain"
	"github.com/tbourn/video-feed-backend/internal/feed"
)

// FeedLimit is the number of records rendered into the public feed.
const FeedLimit = 20

// FeedService assembles the public feed from the record store.
type FeedService struct {
	Videos  VideoStore
	Channel feed.Channel
}

// NewFeedService returns a FeedService that renders ch over the records in v.
func NewFeedService(v VideoStore, ch feed.Channel) *FeedService {
	return &FeedService{Videos: v, Channel: ch}
}

// Items returns the latest FeedLimit records of the main feed, newest first,
// projected to feed items.
func (s *FeedService) Items(ctx context.Context) ([]feed.Item, error) {
	ctx, span := otel.Tracer("services/FeedService").Start(ctx, "Items")
	defer span.End()

	videos, err := s.Videos.LatestByFeed(ctx, domain.FeedMain, FeedLimit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "query")
		return nil, fmt.Errorf("%w: %w", ErrQuery, err)
	}

	items := make([]feed.Item, 0, len(videos))
	for _, v := range videos {
		items = append(items, ToItem(v))
	}
	span.SetAttributes(attribute.Int("feed.items", len(items)))
	return items, nil
}

// Render writes the MRSS document of the latest items to w. Nothing is
// written when the query fails.
func (s *FeedService) Render(ctx context.Context, w io.Writer) error {
	items, err := s.Items(ctx)
	if err != nil {
		return err
	}
	if err := feed.Render(w, s.Channel, items); err != nil {
		return fmt.Errorf("%w: %w", ErrRender, err)
	}
	feedItems.Observe(float64(len(items)))
	return nil
}

// ToItem projects a stored record onto its public feed entry.
func ToItem(v domain.Video) feed.Item {
	link := v.PostURI
	if link == "" {
		link = v.VideoURI
	}
	return feed.Item{
		Title:        feed.Title(v.Body, v.ID),
		Body:         v.Body,
		GUID:         v.ID,
		PubDate:      feed.FormatPubDate(v.PublishedAt()),
		Link:         link,
		VideoURL:     v.VideoURI,
		ThumbnailURL: v.ThumbnailURI,
	}
}
