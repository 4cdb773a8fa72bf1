// Package services – IngestService
//
// IngestService turns one content notification into one persisted video
// record. The steps run strictly in order:
//
//  1. download the video, 2. download the thumbnail,
//  3. upload the video, 4. upload the thumbnail,
//  5. parse the publish timestamp, 6. write the record.
//
// Any failure ends the run. Uploads that already succeeded are not rolled
// back; their blobs stay in the bucket without a record pointing at them.
//
// Observability: each step is a child span of "Ingest"; outcomes are counted
// in ingest_requests_total.
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/video-feed-backend/internal/domain"
	"github.com/tbourn/video-feed-backend/internal/storage"
)

// Asset kinds and their storage layout.
const (
	contentTypeVideo = "video/mp4"
	contentTypeThumb = "image/jpeg"

	videoPrefix = "videos"
	thumbPrefix = "thumb"
	videoExt    = "mp4"
	thumbExt    = "jpg"
)

// IngestService coordinates the fetch → upload → persist pipeline.
type IngestService struct {
	Fetcher AssetFetcher
	Blobs   BlobStore
	Videos  VideoStore

	// Now supplies upload timestamps for storage keys; defaults to time.Now.
	Now func() time.Time
}

// NewIngestService wires a pipeline from its three collaborators.
func NewIngestService(f AssetFetcher, b BlobStore, v VideoStore) *IngestService {
	return &IngestService{Fetcher: f, Blobs: b, Videos: v, Now: time.Now}
}

// Ingest runs the pipeline for n and returns the stored record.
//
// Errors:
//   - ErrFetch when either download fails (nothing has been written).
//   - ErrStorage when an upload or the record write fails.
//   - ErrParse when n.SentTime is not a valid ISO-8601 timestamp.
func (s *IngestService) Ingest(ctx context.Context, n domain.Notification) (*domain.Video, error) {
	tr := otel.Tracer("services/IngestService")
	ctx, span := tr.Start(ctx, "Ingest", trace.WithAttributes(attribute.String("video.id", n.ID)))
	defer span.End()

	lg := zerolog.Ctx(ctx).With().Str("video_id", n.ID).Logger()

	v, outcome, err := s.run(ctx, &lg, n)
	ingestTotal.WithLabelValues(outcome).Inc()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
		return nil, err
	}
	return v, nil
}

func (s *IngestService) run(ctx context.Context, lg *zerolog.Logger, n domain.Notification) (*domain.Video, string, error) {
	// 1–2) Both downloads must succeed before anything is written.
	videoData, err := s.fetch(ctx, "video", n.VideoURI)
	if err != nil {
		return nil, outcomeFetchFailed, err
	}
	lg.Info().Int("bytes", len(videoData)).Msg("downloaded video")

	thumbData, err := s.fetch(ctx, "thumbnail", n.ThumbURI)
	if err != nil {
		return nil, outcomeFetchFailed, err
	}
	lg.Info().Int("bytes", len(thumbData)).Msg("downloaded thumbnail")

	meta := map[string]string{storage.MetaOriginPostURI: n.PostURI}

	// 3) Video upload.
	videoKey := AssetKey(videoPrefix, n.ID, s.now(), videoExt)
	videoURI, err := s.upload(ctx, storage.Object{Key: videoKey, Data: videoData, ContentType: contentTypeVideo, Metadata: meta})
	if err != nil {
		return nil, outcomeStoreFailed, err
	}
	lg.Info().Str("key", videoKey).Msg("uploaded video")

	// 4) Thumbnail upload.
	thumbKey := AssetKey(thumbPrefix, n.ID, s.now(), thumbExt)
	thumbURI, err := s.upload(ctx, storage.Object{Key: thumbKey, Data: thumbData, ContentType: contentTypeThumb, Metadata: meta})
	if err != nil {
		lg.Warn().Str("orphaned_key", videoKey).Msg("thumbnail upload failed after video upload")
		return nil, outcomeStoreFailed, err
	}
	lg.Info().Str("key", thumbKey).Msg("uploaded thumbnail")

	// 5) Publish timestamp.
	sent, err := domain.ParseSentTime(n.SentTime)
	if err != nil {
		return nil, outcomeParseFailed, fmt.Errorf("%w: %w", ErrParse, err)
	}

	// 6) Record write.
	v := &domain.Video{
		ID:           n.ID,
		Body:         n.Body,
		SentTime:     domain.EpochSeconds(sent),
		State:        n.State,
		PostURI:      n.PostURI,
		ThumbnailURI: thumbURI,
		VideoURI:     videoURI,
		FeedType:     domain.FeedMain,
	}
	if err := s.persist(ctx, v); err != nil {
		return nil, outcomeStoreFailed, err
	}
	lg.Info().Msg("saved video metadata")

	return v, outcomeOK, nil
}

func (s *IngestService) fetch(ctx context.Context, kind, uri string) ([]byte, error) {
	ctx, span := otel.Tracer("services/IngestService").Start(ctx, "fetch "+kind,
		trace.WithAttributes(attribute.String("asset.uri", uri)))
	defer span.End()

	data, err := s.Fetcher.Get(ctx, uri)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("%w: %s: %w", ErrFetch, kind, err)
	}
	span.SetAttributes(attribute.Int("asset.bytes", len(data)))
	ingestAssetBytes.WithLabelValues(kind).Observe(float64(len(data)))
	return data, nil
}

func (s *IngestService) upload(ctx context.Context, obj storage.Object) (string, error) {
	ctx, span := otel.Tracer("services/IngestService").Start(ctx, "upload",
		trace.WithAttributes(
			attribute.String("blob.key", obj.Key),
			attribute.String("blob.content_type", obj.ContentType),
		))
	defer span.End()

	uri, err := s.Blobs.Put(ctx, obj)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("%w: upload %s: %w", ErrStorage, obj.Key, err)
	}
	return uri, nil
}

func (s *IngestService) persist(ctx context.Context, v *domain.Video) error {
	ctx, span := otel.Tracer("services/IngestService").Start(ctx, "persist")
	defer span.End()

	if err := s.Videos.Put(ctx, v); err != nil {
		span.RecordError(err)
		return fmt.Errorf("%w: save record %s: %w", ErrStorage, v.ID, err)
	}
	return nil
}

func (s *IngestService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// AssetKey builds "<prefix>/<id>_<UTC RFC3339Nano>.<ext>".
func AssetKey(prefix, id string, at time.Time, ext string) string {
	return fmt.Sprintf("%s/%s_%s.%s", prefix, id, at.UTC().Format(time.RFC3339Nano), ext)
}
