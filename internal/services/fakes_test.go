package services

import (
	"context"
	"sync"

	"github.com/tbourn/video-feed-backend/internal/domain"
	"github.com/tbourn/video-feed-backend/internal/storage"
)

// ----- Fakes -----

type fakeFetcher struct {
	mu     sync.Mutex
	assets map[string][]byte
	errs   map[string]error
	calls  []string
}

func (f *fakeFetcher) Get(_ context.Context, uri string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, uri)
	if err := f.errs[uri]; err != nil {
		return nil, err
	}
	return f.assets[uri], nil
}

type fakeBlobs struct {
	puts  []storage.Object
	errAt int // 1-based index of the Put that fails; 0 never fails
	err   error
}

func (b *fakeBlobs) Put(_ context.Context, obj storage.Object) (string, error) {
	b.puts = append(b.puts, obj)
	if b.errAt == len(b.puts) {
		return "", b.err
	}
	return "https://blobs.test/" + obj.Key, nil
}

type fakeVideos struct {
	saved    []domain.Video
	putErr   error
	latest   []domain.Video
	queryErr error

	gotFeed  string
	gotLimit int
}

func (v *fakeVideos) Put(_ context.Context, rec *domain.Video) error {
	if v.putErr != nil {
		return v.putErr
	}
	v.saved = append(v.saved, *rec)
	return nil
}

func (v *fakeVideos) LatestByFeed(_ context.Context, feedType string, limit int) ([]domain.Video, error) {
	v.gotFeed, v.gotLimit = feedType, limit
	return v.latest, v.queryErr
}
