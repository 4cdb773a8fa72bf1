package handlers

import (
	"context"
	"io"

	"github.com/tbourn/video-feed-backend/internal/domain"
)

// ----- Fakes -----

type fakeIngest struct {
	got   []domain.Notification
	err   error
	calls int
	ctx   context.Context
}

func (f *fakeIngest) Ingest(ctx context.Context, n domain.Notification) (*domain.Video, error) {
	f.calls++
	f.ctx = ctx
	f.got = append(f.got, n)
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Video{ID: n.ID, FeedType: domain.FeedMain}, nil
}

type fakeFeed struct {
	doc string
	err error
}

func (f *fakeFeed) Render(_ context.Context, w io.Writer) error {
	if f.err != nil {
		return f.err
	}
	_, err := io.WriteString(w, f.doc)
	return err
}
