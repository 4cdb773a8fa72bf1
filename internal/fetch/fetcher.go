// Package fetch downloads remote assets over HTTP. Transport failures and
// non-2xx responses are reported as *Error so callers can classify them as
// bad upstream input.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/go-resty/resty/v2"
)

// ErrTooLarge is wrapped by *Error when a body exceeds the configured cap.
var ErrTooLarge = errors.New("asset exceeds size limit")

// Error describes a failed download. StatusCode is zero when the request
// never produced a response.
type Error struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Fetcher performs bounded GET requests. It is safe for concurrent use.
type Fetcher struct {
	client   *resty.Client
	maxBytes int64
}

// Options tune a Fetcher. Zero values fall back to defaults.
type Options struct {
	Timeout   time.Duration
	MaxBytes  int64
	UserAgent string
}

// New builds a Fetcher backed by a single resty client.
func New(opt Options) *Fetcher {
	if opt.Timeout <= 0 {
		opt.Timeout = 60 * time.Second
	}
	if opt.MaxBytes <= 0 {
		opt.MaxBytes = 512 << 20
	}
	if opt.UserAgent == "" {
		opt.UserAgent = "video-feed-backend/1.0"
	}
	client := resty.New().
		SetTimeout(opt.Timeout).
		SetRetryCount(0).
		SetHeader("User-Agent", opt.UserAgent).
		SetDoNotParseResponse(true)

	return &Fetcher{client: client, maxBytes: opt.MaxBytes}
}

// Get downloads uri and returns the full body. No retries are attempted.
func (f *Fetcher) Get(ctx context.Context, uri string) ([]byte, error) {
	resp, err := f.client.R().SetContext(ctx).Get(uri)
	if err != nil {
		return nil, &Error{URL: uri, Err: err}
	}
	body := resp.RawBody()
	defer func() { _ = body.Close() }()

	if !resp.IsSuccess() {
		_, _ = io.Copy(io.Discard, io.LimitReader(body, 64<<10))
		return nil, &Error{URL: uri, StatusCode: resp.StatusCode()}
	}

	data, err := io.ReadAll(io.LimitReader(body, f.maxBytes+1))
	if err != nil {
		return nil, &Error{URL: uri, Err: err}
	}
	if int64(len(data)) > f.maxBytes {
		return nil, &Error{URL: uri, Err: ErrTooLarge}
	}
	return data, nil
}
