package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/tbourn/video-feed-backend/internal/config"
)

type capturedPut struct {
	path        string
	contentType string
	meta        string
	body        []byte
}

// fakeS3 accepts PutObject calls and records them.
func fakeS3(t *testing.T, status int) (*httptest.Server, func() []capturedPut) {
	t.Helper()
	var (
		mu   sync.Mutex
		puts []capturedPut
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			w.Header().Set("Content-Type", "application/xml")
			_, _ = io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><LocationConstraint>us-east-1</LocationConstraint>`)
			return
		}
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		puts = append(puts, capturedPut{
			path:        r.URL.Path,
			contentType: r.Header.Get("Content-Type"),
			meta:        r.Header.Get("X-Amz-Meta-Origin-Post-Uri"),
			body:        body,
		})
		mu.Unlock()
		if status != http.StatusOK {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(status)
			_, _ = io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>AccessDenied</Code><Message>denied</Message></Error>`)
			return
		}
		w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)
	return srv, func() []capturedPut {
		mu.Lock()
		defer mu.Unlock()
		return append([]capturedPut(nil), puts...)
	}
}

func newTestStore(t *testing.T, srv *httptest.Server) *BlobStore {
	t.Helper()
	u, _ := url.Parse(srv.URL)
	client, err := minio.New(u.Host, &minio.Options{
		Creds:  credentials.NewStaticV4("key", "secret", ""),
		Secure: false,
		Region: "us-east-1",
	})
	if err != nil {
		t.Fatalf("minio.New: %v", err)
	}
	return NewWithClient(client, config.S3Config{Bucket: "media", Region: "us-east-1"})
}

func TestPut_UploadsWithContentTypeAndMetadata(t *testing.T) {
	srv, puts := fakeS3(t, http.StatusOK)
	store := newTestStore(t, srv)
	payload := []byte("fake-mp4-bytes")

	uri, err := store.Put(context.Background(), Object{
		Key:         "videos/v1.mp4",
		Data:        payload,
		ContentType: "video/mp4",
		Metadata:    map[string]string{MetaOriginPostURI: "https://origin/p/1"},
	})
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if uri != "https://s3.us-east-1.amazonaws.com/media/videos%2Fv1.mp4" {
		t.Fatalf("uri = %q", uri)
	}

	got := puts()
	if len(got) != 1 {
		t.Fatalf("expected 1 PUT, got %d", len(got))
	}
	p := got[0]
	if p.path != "/media/videos/v1.mp4" {
		t.Fatalf("path = %q", p.path)
	}
	if p.contentType != "video/mp4" {
		t.Fatalf("content-type = %q", p.contentType)
	}
	if p.meta != "https://origin/p/1" {
		t.Fatalf("metadata = %q", p.meta)
	}
	// Body may be aws-chunked framed; the payload must be carried verbatim.
	if !bytes.Contains(p.body, payload) {
		t.Fatalf("payload not found in request body: %q", p.body)
	}
}

func TestPut_ServerRejects(t *testing.T) {
	srv, _ := fakeS3(t, http.StatusForbidden)
	store := newTestStore(t, srv)

	_, err := store.Put(context.Background(), Object{Key: "thumb/v1.jpg", Data: []byte("x"), ContentType: "image/jpeg"})
	if err == nil || !strings.Contains(err.Error(), "thumb/v1.jpg") {
		t.Fatalf("expected wrapped upload error, got %v", err)
	}
}

func TestPut_NoClient(t *testing.T) {
	store := NewWithClient(nil, config.S3Config{Bucket: "b"})
	if _, err := store.Put(context.Background(), Object{Key: "k"}); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("err = %v, want ErrNotConfigured", err)
	}
}

func TestPublicURL(t *testing.T) {
	tests := []struct {
		name, base, region, bucket, key, want string
	}{
		{
			name: "aws formula escapes key", region: "eu-west-1", bucket: "b",
			key:  "videos/v1_2024-01-01T00:00:00.5Z.mp4",
			want: "https://s3.eu-west-1.amazonaws.com/b/videos%2Fv1_2024-01-01T00%3A00%3A00.5Z.mp4",
		},
		{
			name: "plus and space", region: "us-east-1", bucket: "b",
			key:  "thumb/a+b c.jpg",
			want: "https://s3.us-east-1.amazonaws.com/b/thumb%2Fa%2Bb+c.jpg",
		},
		{
			name: "public base override", base: "http://cdn.local/", region: "us-east-1", bucket: "b",
			key:  "thumb/x.jpg",
			want: "http://cdn.local/b/thumb%2Fx.jpg",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := PublicURL(tc.base, tc.region, tc.bucket, tc.key); got != tc.want {
				t.Fatalf("PublicURL = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestNew_BuildsClient(t *testing.T) {
	store, err := New(config.S3Config{Bucket: "b", Region: "us-east-1", Endpoint: "s3.amazonaws.com", UseSSL: true})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if store.Bucket() != "b" || store.client == nil {
		t.Fatalf("unexpected store: %+v", store)
	}
	if _, err := New(config.S3Config{Endpoint: "bad endpoint with spaces"}); err == nil {
		t.Fatalf("expected error for invalid endpoint")
	}
}
