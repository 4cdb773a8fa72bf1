// Package storage is the blob store used for downloaded assets. It talks to
// any S3-compatible endpoint (AWS S3, MinIO) through minio-go and derives the
// public URI under which each uploaded object is served.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/tbourn/video-feed-backend/internal/config"
)

// MetaOriginPostURI is the user-metadata key carrying the origin post URI.
const MetaOriginPostURI = "origin-post-uri"

// ErrNotConfigured is returned when the store has no client.
var ErrNotConfigured = errors.New("blob store client is not initialized")

// Object is a single blob write.
type Object struct {
	Key         string
	Data        []byte
	ContentType string
	Metadata    map[string]string
}

// BlobStore writes objects to one bucket.
type BlobStore struct {
	client    *minio.Client
	bucket    string
	region    string
	publicURL string
}

// New builds a BlobStore from cfg. When no static keys are configured the
// standard AWS credential chain (env, shared file, IAM role) is used.
func New(cfg config.S3Config) (*BlobStore, error) {
	var creds *credentials.Credentials
	if cfg.AccessKey != "" {
		creds = credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, cfg.SessionToken)
	} else {
		creds = credentials.NewChainCredentials([]credentials.Provider{
			&credentials.EnvAWS{},
			&credentials.FileAWSCredentials{},
			&credentials.IAM{},
		})
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  creds,
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize s3 client: %w", err)
	}
	return NewWithClient(client, cfg), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *minio.Client, cfg config.S3Config) *BlobStore {
	return &BlobStore{
		client:    client,
		bucket:    cfg.Bucket,
		region:    cfg.Region,
		publicURL: cfg.PublicBaseURL,
	}
}

// Bucket returns the target bucket name.
func (s *BlobStore) Bucket() string { return s.bucket }

// Put uploads obj and returns its public URI.
func (s *BlobStore) Put(ctx context.Context, obj Object) (string, error) {
	if s.client == nil {
		return "", ErrNotConfigured
	}
	_, err := s.client.PutObject(ctx, s.bucket, obj.Key, bytes.NewReader(obj.Data), int64(len(obj.Data)),
		minio.PutObjectOptions{
			ContentType:  obj.ContentType,
			UserMetadata: obj.Metadata,
		})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", obj.Key, err)
	}
	return s.PublicURL(obj.Key), nil
}

// PublicURL returns the URI an uploaded key is served from. The key is
// query-escaped as a single path segment.
func (s *BlobStore) PublicURL(key string) string {
	return PublicURL(s.publicURL, s.region, s.bucket, key)
}

// PublicURL formats https://s3.<region>.amazonaws.com/<bucket>/<escaped key>,
// or <base>/<bucket>/<escaped key> when base is set.
func PublicURL(base, region, bucket, key string) string {
	escaped := url.QueryEscape(key)
	if base != "" {
		return fmt.Sprintf("%s/%s/%s", strings.TrimRight(base, "/"), bucket, escaped)
	}
	return fmt.Sprintf("https://s3.%s.amazonaws.com/%s/%s", region, bucket, escaped)
}
