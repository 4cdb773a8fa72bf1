// Package handlers defines HTTP-layer error codes used across all endpoints.
//
// Codes are lowercase snake_case and give clients a stable, machine-readable
// taxonomy next to the human-readable message. Every error response carries
// one of them:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "fetch_failed",
//	  "message": "asset fetch failed: video: GET https://cdn.example/v.mp4: status 404"
//	}
package handlers

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeUnauthorized     = "unauthorized"
	ErrCodeNotFound         = "not_found"
	ErrCodeMethodNotAllowed = "method_not_allowed"
	ErrCodeRateLimited      = "too_many_requests"
	ErrCodeInternal         = "internal_error"

	// Domain-specific:
	ErrCodeFetchFailed  = "fetch_failed"
	ErrCodeIngestFailed = "ingest_failed"
	ErrCodeFeedFailed   = "feed_failed"
)
