// Package services holds the ingestion pipeline and the feed assembler.
// This file centralizes the error classes returned by service methods so
// handlers can map them to HTTP status codes with errors.Is.
//
// Every failure is wrapped as fmt.Errorf("%w: ...", ErrX, cause), so both the
// class and the underlying cause survive.
package services

import "errors"

// Ingestion errors.
var (
	// ErrFetch indicates an asset could not be downloaded: a transport failure
	// or a non-2xx response from the source URI. It is a client-class failure.
	ErrFetch = errors.New("asset fetch failed")

	// ErrStorage indicates a blob upload or record write failed.
	ErrStorage = errors.New("storage write failed")

	// ErrParse indicates the notification's publish timestamp is malformed.
	ErrParse = errors.New("timestamp parse failed")
)

// Feed errors.
var (
	// ErrQuery indicates the record store query for the feed failed.
	ErrQuery = errors.New("feed query failed")

	// ErrRender indicates the feed document could not be rendered.
	ErrRender = errors.New("feed render failed")
)
