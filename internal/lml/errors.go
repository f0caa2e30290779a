package lml

import "errors"

var (
	// ErrAPIStatus indicates the read API answered with a non-OK status.
	ErrAPIStatus = errors.New("unexpected API status")

	// ErrAuth indicates the session credential was rejected or has expired.
	ErrAuth = errors.New("authentication failed")

	// ErrTokenNotFound indicates the upload form did not contain an
	// authenticity token.
	ErrTokenNotFound = errors.New("authenticity token not found")
)
