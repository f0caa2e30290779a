// Package lml talks to the LML content system.
//
// Client queries the public read API for existing gigs. Uploader drives the
// authenticated admin submission: it fetches the anti-forgery token from the
// upload form, posts the aggregated payload, and interprets the response
// without ever following redirects. Neither side retries; a failed request
// fails the whole batch.
package lml
