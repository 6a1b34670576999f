// Package httpserver exposes the auction engine over HTTP.
//
// The core engine has no network surface of its own; this package wraps it
// with a chi router, request logging, health and drain endpoints, and a
// metrics server. Caller identity is taken from the X-Account header; the
// command surface performing real authentication sits in front of this
// server and is out of scope here.
package httpserver
