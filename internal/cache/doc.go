// Package cache downloads package artifacts into a shared cache directory.
//
// # Cache keys
//
// Entries are keyed by a filename derived from the HTTP response, not by
// package name, so two packages that share an artifact URL share one cached
// download. The name comes from, in order of preference:
//   - the Content-Disposition header (extended filename*= form first, then filename=)
//   - the final path segment of the requested URL
//   - DefaultFilename
//
// The derived name is sanitized for the target platform before use.
//
// # Cache hits
//
// The request is issued before the cache is consulted, because the name is
// only known once headers arrive. When a file with the derived name already
// exists, its path is returned and the response body is closed unread.
//
// # Durability
//
// New downloads stream into a temporary file in the cache directory, are
// synced, and are renamed into place only once complete, so an interrupted
// download never leaves a truncated entry under the final name.
//
// Nothing here retries: a failed request or a failed write is returned to
// the caller as *NetworkError or *IOError.
package cache
