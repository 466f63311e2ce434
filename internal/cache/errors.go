package cache

import (
	"fmt"
)

// NetworkError reports a transport failure or a non-success HTTP status.
type NetworkError struct {
	URL        string
	StatusCode int // zero for transport failures
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("network error fetching %s: unexpected status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("network error fetching %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// IOError reports a local disk failure while writing the cache.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("cache %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}
