package transfer

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jaywantadh/chunkstore/internal/chunker"
)

// TransportError reports a request that never produced an HTTP response:
// connection refused, DNS failure, timeout, cancellation.
type TransportError struct {
	Op  string
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// StatusError reports a response from the store with a non-success status.
type StatusError struct {
	Op     string
	Code   int
	Reason string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %d %s: %s", e.Op, e.Code, http.StatusText(e.Code), e.Reason)
}

// IntegrityError reports chunk bytes returned by the store that do not
// belong to the requested address.
type IntegrityError struct {
	Address chunker.Address
	// Got is the address of the returned bytes. Zero when Size is wrong.
	Got chunker.Address
	// Size is the body length read, capped at ChunkSize+1 for oversized
	// bodies.
	Size int
}

func (e *IntegrityError) Error() string {
	if e.Size > chunker.ChunkSize {
		return fmt.Sprintf("chunk %s: store returned more than %d bytes", e.Address.Short(), chunker.ChunkSize)
	}
	if e.Size != chunker.ChunkSize {
		return fmt.Sprintf("chunk %s: store returned %d bytes, want %d", e.Address.Short(), e.Size, chunker.ChunkSize)
	}
	return fmt.Sprintf("chunk %s: returned content hashes to %s", e.Address.Short(), e.Got.Short())
}

// IsNotFound reports whether err is a StatusError for a missing chunk.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == http.StatusNotFound
}
