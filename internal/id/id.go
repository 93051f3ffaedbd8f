// Package id mints trade identifiers.
//
// Identifiers are ULIDs: the leading 48 bits are the execution time in
// milliseconds, so sorting the journal by id sorts it by time.
package id

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	mu sync.Mutex
	// Monotonic keeps ids minted within the same millisecond ordered.
	entropy = ulid.Monotonic(rand.Reader, 0)
)

// New returns the identifier of a trade executed at t.
func New(t time.Time) string {
	mu.Lock()
	defer mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}
