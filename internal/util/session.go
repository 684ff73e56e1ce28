package util

import "sync/atomic"

// SessionCounter mints monotonically increasing session ids, unique within
// a single process lifetime, per spec.md's "session id: a monotonically
// increasing unique identifier for one open-and-use cycle".
type SessionCounter struct {
	next uint64
}

// Next returns the next session id. Safe for concurrent use.
func (c *SessionCounter) Next() uint64 {
	return atomic.AddUint64(&c.next, 1)
}
