package probe

import "sync/atomic"

var sessionCounter int64

// GetSessionID a process wide session ID
func GetSessionID() int64 {
	return atomic.AddInt64(&sessionCounter, 1)
}
