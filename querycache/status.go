package querycache

import "time"

// Status is the lifecycle state of a cache entry.
type Status int

const (
	// StatusIdle: the key was never observed.
	StatusIdle Status = iota
	// StatusPending: a fetch is in flight.
	StatusPending
	StatusSuccess
	StatusError
	// StatusStale: invalidated, the next observation fetches.
	StatusStale
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusPending:
		return "pending"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	case StatusStale:
		return "stale"
	default:
		return "unknown"
	}
}

// Snapshot is what an observer sees for one key.
type Snapshot[T any] struct {
	Key       string
	Status    Status
	Data      T
	Err       error
	UpdatedAt time.Time
}

// OK reports whether the snapshot carries data.
func (s Snapshot[T]) OK() bool {
	return s.Status == StatusSuccess || (s.Status == StatusStale && s.Err == nil)
}

// Event is a status transition delivered to subscribers.
type Event struct {
	Key    string
	Status Status
	Err    error
	At     time.Time
}

// Info describes an entry for introspection.
type Info struct {
	Key        string
	Status     Status
	Generation uint64
	Fetches    uint64
	UpdatedAt  time.Time
	Err        error
}
