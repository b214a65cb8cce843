// Package ratelimit implements the client-side sliding-window request scheduler.
// Every remote call goes through a Scheduler, which keeps at most
// RequestsPerMinute requests inside any trailing Window and retries
// capacity rejections (HTTP 429) after a fixed backoff.
package ratelimit

import (
	"context"
	"time"
)

// Window is the span of the sliding rate-limit window.
const Window = 60 * time.Second

// SafetyMargin is added to every capacity wait so the oldest entry has
// definitely left the window when the scheduler re-checks.
const SafetyMargin = 500 * time.Millisecond

// Entry is one issued request in a RequestLog.
type Entry struct {
	// ID identifies the entry so a rejected attempt can be removed again.
	ID string `json:"id"`

	// At is when the request was issued.
	At time.Time `json:"at"`
}

// RequestLog stores the timestamps of issued requests, oldest first.
type RequestLog interface {
	// Prune removes entries issued before cutoff.
	Prune(ctx context.Context, cutoff time.Time) error

	// Count returns the number of entries.
	Count(ctx context.Context) (int, error)

	// Oldest returns the oldest entry. ok is false when the log is empty.
	Oldest(ctx context.Context) (entry Entry, ok bool, err error)

	// Append records an issued request.
	Append(ctx context.Context, entry Entry) error

	// Remove deletes the entry with the given id. Unknown ids are ignored.
	Remove(ctx context.Context, id string) error
}

// MemoryLog is a process-local RequestLog.
// It is not safe for concurrent use; the Scheduler serialises access.
type MemoryLog struct {
	entries []Entry
}

// NewMemoryLog creates an empty in-memory request log.
func NewMemoryLog() *MemoryLog {
	return &MemoryLog{}
}

// Prune drops entries older than cutoff. Entries are kept in issue order,
// so pruning stops at the first entry still inside the window.
func (l *MemoryLog) Prune(_ context.Context, cutoff time.Time) error {
	i := 0
	for i < len(l.entries) && l.entries[i].At.Before(cutoff) {
		i++
	}
	l.entries = l.entries[i:]
	return nil
}

// Count returns the number of logged requests.
func (l *MemoryLog) Count(_ context.Context) (int, error) {
	return len(l.entries), nil
}

// Oldest returns the first logged request.
func (l *MemoryLog) Oldest(_ context.Context) (Entry, bool, error) {
	if len(l.entries) == 0 {
		return Entry{}, false, nil
	}
	return l.entries[0], true, nil
}

// Append adds a request to the end of the log.
func (l *MemoryLog) Append(_ context.Context, entry Entry) error {
	l.entries = append(l.entries, entry)
	return nil
}

// Remove deletes a logged request by id.
func (l *MemoryLog) Remove(_ context.Context, id string) error {
	for i := len(l.entries) - 1; i >= 0; i-- {
		if l.entries[i].ID == id {
			l.entries = append(l.entries[:i], l.entries[i+1:]...)
			return nil
		}
	}
	return nil
}

// Entries returns a copy of the log, oldest first.
func (l *MemoryLog) Entries() []Entry {
	return append([]Entry(nil), l.entries...)
}
