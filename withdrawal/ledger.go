package withdrawal

import (
	"math"
	"sort"
	"time"
)

// BackoffState schedules the next attempt of a request that did not fit.
type BackoffState struct {
	Attempt     int       `json:"attempt"`
	NextAttempt time.Time `json:"next_attempt"`
}

// LedgerEntry is a read-only view of one ledger key.
type LedgerEntry struct {
	File    string        `json:"file"`
	Retries int           `json:"retries,omitempty"`
	Backoff *BackoffState `json:"backoff,omitempty"`
}

// RetryLedger keeps per-file retry state in memory. A file has either a hard retry counter or a
// backoff state, never both. It is owned by the scheduler goroutine and is not synchronized.
type RetryLedger struct {
	maxRetries   int
	initialDelay time.Duration
	maxDelay     time.Duration

	retries map[string]int
	backoff map[string]*BackoffState
}

// NewRetryLedger creates a ledger. A zero maxDelay leaves the backoff unbounded.
func NewRetryLedger(maxRetries int, initialDelay, maxDelay time.Duration) *RetryLedger {
	return &RetryLedger{
		maxRetries:   maxRetries,
		initialDelay: initialDelay,
		maxDelay:     maxDelay,
		retries:      make(map[string]int),
		backoff:      make(map[string]*BackoffState),
	}
}

// Deferred reports whether the file is waiting for its backoff deadline.
func (l *RetryLedger) Deferred(name string, now time.Time) bool {
	state, ok := l.backoff[name]
	return ok && now.Before(state.NextAttempt)
}

// RecordRetry counts a hard failure. When the counter reaches the retry cap the entry is
// dropped and exhausted is true.
func (l *RetryLedger) RecordRetry(name string) (attempts int, exhausted bool) {
	delete(l.backoff, name)
	attempts = l.retries[name] + 1
	if attempts >= l.maxRetries {
		delete(l.retries, name)
		return attempts, true
	}
	l.retries[name] = attempts
	return attempts, false
}

// RecordDeferred arms the next backoff step and returns its delay: initialDelay * 2^(attempt-1).
func (l *RetryLedger) RecordDeferred(name string, now time.Time) time.Duration {
	delete(l.retries, name)
	state, ok := l.backoff[name]
	if !ok {
		state = &BackoffState{}
		l.backoff[name] = state
	}
	state.Attempt++
	delay := l.backoffDelay(state.Attempt)
	state.NextAttempt = now.Add(delay)
	return delay
}

func (l *RetryLedger) backoffDelay(attempt int) time.Duration {
	delay := time.Duration(math.MaxInt64)
	if shift := attempt - 1; shift < 62 && l.initialDelay <= time.Duration(math.MaxInt64>>shift) {
		delay = l.initialDelay << shift
	}
	if l.maxDelay > 0 && delay > l.maxDelay {
		delay = l.maxDelay
	}
	return delay
}

// RecordSuccess clears all state of the file.
func (l *RetryLedger) RecordSuccess(name string) {
	l.Forget(name)
}

func (l *RetryLedger) Forget(name string) {
	delete(l.retries, name)
	delete(l.backoff, name)
}

// Prune drops entries of files that are no longer in the inbox.
func (l *RetryLedger) Prune(present map[string]struct{}) {
	for name := range l.retries {
		if _, ok := present[name]; !ok {
			delete(l.retries, name)
		}
	}
	for name := range l.backoff {
		if _, ok := present[name]; !ok {
			delete(l.backoff, name)
		}
	}
}

func (l *RetryLedger) Reset() {
	clear(l.retries)
	clear(l.backoff)
}

func (l *RetryLedger) Len() int {
	return len(l.retries) + len(l.backoff)
}

// Entries returns a copy of the ledger sorted by file name.
func (l *RetryLedger) Entries() []LedgerEntry {
	entries := make([]LedgerEntry, 0, l.Len())
	for name, n := range l.retries {
		entries = append(entries, LedgerEntry{File: name, Retries: n})
	}
	for name, state := range l.backoff {
		s := *state
		entries = append(entries, LedgerEntry{File: name, Backoff: &s})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].File < entries[j].File })
	return entries
}
