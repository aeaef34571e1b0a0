package withdrawal

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// InboxEntry describes one inbox file as seen by the last scan.
type InboxEntry struct {
	File     string        `json:"file"`
	Modified time.Time     `json:"modified"`
	Retries  int           `json:"retries,omitempty"`
	Backoff  *BackoffState `json:"backoff,omitempty"`
}

// Status is the operator view of the engine, refreshed at the end of every scan.
type Status struct {
	Enabled        bool         `json:"enabled"`
	Inbox          []InboxEntry `json:"inbox"`
	PendingMoves   []string     `json:"pending_moves,omitempty"`
	ProcessedFiles int          `json:"processed_files"`
	ErrorFiles     int          `json:"error_files"`
	LastTick       *TickReport  `json:"last_tick,omitempty"`
}

func (e *Engine) publishStatus(files []inboxFile, report TickReport) {
	ledger := make(map[string]LedgerEntry, e.ledger.Len())
	for _, entry := range e.ledger.Entries() {
		ledger[entry.File] = entry
	}

	inbox := make([]InboxEntry, 0, len(files))
	for _, f := range files {
		entry := InboxEntry{File: f.name, Modified: f.modTime}
		if l, ok := ledger[f.name]; ok {
			entry.Retries = l.Retries
			entry.Backoff = l.Backoff
		}
		inbox = append(inbox, entry)
	}
	var pending []string
	for name := range e.pending {
		pending = append(pending, name)
	}
	sort.Strings(pending)
	e.lastTick = &report

	e.mu.Lock()
	e.status = &Status{
		Enabled:      e.enabled,
		Inbox:        inbox,
		PendingMoves: pending,
		LastTick:     e.lastTick,
	}
	e.mu.Unlock()
}

// Status returns the snapshot of the last scan with fresh processed and error folder counts. It
// is safe to call from any goroutine.
func (e *Engine) Status() Status {
	e.mu.RLock()
	cfg := e.config
	var st Status
	if e.status != nil {
		st = *e.status
	}
	e.mu.RUnlock()

	if cfg != nil && st.Enabled {
		counts := CountQueues(cfg)
		st.ProcessedFiles = counts.Processed
		st.ErrorFiles = counts.Error
	}
	return st
}

// QueueCounts is the number of request files in each queue folder.
type QueueCounts struct {
	Inbox     int `json:"inbox"`
	Processed int `json:"processed"`
	Error     int `json:"error"`
}

func CountQueues(cfg *Config) QueueCounts {
	return QueueCounts{
		Inbox:     countRequestFiles(cfg.InboxPath()),
		Processed: countRequestFiles(cfg.ProcessedPath()),
		Error:     countRequestFiles(cfg.ErrorPath()),
	}
}

// Requeue moves a request file from the error folder back to the inbox, where it starts with a
// fresh retry counter.
func (e *Engine) Requeue(name string) error {
	e.mu.RLock()
	cfg, enabled := e.config, e.enabled
	e.mu.RUnlock()
	if !enabled || cfg == nil {
		return ErrEngineUnavailable
	}

	if name == "" || name != filepath.Base(name) || !strings.EqualFold(filepath.Ext(name), ".json") {
		return ErrPayloadInvalid
	}
	src := filepath.Join(cfg.ErrorPath(), name)
	if _, err := os.Stat(src); err != nil {
		return ErrFileNotFound
	}
	if _, err := os.Stat(filepath.Join(cfg.InboxPath(), name)); err == nil {
		return ErrFileQueued
	}
	if err := MoveFile(src, cfg.InboxPath()); err != nil {
		e.logger.Error("Failed to requeue %s: %v", name, err)
		return ErrInternal
	}
	e.logger.Info("Requeued %s from error folder", name)
	return nil
}

func countRequestFiles(dir string) int {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}
	n := 0
	for _, entry := range entries {
		if entry.Type().IsRegular() && strings.EqualFold(filepath.Ext(entry.Name()), ".json") {
			n++
		}
	}
	return n
}
