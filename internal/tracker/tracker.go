// Package tracker guarantees each mailbox message is processed at most once
// per successful run. It keeps an append-only file of opaque message ids and
// mirrors it in memory; a single mailbox stays in the hundreds-to-low-
// thousands range, so the full set in memory is an accepted scale boundary.
package tracker

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Tracker is the persistent processed-id set. The membership check and the
// durable append share one mutex so concurrent extraction runs inside a
// process cannot race between check and mark. Cross-process exclusion is out
// of scope: runs are expected to be sequential batch invocations.
type Tracker struct {
	mu        sync.Mutex
	filePath  string
	processed map[string]struct{}
}

// Load opens the tracker file and reads the full persisted set into memory.
// A missing file is a valid empty state, not an error.
func Load(filePath string) (*Tracker, error) {
	t := &Tracker{
		filePath:  filePath,
		processed: make(map[string]struct{}),
	}

	f, err := os.Open(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return t, nil
		}
		return nil, fmt.Errorf("failed to open tracker file %s: %w", filePath, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		id := strings.TrimSpace(scanner.Text())
		if id != "" {
			t.processed[id] = struct{}{}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read tracker file %s: %w", filePath, err)
	}

	return t, nil
}

// IsProcessed reports whether the id was already processed in a prior run.
func (t *Tracker) IsProcessed(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.processed[id]
	return ok
}

// MarkProcessed durably appends the id. Calling it twice with the same id is
// a no-op, not an error. The in-memory set is updated only after the append
// is flushed, so a crash mid-write re-processes the message next run
// (at-least-once) rather than silently dropping it.
func (t *Tracker) MarkProcessed(id string) error {
	if id == "" {
		return fmt.Errorf("message id cannot be empty")
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.processed[id]; ok {
		return nil
	}

	if dir := filepath.Dir(t.filePath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create tracker directory: %w", err)
		}
	}

	f, err := os.OpenFile(t.filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open tracker file for append: %w", err)
	}
	defer f.Close()

	if _, err := fmt.Fprintln(f, id); err != nil {
		return fmt.Errorf("failed to append id to tracker file: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("failed to sync tracker file: %w", err)
	}

	t.processed[id] = struct{}{}
	return nil
}

// Len returns the number of processed ids currently tracked.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.processed)
}
