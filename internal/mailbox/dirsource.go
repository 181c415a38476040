package mailbox

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DirSource serves messages from a directory of .eml files. It stands in for
// the live mailbox during local runs and tests: the message identifier is the
// file name without extension, which stays stable across runs the way IMAP
// UIDs do for a single mailbox.
type DirSource struct {
	rootDir string
}

// NewDirSource creates a source over the given directory.
func NewDirSource(rootDir string) *DirSource {
	return &DirSource{rootDir: expandHome(rootDir)}
}

// FetchByQuery walks the directory tree and returns every .eml message whose
// From header contains the filter. An empty filter matches everything.
func (s *DirSource) FetchByQuery(ctx context.Context, filter string) ([]Message, error) {
	var messages []Message

	err := filepath.Walk(s.rootDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || strings.ToLower(filepath.Ext(path)) != ".eml" {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		raw, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}

		if filter != "" {
			env, err := ParseEnvelope(raw)
			if err != nil || !strings.Contains(env.From, filter) {
				// Unparseable or non-matching mail is simply not part of
				// this query's result, same as an IMAP FROM search.
				return nil
			}
		}

		id := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		messages = append(messages, Message{ID: id, Raw: raw})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("mailbox scan failed: %w", err)
	}

	return messages, nil
}

// expandHome expands ~ to home directory
func expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}
