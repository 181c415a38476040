// Package bronze persists raw extracted transactions, one JSON file per
// source email.
package bronze

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rumor-ml/budgetmail/internal/domain"
)

// Store writes and reads raw transaction files under a single directory.
// File names encode {extraction date, card, message id} so a directory
// listing doubles as an extraction log.
type Store struct {
	dir string
}

// NewStore creates a store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// FileName builds the record file name for a transaction and source message.
// Format: transaction_{YYYYMMDD}_{card}_{messageID}.json
func FileName(card domain.CardName, messageID string, now time.Time) string {
	cardSlug := strings.ReplaceAll(strings.ToLower(string(card)), " ", "_")
	return fmt.Sprintf("transaction_%s_%s_%s.json", now.Format("20060102"), cardSlug, messageID)
}

// Save persists one raw transaction. The write is atomic (temp file then
// rename) so readers never observe a partial record.
func (s *Store) Save(txn *domain.RawTransaction, messageID string, now time.Time) (string, error) {
	if txn == nil {
		return "", fmt.Errorf("transaction cannot be nil")
	}
	if messageID == "" {
		return "", fmt.Errorf("message id cannot be empty")
	}

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create bronze directory: %w", err)
	}

	data, err := json.MarshalIndent(txn, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal transaction: %w", err)
	}

	name := FileName(txn.CardName, messageID, now)
	path := filepath.Join(s.dir, name)

	tempFile := path + ".tmp"
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Rename(tempFile, path); err != nil {
		os.Remove(tempFile)
		return "", fmt.Errorf("failed to rename temp file: %w", err)
	}

	return name, nil
}

// ReadAll loads every raw transaction in the store in file-name order, so a
// full-batch transform sees a deterministic record sequence. A record that
// fails to decode aborts the read: bronze files are written atomically, so a
// bad one means external tampering, not a crashed run.
func (s *Store) ReadAll() ([]domain.RawTransaction, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read bronze directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".json") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	transactions := make([]domain.RawTransaction, 0, len(names))
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(s.dir, name))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		var txn domain.RawTransaction
		if err := json.Unmarshal(data, &txn); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", name, err)
		}
		transactions = append(transactions, txn)
	}

	return transactions, nil
}
