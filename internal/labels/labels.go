// Package labels manages the human-supplied merchant-to-category mapping
// the classifier trains on. The core operations are pure; console I/O for
// the labeling session lives at the CLI boundary.
package labels

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rumor-ml/budgetmail/internal/domain"
)

// Mapping is the labeled-merchant store: normalized merchant text to
// category. It grows monotonically as new merchants are labeled and is
// never auto-relabeled.
type Mapping map[string]domain.Category

// Load reads the mapping file. A missing file is a valid empty mapping.
func Load(filePath string) (Mapping, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return Mapping{}, nil
		}
		return nil, fmt.Errorf("failed to read labels file %s: %w", filePath, err)
	}

	var m Mapping
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to decode labels file %s: %w", filePath, err)
	}
	for merchant, category := range m {
		if !domain.ValidateCategory(category) {
			return nil, fmt.Errorf("labels file %s: merchant %q has unknown category %q",
				filePath, merchant, category)
		}
	}
	return m, nil
}

// Save atomically persists the mapping.
func (m Mapping) Save(filePath string) error {
	if dir := filepath.Dir(filePath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create labels directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal labels: %w", err)
	}

	tempFile := filePath + ".tmp"
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Rename(tempFile, filePath); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// Apply records one operator decision. Labeling an already-labeled merchant
// is rejected: the mapping only grows, relabeling is a deliberate manual
// edit of the store, not a tool operation.
func (m Mapping) Apply(merchant string, category domain.Category) error {
	merchant = Normalize(merchant)
	if merchant == "" {
		return fmt.Errorf("merchant cannot be empty")
	}
	if !domain.ValidateCategory(category) {
		return fmt.Errorf("invalid category: %s", category)
	}
	if existing, ok := m[merchant]; ok {
		return fmt.Errorf("merchant %q already labeled as %s", merchant, existing)
	}
	m[merchant] = category
	return nil
}

// Has reports whether the merchant is already labeled.
func (m Mapping) Has(merchant string) bool {
	_, ok := m[Normalize(merchant)]
	return ok
}

// Normalize trims merchant text to its stored key form.
func Normalize(merchant string) string {
	return strings.TrimSpace(merchant)
}

// Unlabeled filters raw transactions down to those whose merchant is
// present but not yet in the mapping, deduplicated by merchant.
func Unlabeled(m Mapping, raw []domain.RawTransaction) []domain.RawTransaction {
	seen := make(map[string]struct{})
	var out []domain.RawTransaction
	for _, txn := range raw {
		if txn.MerchantName == nil {
			continue
		}
		merchant := Normalize(*txn.MerchantName)
		if merchant == "" || m.Has(merchant) {
			continue
		}
		if _, dup := seen[merchant]; dup {
			continue
		}
		seen[merchant] = struct{}{}
		out = append(out, txn)
	}
	return out
}

// Merchants returns the labeled merchants in sorted order.
func (m Mapping) Merchants() []string {
	out := make([]string, 0, len(m))
	for merchant := range m {
		out = append(out, merchant)
	}
	sort.Strings(out)
	return out
}
