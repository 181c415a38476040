package classify

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rumor-ml/budgetmail/internal/domain"
	"github.com/rumor-ml/budgetmail/internal/feature"
)

// The artifact bundle is three co-versioned blobs that only make sense
// together. Loading a subset silently mixes artifacts from different
// training runs, so a partial bundle is treated as corrupt.
const (
	vocabularyFile = "vocabulary.json"
	cardsFile      = "cards.json"
	weightsFile    = "weights.json"
)

// ErrNoBundle is returned when none of the bundle files exist (never
// trained), as opposed to a partial bundle which is corruption.
var ErrNoBundle = errors.New("no trained model bundle found")

// ErrCorruptBundle is returned when only a subset of the three artifact
// files exists. Inference must refuse to start on a partial bundle.
var ErrCorruptBundle = errors.New("trained model bundle is incomplete")

// weightsBlob is the serialized form of the classifier weights.
type weightsBlob struct {
	Classes []domain.Category `json:"classes"`
	Weights [][]float64       `json:"weights"`
	Bias    []float64         `json:"bias"`
}

// SaveBundle persists the model's three artifacts under dir. Each file is
// written atomically (temp then rename); the weights file is renamed last
// so an interrupted save leaves a subset that LoadBundle rejects rather
// than a plausible-looking stale mix.
func SaveBundle(model *Model, dir string) error {
	if !model.trained() {
		return fmt.Errorf("cannot persist an untrained model")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create model directory: %w", err)
	}

	blob := weightsBlob{Classes: model.Classes, Weights: model.Weights, Bias: model.Bias}

	if err := writeJSON(filepath.Join(dir, vocabularyFile), model.Vocabulary); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(dir, cardsFile), model.Cards); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(dir, weightsFile), blob); err != nil {
		return err
	}
	return nil
}

// LoadBundle reads the three artifacts back into a model. All three files
// must be present: a subset is ErrCorruptBundle, none is ErrNoBundle.
func LoadBundle(dir string) (*Model, error) {
	paths := []string{
		filepath.Join(dir, vocabularyFile),
		filepath.Join(dir, cardsFile),
		filepath.Join(dir, weightsFile),
	}

	var present, missing []string
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			present = append(present, filepath.Base(p))
		} else {
			missing = append(missing, filepath.Base(p))
		}
	}
	if len(present) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoBundle, dir)
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: have {%s}, missing {%s}",
			ErrCorruptBundle, strings.Join(present, ", "), strings.Join(missing, ", "))
	}

	var vocab feature.Vocabulary
	if err := readJSON(paths[0], &vocab); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptBundle, err)
	}
	var cards feature.CardIndex
	if err := readJSON(paths[1], &cards); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptBundle, err)
	}
	var blob weightsBlob
	if err := readJSON(paths[2], &blob); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptBundle, err)
	}

	model := &Model{
		Vocabulary: &vocab,
		Cards:      &cards,
		Classes:    blob.Classes,
		Weights:    blob.Weights,
		Bias:       blob.Bias,
	}
	if !model.trained() {
		return nil, fmt.Errorf("%w: decoded bundle has empty artifacts", ErrCorruptBundle)
	}

	wantDim := vocab.Size() + feature.ContextFeatureCount
	for _, row := range model.Weights {
		if len(row) != wantDim {
			return nil, fmt.Errorf("%w: weight row width %d does not match vocabulary dimension %d",
				ErrCorruptBundle, len(row), wantDim)
		}
	}

	return model, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", filepath.Base(path), err)
	}
	tempFile := path + ".tmp"
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Rename(tempFile, path); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", filepath.Base(path), err)
	}
	return nil
}
