// Package transform derives the silver layer: it normalizes raw extracted
// transactions, assigns categories with the trained model, and reports on
// data quality. A run is a full-batch recompute over every bronze record.
package transform

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rumor-ml/budgetmail/internal/classify"
	"github.com/rumor-ml/budgetmail/internal/domain"
	"github.com/rumor-ml/budgetmail/internal/feature"
	"github.com/rumor-ml/budgetmail/internal/labels"
)

// Pipeline applies date normalization and categorization. The model bundle
// is passed in explicitly and treated as immutable; there is no ambient
// process-wide model state.
type Pipeline struct {
	model   *classify.Model
	encoder *feature.Encoder
}

// NewPipeline creates a transform pipeline over a loaded model bundle.
func NewPipeline(model *classify.Model) (*Pipeline, error) {
	if model == nil {
		return nil, fmt.Errorf("model bundle cannot be nil")
	}
	return &Pipeline{
		model:   model,
		encoder: model.Encoder(),
	}, nil
}

// Run processes every raw record exactly once and emits categorized records
// plus the quality report. Records with missing fields are carried through
// with the gaps intact, never dropped: the report and the sink's loadable
// check are the places that account for them.
func (p *Pipeline) Run(raw []domain.RawTransaction) ([]domain.CategorizedTransaction, *domain.QualityReport) {
	report := &domain.QualityReport{
		RunID:       uuid.New().String(),
		GeneratedAt: time.Now(),
		Histogram:   make(map[domain.Category]int),
	}

	out := make([]domain.CategorizedTransaction, 0, len(raw))
	for _, r := range raw {
		txn := p.transformOne(&r)
		report.Record(&txn)
		out = append(out, txn)
	}
	return out, report
}

// transformOne derives one categorized record. Categorization needs at
// least the merchant text; without it the category stays absent rather
// than letting the classifier guess from context features alone.
func (p *Pipeline) transformOne(r *domain.RawTransaction) domain.CategorizedTransaction {
	txn := domain.CategorizedTransaction{
		MerchantName: r.MerchantName,
		Amount:       r.Amount,
		CardName:     r.CardName,
	}

	if r.TransactionDate != nil {
		if iso, ok := NormalizeDate(*r.TransactionDate); ok {
			txn.TransactionDate = &iso
		}
	}

	if r.MerchantName != nil {
		vec := p.encoder.Encode(*r.MerchantName, r.Amount, r.CardName, dayOfMonth(txn.TransactionDate))
		category := p.model.Predict(vec)
		txn.Category = &category
	}

	return txn
}

// TrainingExamples joins the labeled-merchant mapping with the bronze
// records to build the training corpus: every labeled transaction carries
// its context (amount, card, day), and labeled merchants with no bronze
// record still contribute a bare text-only example.
func TrainingExamples(m labels.Mapping, raw []domain.RawTransaction) []classify.Example {
	var examples []classify.Example
	seen := make(map[string]struct{})

	for _, r := range raw {
		if r.MerchantName == nil {
			continue
		}
		merchant := labels.Normalize(*r.MerchantName)
		category, ok := m[merchant]
		if !ok {
			continue
		}

		day := 1
		if r.TransactionDate != nil {
			if iso, ok := NormalizeDate(*r.TransactionDate); ok {
				day = dayOfMonth(&iso)
			}
		}
		examples = append(examples, classify.Example{
			Merchant:   merchant,
			Amount:     r.Amount,
			Card:       r.CardName,
			DayOfMonth: day,
			Label:      category,
		})
		seen[merchant] = struct{}{}
	}

	for _, merchant := range m.Merchants() {
		if _, ok := seen[merchant]; ok {
			continue
		}
		examples = append(examples, classify.Example{
			Merchant:   merchant,
			DayOfMonth: 1,
			Label:      m[merchant],
		})
	}

	return examples
}
