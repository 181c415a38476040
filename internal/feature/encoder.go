// Package feature converts a transaction's merchant text and context into
// the fixed-width numeric vector the classifier consumes. The vocabulary,
// card-index table, and bucket thresholds are frozen at training time; the
// encoder must produce bit-identical vectors at train and inference time
// given the same artifacts.
package feature

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/rumor-ml/budgetmail/internal/domain"
)

// ContextFeatureCount is the number of non-text features appended after the
// n-gram block: amount bucket, card index, day of month.
const ContextFeatureCount = 3

// MissingAmountPolicy names how an absent amount is bucketed. The training
// and inference paths intentionally disagree (training buckets a missing
// amount as 0.00 into bucket 0; inference defaults missing or zero amounts
// to bucket 2). The asymmetry is inherited behavior kept behind explicit
// policies until domain intent is confirmed; tests pin both.
type MissingAmountPolicy string

const (
	// MissingAmountAsZero treats a missing amount as 0.00 and buckets it
	// normally (bucket 0). Used when encoding the training corpus.
	MissingAmountAsZero MissingAmountPolicy = "as-zero"

	// MissingAmountDefaultBucket sends missing and zero amounts straight
	// to the mid-range bucket 2. Used at inference.
	MissingAmountDefaultBucket MissingAmountPolicy = "default-bucket"
)

// bucketUpperBounds are the exclusive upper edges of buckets 0..4; amounts
// at or above the last edge land in bucket 5.
var bucketUpperBounds = []float64{2, 10, 30, 75, 150}

// defaultBucket is where the inference policy places missing/zero amounts.
const defaultBucket = 2

// AmountBucket discretizes a nonnegative amount into buckets 0..5 with the
// fixed edges [0,2) [2,10) [10,30) [30,75) [75,150) [150,inf).
func AmountBucket(amount decimal.Decimal) int {
	v := amount.InexactFloat64()
	for i, upper := range bucketUpperBounds {
		if v < upper {
			return i
		}
	}
	return len(bucketUpperBounds)
}

// CardIndex is the frozen card enumeration from the training corpus.
// An unseen card at inference maps to index 0, never an error.
type CardIndex struct {
	Cards map[domain.CardName]int `json:"cards"`
}

// FitCardIndex enumerates the distinct cards seen at training time in
// first-seen order. The assignment is arbitrary but stable once persisted.
func FitCardIndex(cards []domain.CardName) *CardIndex {
	idx := &CardIndex{Cards: make(map[domain.CardName]int)}
	for _, c := range cards {
		if _, ok := idx.Cards[c]; !ok {
			idx.Cards[c] = len(idx.Cards)
		}
	}
	return idx
}

// Lookup returns the index for a card, defaulting unseen cards to 0.
func (ci *CardIndex) Lookup(card domain.CardName) int {
	if i, ok := ci.Cards[card]; ok {
		return i
	}
	return 0
}

// Encoder produces feature vectors from a frozen vocabulary and card index.
type Encoder struct {
	vocab  *Vocabulary
	cards  *CardIndex
	policy MissingAmountPolicy
}

// NewEncoder creates an encoder over frozen artifacts.
func NewEncoder(vocab *Vocabulary, cards *CardIndex, policy MissingAmountPolicy) *Encoder {
	return &Encoder{vocab: vocab, cards: cards, policy: policy}
}

// Dimension returns the fixed width of encoded vectors:
// vocabulary size + amount bucket + card index + day of month.
func (e *Encoder) Dimension() int {
	return e.vocab.Size() + ContextFeatureCount
}

// Encode converts one transaction into a feature vector. It is pure and
// deterministic: identical inputs against identical frozen artifacts yield
// bit-identical vectors. dayOfMonth outside 1..31 is clamped into range.
func (e *Encoder) Encode(merchant string, amount *decimal.Decimal, card domain.CardName, dayOfMonth int) []float64 {
	vec := make([]float64, e.Dimension())

	// Text block: L2-normalized TF-IDF over the frozen vocabulary.
	// Out-of-vocabulary tokens contribute nothing.
	var sumSquares float64
	for _, tok := range Tokenize(merchant) {
		term, ok := e.vocab.Terms[tok]
		if !ok {
			continue
		}
		vec[term.Index] += term.IDF
	}
	for i := 0; i < e.vocab.Size(); i++ {
		sumSquares += vec[i] * vec[i]
	}
	if sumSquares > 0 {
		norm := math.Sqrt(sumSquares)
		for i := 0; i < e.vocab.Size(); i++ {
			vec[i] /= norm
		}
	}

	base := e.vocab.Size()
	vec[base] = float64(e.bucketFor(amount))
	vec[base+1] = float64(e.cards.Lookup(card))
	vec[base+2] = float64(clampDay(dayOfMonth))
	return vec
}

// bucketFor applies the encoder's missing-amount policy.
func (e *Encoder) bucketFor(amount *decimal.Decimal) int {
	switch e.policy {
	case MissingAmountDefaultBucket:
		if amount == nil || amount.IsZero() {
			return defaultBucket
		}
		return AmountBucket(*amount)
	default: // MissingAmountAsZero
		if amount == nil {
			return AmountBucket(decimal.Zero)
		}
		return AmountBucket(*amount)
	}
}

func clampDay(day int) int {
	if day < 1 {
		return 1
	}
	if day > 31 {
		return 31
	}
	return day
}
