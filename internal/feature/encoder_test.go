package feature

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/rumor-ml/budgetmail/internal/domain"
)

func TestAmountBucketBoundaries(t *testing.T) {
	// Boundary grid from the bucket table edges.
	tests := []struct {
		amount string
		want   int
	}{
		{"1.99", 0},
		{"2.00", 1},
		{"9.99", 1},
		{"10.00", 2},
		{"29.99", 2},
		{"30.00", 3},
		{"74.99", 3},
		{"75.00", 4},
		{"149.99", 4},
		{"150.00", 5},
		{"0.00", 0},
		{"0.01", 0},
		{"9999.99", 5},
	}

	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			amt, err := decimal.NewFromString(tt.amount)
			if err != nil {
				t.Fatalf("bad test amount: %v", err)
			}
			if got := AmountBucket(amt); got != tt.want {
				t.Errorf("AmountBucket(%s) = %d; want %d", tt.amount, got, tt.want)
			}
		})
	}
}

// The training and inference paths intentionally disagree on missing
// amounts. This is inherited behavior kept behind named policies; the test
// pins both sides so a silent unification shows up as a failure.
func TestMissingAmountPolicyAsymmetry(t *testing.T) {
	vocab := FitVocabulary([]string{"coffee shop"})
	cards := FitCardIndex([]domain.CardName{domain.CardDiscover})

	trainEnc := NewEncoder(vocab, cards, MissingAmountAsZero)
	inferEnc := NewEncoder(vocab, cards, MissingAmountDefaultBucket)

	bucketOf := func(vec []float64) float64 { return vec[vocab.Size()] }

	// Missing amount: training buckets 0.00 normally -> bucket 0;
	// inference defaults -> bucket 2.
	trainVec := trainEnc.Encode("coffee shop", nil, domain.CardDiscover, 1)
	inferVec := inferEnc.Encode("coffee shop", nil, domain.CardDiscover, 1)
	if got := bucketOf(trainVec); got != 0 {
		t.Errorf("training policy missing amount bucket = %v; want 0", got)
	}
	if got := bucketOf(inferVec); got != 2 {
		t.Errorf("inference policy missing amount bucket = %v; want 2", got)
	}

	// Zero amount: same split.
	zero := decimal.Zero
	if got := bucketOf(trainEnc.Encode("coffee shop", &zero, domain.CardDiscover, 1)); got != 0 {
		t.Errorf("training policy zero amount bucket = %v; want 0", got)
	}
	if got := bucketOf(inferEnc.Encode("coffee shop", &zero, domain.CardDiscover, 1)); got != 2 {
		t.Errorf("inference policy zero amount bucket = %v; want 2", got)
	}

	// Present nonzero amounts bucket identically under both policies.
	amt := decimal.NewFromFloat(42.00)
	if tb, ib := bucketOf(trainEnc.Encode("x", &amt, domain.CardDiscover, 1)),
		bucketOf(inferEnc.Encode("x", &amt, domain.CardDiscover, 1)); tb != ib || tb != 3 {
		t.Errorf("present amount buckets = %v/%v; want 3/3", tb, ib)
	}
}

func TestEncodeDeterministic(t *testing.T) {
	vocab := FitVocabulary([]string{"starbucks store", "shell", "amazon marketplace"})
	cards := FitCardIndex([]domain.CardName{domain.CardDiscover, domain.CardChase})
	enc := NewEncoder(vocab, cards, MissingAmountDefaultBucket)

	amt := decimal.NewFromFloat(12.34)
	a := enc.Encode("STARBUCKS STORE 22093", &amt, domain.CardChase, 9)
	b := enc.Encode("STARBUCKS STORE 22093", &amt, domain.CardChase, 9)

	if len(a) != len(b) {
		t.Fatalf("vector lengths differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("vectors differ at %d: %v vs %v (encode must be bit-identical)", i, a[i], b[i])
		}
	}
}

func TestEncodeDimension(t *testing.T) {
	vocab := FitVocabulary([]string{"one two", "three"})
	cards := FitCardIndex([]domain.CardName{domain.CardDiscover})
	enc := NewEncoder(vocab, cards, MissingAmountAsZero)

	if want := vocab.Size() + ContextFeatureCount; enc.Dimension() != want {
		t.Errorf("Dimension() = %d; want %d", enc.Dimension(), want)
	}
	vec := enc.Encode("one", nil, domain.CardDiscover, 15)
	if len(vec) != enc.Dimension() {
		t.Errorf("len(Encode()) = %d; want %d", len(vec), enc.Dimension())
	}
}

func TestEncodeContextFeatures(t *testing.T) {
	vocab := FitVocabulary([]string{"shop"})
	cards := FitCardIndex([]domain.CardName{domain.CardDiscover, domain.CardChase})
	enc := NewEncoder(vocab, cards, MissingAmountAsZero)

	amt := decimal.NewFromFloat(5.00)
	vec := enc.Encode("shop", &amt, domain.CardChase, 28)

	base := vocab.Size()
	if vec[base] != 1 {
		t.Errorf("amount bucket = %v; want 1", vec[base])
	}
	if vec[base+1] != 1 {
		t.Errorf("card index = %v; want 1 (Chase was second distinct card)", vec[base+1])
	}
	if vec[base+2] != 28 {
		t.Errorf("day of month = %v; want 28", vec[base+2])
	}
}

func TestUnseenCardMapsToZero(t *testing.T) {
	cards := FitCardIndex([]domain.CardName{domain.CardDiscover, domain.CardChase})
	if got := cards.Lookup(domain.CardCapitalOne); got != 0 {
		t.Errorf("Lookup(unseen) = %d; want 0", got)
	}
}

func TestDayOfMonthClamped(t *testing.T) {
	vocab := FitVocabulary([]string{"shop"})
	cards := FitCardIndex([]domain.CardName{domain.CardDiscover})
	enc := NewEncoder(vocab, cards, MissingAmountAsZero)

	base := vocab.Size()
	if vec := enc.Encode("shop", nil, domain.CardDiscover, 0); vec[base+2] != 1 {
		t.Errorf("day 0 should clamp to 1, got %v", vec[base+2])
	}
	if vec := enc.Encode("shop", nil, domain.CardDiscover, 99); vec[base+2] != 31 {
		t.Errorf("day 99 should clamp to 31, got %v", vec[base+2])
	}
}
