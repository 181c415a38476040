// Package domain defines the transaction types shared across the pipeline.
package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Category is the spending category assigned by the classifier.
// The set matches the labeling tool's menu; ValidateCategory checks membership.
type Category string

const (
	CategoryGroceries      Category = "Groceries"
	CategoryDining         Category = "Dining"
	CategoryTransportation Category = "Transportation"
	CategoryShopping       Category = "Shopping"
	CategoryEntertainment  Category = "Entertainment"
	CategoryBills          Category = "Bills"
	CategoryTravel         Category = "Travel"
	CategorySubscriptions  Category = "Subscriptions"
	CategoryOther          Category = "Other"
)

var validCategories = map[Category]struct{}{
	CategoryGroceries: {}, CategoryDining: {}, CategoryTransportation: {},
	CategoryShopping: {}, CategoryEntertainment: {}, CategoryBills: {},
	CategoryTravel: {}, CategorySubscriptions: {}, CategoryOther: {},
}

// ValidateCategory checks if category is valid
func ValidateCategory(c Category) bool {
	_, ok := validCategories[c]
	return ok
}

// Categories returns the category set in menu order.
func Categories() []Category {
	return []Category{
		CategoryGroceries, CategoryDining, CategoryTransportation,
		CategoryShopping, CategoryEntertainment, CategoryBills,
		CategoryTravel, CategorySubscriptions, CategoryOther,
	}
}

// CardName identifies the issuing card for a transaction.
type CardName string

const (
	CardDiscover   CardName = "Discover"
	CardChase      CardName = "Chase"
	CardCapitalOne CardName = "CapitalOne"
)

var validCards = map[CardName]struct{}{
	CardDiscover: {}, CardChase: {}, CardCapitalOne: {},
}

// ValidateCardName checks if card name is valid
func ValidateCardName(c CardName) bool {
	_, ok := validCards[c]
	return ok
}

// RawTransaction is the bronze-layer record extracted from one notification
// email. Any field a grammar could not match is nil; absence is a
// representable state, never an error. Immutable once written.
type RawTransaction struct {
	CardName        CardName         `json:"card_name"`
	MerchantName    *string          `json:"merchant_name"`
	TransactionDate *string          `json:"transaction_date"` // free text as seen in the email
	Amount          *decimal.Decimal `json:"amount"`
	RawSource       []byte           `json:"raw_source,omitempty"`
}

// NewRawTransaction creates a raw transaction for a validated card.
// Optional fields start nil and are set by the grammar as patterns match.
func NewRawTransaction(card CardName, rawSource []byte) (*RawTransaction, error) {
	if !ValidateCardName(card) {
		return nil, fmt.Errorf("invalid card name: %s", card)
	}
	return &RawTransaction{
		CardName:  card,
		RawSource: rawSource,
	}, nil
}

// SetMerchantName records the matched merchant text.
func (r *RawTransaction) SetMerchantName(name string) {
	r.MerchantName = &name
}

// SetTransactionDate records the matched free-text date.
func (r *RawTransaction) SetTransactionDate(date string) {
	r.TransactionDate = &date
}

// SetAmount records the matched amount.
func (r *RawTransaction) SetAmount(amount decimal.Decimal) {
	r.Amount = &amount
}

// CategorizedTransaction is the silver-layer record: a raw transaction with
// a resolved category and a normalized ISO date. Created once per raw record
// and never mutated; re-derivation is idempotent, with downstream dedup keyed
// by {date, merchant, amount, card}.
type CategorizedTransaction struct {
	TransactionDate *string          `json:"transaction_date"` // YYYY-MM-DD or nil
	MerchantName    *string          `json:"merchant_name"`
	Amount          *decimal.Decimal `json:"amount"`
	CardName        CardName         `json:"card_name"`
	Category        *Category        `json:"category"`
}

// Loadable reports whether all four sink key fields are present.
// The relational sink's NOT NULL constraints reject anything less.
func (c *CategorizedTransaction) Loadable() bool {
	return c.TransactionDate != nil && c.MerchantName != nil &&
		c.Amount != nil && c.Category != nil && c.CardName != ""
}

// DedupKey returns the sink upsert key {date, merchant, amount, card}.
// Only valid for loadable records.
func (c *CategorizedTransaction) DedupKey() string {
	if !c.Loadable() {
		return ""
	}
	return fmt.Sprintf("%s|%s|%s|%s",
		*c.TransactionDate, *c.MerchantName, c.Amount.StringFixed(2), c.CardName)
}

// QualityReport counts missing fields across a transform run.
type QualityReport struct {
	RunID          string           `json:"run_id"`
	GeneratedAt    time.Time        `json:"generated_at"`
	Total          int              `json:"total"`
	NullDates      int              `json:"null_dates"`
	NullMerchants  int              `json:"null_merchants"`
	NullAmounts    int              `json:"null_amounts"`
	NullCategories int              `json:"null_categories"`
	Histogram      map[Category]int `json:"category_histogram"`
}

// Record folds one categorized transaction into the report.
func (q *QualityReport) Record(t *CategorizedTransaction) {
	q.Total++
	if t.TransactionDate == nil {
		q.NullDates++
	}
	if t.MerchantName == nil {
		q.NullMerchants++
	}
	if t.Amount == nil {
		q.NullAmounts++
	}
	if t.Category == nil {
		q.NullCategories++
	} else {
		if q.Histogram == nil {
			q.Histogram = make(map[Category]int)
		}
		q.Histogram[*t.Category]++
	}
}
