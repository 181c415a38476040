// Package grammar recognizes and parses per-issuer transaction notification
// emails. Each issuer contributes one Grammar: an envelope predicate plus a
// set of field extractors over the HTML-stripped body.
package grammar

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/rumor-ml/budgetmail/internal/domain"
	"github.com/rumor-ml/budgetmail/internal/htmltext"
)

// Grammar is the strategy interface for issuer email formats.
type Grammar interface {
	// Card returns the card this grammar extracts for.
	Card() domain.CardName

	// Sender returns the exact From address this grammar recognizes.
	// The registry uses it for its uniqueness check and the extraction
	// pipeline uses it to build mailbox search filters.
	Sender() string

	// Matches checks if this grammar recognizes the message envelope.
	Matches(from, subject string) bool

	// Extract pulls transaction fields from the raw email body.
	// It never fails: fields whose pattern did not match stay absent.
	Extract(body string) *domain.RawTransaction
}

// fieldRules is the shared extraction core: three optional patterns applied
// to the stripped body. Each pattern's first capture group is the field.
type fieldRules struct {
	card     domain.CardName
	merchant *regexp.Regexp
	date     *regexp.Regexp
	amount   *regexp.Regexp
}

func (f *fieldRules) extract(body string) *domain.RawTransaction {
	clean := htmltext.Strip(body)

	// Card names come from the built-in enum, so this cannot fail.
	txn, err := domain.NewRawTransaction(f.card, []byte(body))
	if err != nil {
		panic(fmt.Sprintf("grammar configured with invalid card %q: %v", f.card, err))
	}

	if m := f.merchant.FindStringSubmatch(clean); m != nil {
		txn.SetMerchantName(trimField(m[1]))
	}
	if m := f.date.FindStringSubmatch(clean); m != nil {
		txn.SetTransactionDate(trimField(m[1]))
	}
	if m := f.amount.FindStringSubmatch(clean); m != nil {
		if amt, err := decimal.NewFromString(m[1]); err == nil {
			txn.SetAmount(amt)
		}
	}
	return txn
}

var fieldSpace = regexp.MustCompile(`\s+`)

// trimField collapses interior whitespace and trims the ends. Stripped HTML
// often leaves runs of spaces where tags used to be.
func trimField(s string) string {
	return strings.TrimSpace(fieldSpace.ReplaceAllString(s, " "))
}
