package grammar

import (
	"regexp"
	"strings"

	"github.com/rumor-ml/budgetmail/internal/domain"
)

// DiscoverGrammar parses Discover "Transaction Alert" emails.
// Body fields are labeled "Merchant:" and "Date:" with a bare dollar amount.
type DiscoverGrammar struct {
	rules fieldRules
}

// NewDiscover returns the Discover grammar.
func NewDiscover() *DiscoverGrammar {
	return &DiscoverGrammar{rules: fieldRules{
		card:     domain.CardDiscover,
		merchant: regexp.MustCompile(`Merchant:\s*(.+)`),
		date:     regexp.MustCompile(`Date:\s*(.+)`),
		amount:   regexp.MustCompile(`\$(\d+\.\d{2})`),
	}}
}

// Card returns the card this grammar extracts for.
func (g *DiscoverGrammar) Card() domain.CardName { return domain.CardDiscover }

// Sender returns the exact From address this grammar recognizes.
func (g *DiscoverGrammar) Sender() string {
	return "Discover Card <discover@services.discover.com>"
}

// Matches requires the exact sender and the fixed alert subject.
func (g *DiscoverGrammar) Matches(from, subject string) bool {
	return from == g.Sender() && subject == "Transaction Alert"
}

// Extract pulls merchant, date, and amount from the body.
func (g *DiscoverGrammar) Extract(body string) *domain.RawTransaction {
	return g.rules.extract(body)
}

// ChaseGrammar parses Chase transaction alert emails. Chase labels fields
// without colons and varies the subject ("You made a $4.50 transaction...").
type ChaseGrammar struct {
	rules fieldRules
}

// NewChase returns the Chase grammar.
func NewChase() *ChaseGrammar {
	return &ChaseGrammar{rules: fieldRules{
		card:     domain.CardChase,
		merchant: regexp.MustCompile(`Merchant\s*(.+)`),
		date:     regexp.MustCompile(`Date\s*(.+)`),
		amount:   regexp.MustCompile(`\$(\d+\.\d{2})`),
	}}
}

// Card returns the card this grammar extracts for.
func (g *ChaseGrammar) Card() domain.CardName { return domain.CardChase }

// Sender returns the exact From address this grammar recognizes.
func (g *ChaseGrammar) Sender() string {
	return "Chase <no.reply.alerts@chase.com>"
}

// Matches requires the exact sender and the "You made a" subject prefix.
func (g *ChaseGrammar) Matches(from, subject string) bool {
	return from == g.Sender() && strings.HasPrefix(subject, "You made a")
}

// Extract pulls merchant, date, and amount from the body.
func (g *ChaseGrammar) Extract(body string) *domain.RawTransaction {
	return g.rules.extract(body)
}

// CapitalOneGrammar parses Capital One pending-transaction emails, which
// embed fields in prose: "on <date>, at <merchant>, a pending ... amount of $X".
type CapitalOneGrammar struct {
	rules fieldRules
}

// NewCapitalOne returns the Capital One grammar.
func NewCapitalOne() *CapitalOneGrammar {
	return &CapitalOneGrammar{rules: fieldRules{
		card:     domain.CardCapitalOne,
		merchant: regexp.MustCompile(`at (.+?), a pending`),
		date:     regexp.MustCompile(`on (.+?), at`),
		amount:   regexp.MustCompile(`amount of \$(\d+\.\d{2})`),
	}}
}

// Card returns the card this grammar extracts for.
func (g *CapitalOneGrammar) Card() domain.CardName { return domain.CardCapitalOne }

// Sender returns the exact From address this grammar recognizes.
func (g *CapitalOneGrammar) Sender() string {
	return `"Capital One | Savor" <capitalone@notification.capitalone.com>`
}

// Matches requires the exact sender and the fixed notification subject.
func (g *CapitalOneGrammar) Matches(from, subject string) bool {
	return from == g.Sender() && subject == "A new transaction was charged to your account"
}

// Extract pulls merchant, date, and amount from the body.
func (g *CapitalOneGrammar) Extract(body string) *domain.RawTransaction {
	return g.rules.extract(body)
}
