package grammar

import (
	"strings"
	"testing"

	"github.com/rumor-ml/budgetmail/internal/domain"
)

// stubGrammar lets tests control envelope matching independently of the
// built-in issuers.
type stubGrammar struct {
	card    domain.CardName
	sender  string
	matches func(from, subject string) bool
}

func (s *stubGrammar) Card() domain.CardName { return s.card }
func (s *stubGrammar) Sender() string        { return s.sender }
func (s *stubGrammar) Matches(from, subject string) bool {
	return s.matches(from, subject)
}
func (s *stubGrammar) Extract(body string) *domain.RawTransaction {
	txn, _ := domain.NewRawTransaction(s.card, []byte(body))
	return txn
}

func TestNewRegistryBuiltins(t *testing.T) {
	r, err := NewRegistry()
	if err != nil {
		t.Fatalf("NewRegistry() error: %v", err)
	}

	cards := r.Cards()
	want := []string{"Discover", "Chase", "CapitalOne"}
	if len(cards) != len(want) {
		t.Fatalf("Cards() = %v; want %v", cards, want)
	}
	for i := range want {
		if cards[i] != want[i] {
			t.Errorf("Cards()[%d] = %s; want %s", i, cards[i], want[i])
		}
	}
}

func TestFindDispatch(t *testing.T) {
	r, err := NewRegistry()
	if err != nil {
		t.Fatalf("NewRegistry() error: %v", err)
	}

	tests := []struct {
		name     string
		from     string
		subject  string
		wantCard domain.CardName
		wantOK   bool
	}{
		{
			name:     "discover",
			from:     "Discover Card <discover@services.discover.com>",
			subject:  "Transaction Alert",
			wantCard: domain.CardDiscover,
			wantOK:   true,
		},
		{
			name:     "chase",
			from:     "Chase <no.reply.alerts@chase.com>",
			subject:  "You made a $4.50 transaction with your card",
			wantCard: domain.CardChase,
			wantOK:   true,
		},
		{
			name:     "capital one",
			from:     `"Capital One | Savor" <capitalone@notification.capitalone.com>`,
			subject:  "A new transaction was charged to your account",
			wantCard: domain.CardCapitalOne,
			wantOK:   true,
		},
		{
			name:    "unknown sender",
			from:    "spam@example.com",
			subject: "Transaction Alert",
			wantOK:  false,
		},
		{
			name:    "known sender wrong subject",
			from:    "Discover Card <discover@services.discover.com>",
			subject: "Your statement is ready",
			wantOK:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, ok := r.Find(tt.from, tt.subject)
			if ok != tt.wantOK {
				t.Fatalf("Find() ok = %v; want %v", ok, tt.wantOK)
			}
			if ok && g.Card() != tt.wantCard {
				t.Errorf("Find() card = %s; want %s", g.Card(), tt.wantCard)
			}
		})
	}
}

// First-registered wins when multiple grammars match the same envelope.
// Registration order is a deliberate priority list; this pins the contract.
func TestFindFirstMatchWins(t *testing.T) {
	matchAll := func(from, subject string) bool { return true }

	r := &Registry{senders: make(map[string]string)}
	first := &stubGrammar{card: domain.CardDiscover, sender: "a@example.com", matches: matchAll}
	second := &stubGrammar{card: domain.CardChase, sender: "b@example.com", matches: matchAll}

	if err := r.Register(first); err != nil {
		t.Fatalf("Register(first) error: %v", err)
	}
	if err := r.Register(second); err != nil {
		t.Fatalf("Register(second) error: %v", err)
	}

	g, ok := r.Find("anyone@example.com", "anything")
	if !ok {
		t.Fatal("Find() should match")
	}
	if g.Card() != domain.CardDiscover {
		t.Errorf("Find() returned %s; want first-registered Discover", g.Card())
	}
}

func TestRegisterRejectsDuplicateSender(t *testing.T) {
	r := &Registry{senders: make(map[string]string)}
	match := func(from, subject string) bool { return false }

	if err := r.Register(&stubGrammar{card: domain.CardDiscover, sender: "dup@example.com", matches: match}); err != nil {
		t.Fatalf("first Register error: %v", err)
	}

	err := r.Register(&stubGrammar{card: domain.CardChase, sender: "dup@example.com", matches: match})
	if err == nil {
		t.Fatal("Register should reject a duplicate sender address")
	}
	if !strings.Contains(err.Error(), "dup@example.com") {
		t.Errorf("error should name the duplicate sender: %v", err)
	}
}

func TestSendersOrder(t *testing.T) {
	r, err := NewRegistry()
	if err != nil {
		t.Fatalf("NewRegistry() error: %v", err)
	}
	senders := r.Senders()
	if len(senders) != 3 {
		t.Fatalf("Senders() returned %d entries; want 3", len(senders))
	}
	if !strings.Contains(senders[0], "discover") {
		t.Errorf("Senders()[0] = %q; want discover first (priority order)", senders[0])
	}
}
