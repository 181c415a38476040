package grammar

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestDiscoverExtract(t *testing.T) {
	g := NewDiscover()
	body := "Merchant: COFFEE SHOP\nDate: March 1, 2025\nAmount: $4.50\n"

	txn := g.Extract(body)

	if txn.MerchantName == nil || *txn.MerchantName != "COFFEE SHOP" {
		t.Errorf("merchant = %v; want COFFEE SHOP", txn.MerchantName)
	}
	if txn.TransactionDate == nil || *txn.TransactionDate != "March 1, 2025" {
		t.Errorf("date = %v; want March 1, 2025", txn.TransactionDate)
	}
	if txn.Amount == nil || !txn.Amount.Equal(decimal.NewFromFloat(4.50)) {
		t.Errorf("amount = %v; want 4.50", txn.Amount)
	}
	if string(txn.RawSource) != body {
		t.Error("raw source should carry the original body")
	}
}

func TestDiscoverExtractFromHTML(t *testing.T) {
	g := NewDiscover()
	body := "<html><body><p>Merchant: <b>COFFEE SHOP</b></p>\n<p>Date: March 1, 2025</p>\n<p>$4.50</p>\n</body></html>"

	txn := g.Extract(body)

	if txn.MerchantName == nil || *txn.MerchantName != "COFFEE SHOP" {
		t.Errorf("merchant = %v; want COFFEE SHOP", txn.MerchantName)
	}
	if txn.Amount == nil || !txn.Amount.Equal(decimal.NewFromFloat(4.50)) {
		t.Errorf("amount = %v; want 4.50", txn.Amount)
	}
}

func TestExtractNeverFails(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "empty body", body: ""},
		{name: "unrelated text", body: "Your statement is ready."},
		{name: "partial match", body: "Merchant: SHOP ONLY"},
		{name: "malformed html", body: "<div><b>nothing here</div>"},
	}

	for _, g := range []Grammar{NewDiscover(), NewChase(), NewCapitalOne()} {
		for _, tt := range tests {
			t.Run(string(g.Card())+"/"+tt.name, func(t *testing.T) {
				txn := g.Extract(tt.body)
				if txn == nil {
					t.Fatal("Extract returned nil")
				}
				if txn.CardName != g.Card() {
					t.Errorf("card = %s; want %s", txn.CardName, g.Card())
				}
			})
		}
	}
}

func TestExtractPartialFieldsStayAbsent(t *testing.T) {
	g := NewDiscover()
	txn := g.Extract("Merchant: SOME SHOP\nno date, no amount")

	if txn.MerchantName == nil || *txn.MerchantName != "SOME SHOP" {
		t.Errorf("merchant = %v; want SOME SHOP", txn.MerchantName)
	}
	if txn.TransactionDate != nil {
		t.Errorf("date should be absent, got %q", *txn.TransactionDate)
	}
	if txn.Amount != nil {
		t.Errorf("amount should be absent, got %v", txn.Amount)
	}
}

func TestChaseMatches(t *testing.T) {
	g := NewChase()

	if !g.Matches("Chase <no.reply.alerts@chase.com>", "You made a $4.50 transaction") {
		t.Error("should match subject with 'You made a' prefix")
	}
	if g.Matches("Chase <no.reply.alerts@chase.com>", "Your statement is ready") {
		t.Error("should not match other subjects")
	}
	if g.Matches("someone@example.com", "You made a $4.50 transaction") {
		t.Error("should not match other senders")
	}
}

func TestCapitalOneExtract(t *testing.T) {
	g := NewCapitalOne()
	body := "Hi, on February 4, 2026, at CHIPOTLE 2129, a pending charge in the amount of $12.87 was placed on your card."

	txn := g.Extract(body)

	if txn.MerchantName == nil || *txn.MerchantName != "CHIPOTLE 2129" {
		t.Errorf("merchant = %v; want CHIPOTLE 2129", txn.MerchantName)
	}
	if txn.TransactionDate == nil || *txn.TransactionDate != "February 4, 2026" {
		t.Errorf("date = %v; want February 4, 2026", txn.TransactionDate)
	}
	if txn.Amount == nil || !txn.Amount.Equal(decimal.NewFromFloat(12.87)) {
		t.Errorf("amount = %v; want 12.87", txn.Amount)
	}
}

func TestTrimFieldCollapsesWhitespace(t *testing.T) {
	got := trimField("  COFFEE   SHOP  ")
	if got != "COFFEE SHOP" {
		t.Errorf("trimField = %q; want COFFEE SHOP", got)
	}
}
