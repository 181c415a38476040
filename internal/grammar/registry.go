package grammar

import (
	"fmt"
)

// Registry holds grammars in priority order. Dispatch tries grammars in
// registration order and the first match wins; the order is a deliberate
// priority list, not an error condition, and Find's behavior under multiple
// envelope matches is pinned by tests. Registration rejects two grammars
// claiming the same exact sender address, which is the only overlap the
// envelope signature can express statically.
type Registry struct {
	grammars []Grammar
	senders  map[string]string // sender address -> grammar card, for the uniqueness check
}

// NewRegistry creates a registry with all built-in issuer grammars.
func NewRegistry() (*Registry, error) {
	r := &Registry{senders: make(map[string]string)}
	for _, g := range []Grammar{
		NewDiscover(),
		NewChase(),
		NewCapitalOne(),
	} {
		if err := r.Register(g); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register appends a grammar at the lowest priority. It fails if another
// grammar already claims the same sender address.
func (r *Registry) Register(g Grammar) error {
	sender := g.Sender()
	if sender == "" {
		return fmt.Errorf("grammar %s has an empty sender address", g.Card())
	}
	if prior, ok := r.senders[sender]; ok {
		return fmt.Errorf("grammar %s claims sender %q already registered by %s",
			g.Card(), sender, prior)
	}
	r.senders[sender] = string(g.Card())
	r.grammars = append(r.grammars, g)
	return nil
}

// Find returns the first grammar whose envelope predicate matches, or
// (nil, false) when no issuer recognizes the message.
func (r *Registry) Find(from, subject string) (Grammar, bool) {
	for _, g := range r.grammars {
		if g.Matches(from, subject) {
			return g, true
		}
	}
	return nil, false
}

// Senders returns the exact sender address of every registered grammar in
// priority order. The extraction pipeline turns these into mailbox filters.
func (r *Registry) Senders() []string {
	out := make([]string, len(r.grammars))
	for i, g := range r.grammars {
		out[i] = g.Sender()
	}
	return out
}

// Cards lists the registered grammars' cards in priority order.
func (r *Registry) Cards() []string {
	out := make([]string, len(r.grammars))
	for i, g := range r.grammars {
		out[i] = string(g.Card())
	}
	return out
}
