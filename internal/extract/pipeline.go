// Package extract pulls notification emails from the mailbox, runs the
// issuer grammars, and lands raw transactions in the bronze store.
package extract

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/rumor-ml/budgetmail/internal/bronze"
	"github.com/rumor-ml/budgetmail/internal/grammar"
	"github.com/rumor-ml/budgetmail/internal/mailbox"
	"github.com/rumor-ml/budgetmail/internal/tracker"
)

// Summary reports the outcome of one extraction run.
type Summary struct {
	RunID     string
	StartedAt time.Time
	Processed int // new transactions persisted and marked
	Skipped   int // already in the tracker from a prior run
	Unmatched int // no grammar recognized the envelope; left for retry
	Failed    int // per-message errors, contained and logged
}

// Pipeline wires the mailbox source, grammar registry, bronze store, and
// processed-set tracker together for a sequential batch run.
type Pipeline struct {
	source   mailbox.Source
	registry *grammar.Registry
	store    *bronze.Store
	tracker  *tracker.Tracker
	now      func() time.Time
}

// NewPipeline creates an extraction pipeline. now is the clock used for
// bronze file naming; pass nil for time.Now.
func NewPipeline(source mailbox.Source, registry *grammar.Registry, store *bronze.Store, tr *tracker.Tracker, now func() time.Time) *Pipeline {
	if now == nil {
		now = time.Now
	}
	return &Pipeline{
		source:   source,
		registry: registry,
		store:    store,
		tracker:  tr,
		now:      now,
	}
}

// Run fetches one query per registered issuer sender and processes every
// message not yet in the tracker. A transport failure is fatal to the run;
// a failure on one message is logged and the batch continues. Messages are
// marked processed only after the bronze record is durably persisted, so a
// crash re-presents the message next run instead of losing it.
func (p *Pipeline) Run(ctx context.Context) (*Summary, error) {
	summary := &Summary{
		RunID:     uuid.New().String(),
		StartedAt: p.now(),
	}

	for _, sender := range p.registry.Senders() {
		messages, err := p.source.FetchByQuery(ctx, addressOf(sender))
		if err != nil {
			// No partial credit: the tracker is untouched for unfetched
			// mail, so re-invocation resumes cleanly.
			return nil, fmt.Errorf("mailbox fetch failed for %q: %w", sender, err)
		}

		for _, msg := range messages {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
			}

			if p.tracker.IsProcessed(msg.ID) {
				summary.Skipped++
				continue
			}

			switch p.processMessage(msg) {
			case outcomeProcessed:
				summary.Processed++
			case outcomeUnmatched:
				summary.Unmatched++
			case outcomeFailed:
				summary.Failed++
			}
		}
	}

	return summary, nil
}

type outcome int

const (
	outcomeProcessed outcome = iota
	outcomeUnmatched
	outcomeFailed
)

// processMessage extracts and persists one message. Unmatched and failed
// messages are not marked processed so the next run retries them.
func (p *Pipeline) processMessage(msg mailbox.Message) outcome {
	env, err := mailbox.ParseEnvelope(msg.Raw)
	if err != nil {
		log.Printf("ERROR: failed to parse message %s: %v", msg.ID, err)
		return outcomeFailed
	}

	g, ok := p.registry.Find(env.From, env.Subject)
	if !ok {
		log.Printf("no grammar matched message %s (from %q, subject %q)", msg.ID, env.From, env.Subject)
		return outcomeUnmatched
	}

	txn := g.Extract(env.Body)

	if _, err := p.store.Save(txn, msg.ID, p.now()); err != nil {
		log.Printf("ERROR: failed to persist transaction for message %s: %v", msg.ID, err)
		return outcomeFailed
	}

	if err := p.tracker.MarkProcessed(msg.ID); err != nil {
		// The record is saved but unmarked; the next run overwrites the
		// same bronze file, so this stays at-least-once, never lossy.
		log.Printf("ERROR: failed to mark message %s processed: %v", msg.ID, err)
		return outcomeFailed
	}

	return outcomeProcessed
}

// addressOf narrows a display-form sender ("Name <addr>") to the bare
// address for mailbox FROM filtering.
func addressOf(sender string) string {
	start := -1
	for i := 0; i < len(sender); i++ {
		if sender[i] == '<' {
			start = i + 1
		} else if sender[i] == '>' && start >= 0 {
			return sender[start:i]
		}
	}
	return sender
}
