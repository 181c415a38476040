// Package silver stages categorized transactions in the relational sink
// schema. Loading is an idempotent upsert keyed by
// {transaction_date, merchant_name, amount, card_name}.
package silver

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/rumor-ml/budgetmail/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS silver_transactions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	transaction_date DATE NOT NULL,
	merchant_name TEXT NOT NULL,
	amount NUMERIC(10,2) NOT NULL,
	card_name TEXT NOT NULL,
	category TEXT NOT NULL,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_silver_dedup
	ON silver_transactions (transaction_date, merchant_name, amount, card_name);
`

// Store is the SQLite-backed sink staging table.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the silver database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open silver database %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create silver schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// LoadResult summarizes one load run.
type LoadResult struct {
	Inserted    int // new rows
	Duplicates  int // already present under the dedup key
	NotLoadable int // records missing a NOT NULL key field, reported not loaded
}

// Load upserts categorized transactions. Records missing any of the four
// key fields violate the sink's NOT NULL constraints and are counted
// instead of loaded; re-running a load with the same input is a no-op.
func (s *Store) Load(ctx context.Context, txns []domain.CategorizedTransaction) (*LoadResult, error) {
	result := &LoadResult{}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin load transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO silver_transactions
			(transaction_date, merchant_name, amount, card_name, category)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (transaction_date, merchant_name, amount, card_name) DO NOTHING`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, t := range txns {
		if !t.Loadable() {
			result.NotLoadable++
			continue
		}
		res, err := stmt.ExecContext(ctx,
			*t.TransactionDate, *t.MerchantName, t.Amount.StringFixed(2),
			string(t.CardName), string(*t.Category))
		if err != nil {
			return nil, fmt.Errorf("failed to upsert transaction %s: %w", t.DedupKey(), err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("failed to read upsert result: %w", err)
		}
		if n > 0 {
			result.Inserted++
		} else {
			result.Duplicates++
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit load: %w", err)
	}
	return result, nil
}

// CategoryCounts returns the category distribution in the sink, for the
// post-load summary.
func (s *Store) CategoryCounts(ctx context.Context) (map[domain.Category]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT category, COUNT(*) FROM silver_transactions
		GROUP BY category ORDER BY COUNT(*) DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query category counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.Category]int)
	for rows.Next() {
		var category string
		var count int
		if err := rows.Scan(&category, &count); err != nil {
			return nil, fmt.Errorf("failed to scan category count: %w", err)
		}
		counts[domain.Category(category)] = count
	}
	return counts, rows.Err()
}

// Count returns the total rows in the sink.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM silver_transactions`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count silver rows: %w", err)
	}
	return n, nil
}
