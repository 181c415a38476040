package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rumor-ml/budgetmail/internal/domain"
	"github.com/rumor-ml/budgetmail/internal/silver"
	"github.com/rumor-ml/budgetmail/internal/ui"
)

func newLoadCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "load",
		Short: "Upsert categorized transactions into the relational sink",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			ui.Header("Budget Tracker - Load")

			data, err := os.ReadFile(cfg.Paths.Silver)
			if err != nil {
				return fmt.Errorf("failed to read silver output %s (run transform first): %w",
					cfg.Paths.Silver, err)
			}
			var txns []domain.CategorizedTransaction
			if err := json.Unmarshal(data, &txns); err != nil {
				return fmt.Errorf("failed to decode silver output %s: %w", cfg.Paths.Silver, err)
			}
			ui.Success(fmt.Sprintf("Loaded %d categorized transactions", len(txns)))

			store, err := silver.Open(cfg.Paths.SilverDB)
			if err != nil {
				return err
			}
			defer store.Close()

			result, err := store.Load(cmd.Context(), txns)
			if err != nil {
				return err
			}

			ui.Header("Load Complete")
			ui.KeyValue("Inserted", result.Inserted)
			ui.KeyValue("Duplicates skipped", result.Duplicates)
			ui.KeyValue("Not loadable", result.NotLoadable)
			if result.NotLoadable > 0 {
				ui.Warning(fmt.Sprintf("%d records were missing required key fields and were not loaded", result.NotLoadable))
			}

			total, err := store.Count(cmd.Context())
			if err != nil {
				return err
			}
			ui.KeyValue("Rows in database", total)

			counts, err := store.CategoryCounts(cmd.Context())
			if err != nil {
				return err
			}
			ui.Info("Category distribution in database:")
			for _, c := range domain.Categories() {
				if n, ok := counts[c]; ok {
					ui.Info(fmt.Sprintf("  %-16s %d", c, n))
				}
			}
			return nil
		},
	}
}
