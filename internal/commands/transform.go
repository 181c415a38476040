package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/rumor-ml/budgetmail/internal/bronze"
	"github.com/rumor-ml/budgetmail/internal/classify"
	"github.com/rumor-ml/budgetmail/internal/domain"
	"github.com/rumor-ml/budgetmail/internal/transform"
	"github.com/rumor-ml/budgetmail/internal/ui"
)

func newTransformCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "transform",
		Short: "Categorize bronze records into the silver layer",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			ui.Header("Budget Tracker - Transform")

			ui.Step(1, 3, "Loading model bundle")
			model, err := classify.LoadBundle(cfg.Paths.Models)
			if err != nil {
				return err
			}

			ui.Step(2, 3, "Reading bronze records")
			raw, err := bronze.NewStore(cfg.Paths.Bronze).ReadAll()
			if err != nil {
				return err
			}
			ui.Success(fmt.Sprintf("Loaded %d raw transactions", len(raw)))

			ui.Step(3, 3, "Categorizing")
			pipeline, err := transform.NewPipeline(model)
			if err != nil {
				return err
			}
			txns, report := pipeline.Run(raw)

			if err := writeJSONFile(cfg.Paths.Silver, txns); err != nil {
				return err
			}
			if err := writeJSONFile(cfg.Paths.Report, report); err != nil {
				return err
			}

			printQuality(report)
			ui.Success(fmt.Sprintf("Silver output written to %s", cfg.Paths.Silver))
			return nil
		},
	}
}

func printQuality(report *domain.QualityReport) {
	ui.Header("Data Quality Report")
	ui.KeyValue("Total records", report.Total)
	ui.KeyValue("Null dates", withPct(report.NullDates, report.Total))
	ui.KeyValue("Null merchants", withPct(report.NullMerchants, report.Total))
	ui.KeyValue("Null amounts", withPct(report.NullAmounts, report.Total))
	ui.KeyValue("Null categories", withPct(report.NullCategories, report.Total))
	if report.NullDates > 0 || report.NullMerchants > 0 ||
		report.NullAmounts > 0 || report.NullCategories > 0 {
		ui.Warning("Found null values in required sink fields; those records will not load")
	}
	ui.Info("Category distribution:")
	for _, c := range domain.Categories() {
		if n, ok := report.Histogram[c]; ok {
			ui.Info(fmt.Sprintf("  %-16s %d", c, n))
		}
	}
}

func withPct(n, total int) string {
	if total == 0 {
		return fmt.Sprintf("%d", n)
	}
	return fmt.Sprintf("%d (%.1f%%)", n, float64(n)/float64(total)*100)
}

// writeJSONFile persists v atomically as indented JSON.
func writeJSONFile(path string, v any) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory for %s: %w", path, err)
		}
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", filepath.Base(path), err)
	}
	tempFile := path + ".tmp"
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Rename(tempFile, path); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}
