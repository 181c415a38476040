package commands

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rumor-ml/budgetmail/internal/bronze"
	"github.com/rumor-ml/budgetmail/internal/domain"
	"github.com/rumor-ml/budgetmail/internal/labels"
	"github.com/rumor-ml/budgetmail/internal/ui"
)

func newLabelCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "label",
		Short: "Interactively label unlabeled merchants for training",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			mapping, err := labels.Load(cfg.Paths.Labels)
			if err != nil {
				return err
			}
			raw, err := bronze.NewStore(cfg.Paths.Bronze).ReadAll()
			if err != nil {
				return err
			}
			unlabeled := labels.Unlabeled(mapping, raw)

			ui.Header("Merchant Labeling Tool")
			ui.KeyValue("Unlabeled merchants", len(unlabeled))
			ui.KeyValue("Already labeled", len(mapping))
			printMenu()

			labeled := runLabelSession(cmd.InOrStdin(), cmd.OutOrStdout(), mapping, unlabeled)

			if err := mapping.Save(cfg.Paths.Labels); err != nil {
				return err
			}
			ui.Header("Labeling Complete")
			ui.KeyValue("Labeled this session", labeled)
			ui.KeyValue("Total labeled", len(mapping))
			ui.KeyValue("Saved to", cfg.Paths.Labels)
			return nil
		},
	}
}

func printMenu() {
	ui.Info("Categories:")
	for i, c := range domain.Categories() {
		ui.Info(fmt.Sprintf("  %d. %s", i+1, c))
	}
	ui.Info("Press 'q' to quit and save")
}

// runLabelSession drives the console loop. All mapping mutation goes
// through labels.Apply, so the session logic stays testable with plain
// readers and writers.
func runLabelSession(in io.Reader, out io.Writer, mapping labels.Mapping, unlabeled []domain.RawTransaction) int {
	menu := domain.Categories()
	scanner := bufio.NewScanner(in)
	labeled := 0

	for _, txn := range unlabeled {
		merchant := labels.Normalize(*txn.MerchantName)

		fmt.Fprintf(out, "\n--- Transaction #%d ---\n", labeled+1)
		fmt.Fprintf(out, "Merchant: %s\n", merchant)
		if txn.Amount != nil {
			fmt.Fprintf(out, "Amount: $%s\n", txn.Amount.StringFixed(2))
		}
		fmt.Fprintf(out, "Category (1-%d) or 'q' to quit: ", len(menu))

		if !scanner.Scan() {
			break
		}
		choice := strings.TrimSpace(scanner.Text())
		if strings.EqualFold(choice, "q") {
			break
		}

		idx := parseChoice(choice, len(menu))
		if idx < 0 {
			fmt.Fprintln(out, "Invalid choice, skipping...")
			continue
		}

		if err := mapping.Apply(merchant, menu[idx]); err != nil {
			fmt.Fprintf(out, "Could not label: %v\n", err)
			continue
		}
		labeled++
		fmt.Fprintf(out, "Labeled as: %s\n", menu[idx])
	}

	return labeled
}

// parseChoice maps a 1-based menu selection to an index, -1 if invalid.
func parseChoice(choice string, max int) int {
	n, err := strconv.Atoi(choice)
	if err != nil || n < 1 || n > max {
		return -1
	}
	return n - 1
}
