package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rumor-ml/budgetmail/internal/bronze"
	"github.com/rumor-ml/budgetmail/internal/config"
	"github.com/rumor-ml/budgetmail/internal/extract"
	"github.com/rumor-ml/budgetmail/internal/grammar"
	"github.com/rumor-ml/budgetmail/internal/mailbox"
	"github.com/rumor-ml/budgetmail/internal/tracker"
	"github.com/rumor-ml/budgetmail/internal/ui"
)

func newExtractCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "extract",
		Short: "Pull new transaction emails into the bronze store",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			ui.Header("Budget Tracker - Extract")
			ui.Step(1, 3, "Loading processed-message tracker")
			tr, err := tracker.Load(cfg.Paths.Tracker)
			if err != nil {
				return err
			}
			ui.Success(fmt.Sprintf("Tracker loaded with %d processed ids", tr.Len()))

			ui.Step(2, 3, "Registering issuer grammars")
			registry, err := grammar.NewRegistry()
			if err != nil {
				return err
			}
			ui.Success(fmt.Sprintf("Registered grammars: %v", registry.Cards()))

			ui.Step(3, 3, "Fetching and extracting messages")
			source := mailbox.NewDirSource(cfg.Mailbox.Dir)
			pipeline := extract.NewPipeline(source, registry, bronze.NewStore(cfg.Paths.Bronze), tr, nil)

			summary, err := pipeline.Run(cmd.Context())
			if err != nil {
				return err
			}

			ui.Header("Extraction Complete")
			ui.KeyValue("Run", summary.RunID)
			ui.KeyValue("Processed", summary.Processed)
			ui.KeyValue("Skipped (duplicate)", summary.Skipped)
			ui.KeyValue("Unmatched", summary.Unmatched)
			ui.KeyValue("Failed", summary.Failed)
			if summary.Unmatched > 0 {
				ui.Warning(fmt.Sprintf("%d messages matched no grammar; they will be retried next run", summary.Unmatched))
			}
			return nil
		},
	}
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	return config.Load(path)
}
