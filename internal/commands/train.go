package commands

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/rumor-ml/budgetmail/internal/bronze"
	"github.com/rumor-ml/budgetmail/internal/classify"
	"github.com/rumor-ml/budgetmail/internal/domain"
	"github.com/rumor-ml/budgetmail/internal/labels"
	"github.com/rumor-ml/budgetmail/internal/transform"
	"github.com/rumor-ml/budgetmail/internal/ui"
)

// sampleMerchants is the post-training smoke check: a spread of familiar
// merchant strings whose predictions the operator can eyeball.
var sampleMerchants = []string{
	"STARBUCKS STORE 22093",
	"SHELL",
	"AMAZON.COM",
	"CHIPOTLE 2129",
	"SPOTIFY",
	"WALMART STORE 01372",
	"PUBLIX #1660",
	"TARGET T-1226",
	"PROGRESSIVE *INSURANCE",
}

func newTrainCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "train",
		Short: "Train the merchant categorizer from labeled data",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			ui.Header("Budget Tracker - Train Categorizer")

			mapping, err := labels.Load(cfg.Paths.Labels)
			if err != nil {
				return err
			}
			raw, err := bronze.NewStore(cfg.Paths.Bronze).ReadAll()
			if err != nil {
				return err
			}

			examples := transform.TrainingExamples(mapping, raw)
			ui.KeyValue("Labeled merchants", len(mapping))
			ui.KeyValue("Training examples", len(examples))

			model, report, err := classify.Train(examples)
			if err != nil {
				if errors.Is(err, classify.ErrInsufficientData) {
					ui.Error("Not enough labeled data to train; label more merchants first")
				}
				return err
			}

			ui.Header("Model Evaluation")
			fmt.Fprint(cmd.ErrOrStderr(), report.String())

			if err := classify.SaveBundle(model, cfg.Paths.Models); err != nil {
				return err
			}
			ui.Success(fmt.Sprintf("Model bundle saved to %s", cfg.Paths.Models))

			ui.Header("Sample Predictions")
			enc := model.Encoder()
			amount := decimal.NewFromFloat(12.00)
			for _, merchant := range sampleMerchants {
				vec := enc.Encode(merchant, &amount, domain.CardDiscover, 15)
				ui.Info(fmt.Sprintf("%-28s -> %s", merchant, model.Predict(vec)))
			}
			return nil
		},
	}
}
