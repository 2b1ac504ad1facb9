package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/semparse/exprun/pkg/eval"
)

func newEvalCmd() *cobra.Command {
	var (
		datasetFile   string
		decodeFile    string
		evaluatorName string
	)

	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Score a decode file against its dataset",
		Long: `Loads a dataset file and a decode file, pairs them up and prints the score
of the named evaluator for the top hypothesis of each example.
Known evaluators: ` + strings.Join(eval.Names(), ", ") + `.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := loadEntries(datasetFile, decodeFile)
			if err != nil {
				return err
			}

			ev, err := eval.Get(evaluatorName)
			if err != nil {
				return err
			}

			score := evaluateEntries(entries, ev)

			logger.Debug("evaluated decode file",
				zap.String("dataset", datasetFile),
				zap.String("decodes", decodeFile),
				zap.Int("examples", len(entries)),
			)

			fmt.Fprintf(cmd.OutOrStdout(), "%s: %.4f\n", ev.Name(), score)

			return nil
		},
	}

	cmd.Flags().StringVar(&datasetFile, "dataset-file", "", "dataset file with the reference programs")
	cmd.Flags().StringVar(&decodeFile, "decode-file", "", "decode file holding hypothesis lists")
	cmd.Flags().StringVar(&evaluatorName, "evaluator", eval.MatchEvaluatorName, "evaluator name")

	_ = cmd.MarkFlagRequired("dataset-file")
	_ = cmd.MarkFlagRequired("decode-file")

	return cmd
}
