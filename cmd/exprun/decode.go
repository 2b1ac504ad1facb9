package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/semparse/exprun/internal/config"
	"github.com/semparse/exprun/internal/invoke"
	"github.com/semparse/exprun/internal/workspace"
)

func newDecodeCmd() *cobra.Command {
	var (
		runName string
		dryRun  bool
		overlay config.Run
	)

	cmd := &cobra.Command{
		Use:   "decode",
		Short: "Invoke the external decoder on a dataset",
		Long: `Builds the decoder command line from the selected run profile and executes
it, streaming decoder output to a per-run log file. With --dry-run the
command line is printed instead of executed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			run, err := cfg.ResolveRun(runName)
			if err != nil {
				return err
			}
			run = run.Merge(overlay)

			if run.Dataset == "" {
				return errors.New("no dataset selected, use --dataset or a run profile")
			}

			ds, err := cfg.ResolveDataset(run.Dataset)
			if err != nil {
				return err
			}

			ws := workspace.New(wsPath)
			if err := ws.Bootstrap(run.Dataset); err != nil {
				return err
			}

			decodeName := fmt.Sprintf("%s.test.beam%d.decode", run.Dataset, run.BeamSize)

			req := &invoke.Request{
				PythonBin:      cfg.PythonBin,
				Script:         cfg.ParserScript,
				Mode:           invoke.Mode(run.Mode),
				Seed:           run.Seed,
				BeamSize:       run.BeamSize,
				MaxDecodeSteps: run.MaxDecodeSteps,
				TrainFile:      ds.Train,
				DevFile:        ds.Dev,
				TestFile:       ds.Test,
				GrammarFile:    ds.Grammar,
				ModelPath:      ws.ModelPath(run.Dataset, run.Model),
				OutputPath:     ws.DecodePath(run.Dataset, decodeName),
				Evaluator:      run.Evaluator,
				Features:       run.Features,
				Extra:          run.Extra,
			}

			if run.Model == "" {
				req.ModelPath = ""
			}

			if dryRun {
				argv, err := req.Argv()
				if err != nil {
					return err
				}

				fmt.Fprintln(cmd.OutOrStdout(), strings.Join(argv, " "))

				return nil
			}

			logPath := ws.LogPath(run.Dataset, runID+".log")

			logFile, err := os.Create(logPath)
			if err != nil {
				return errors.Wrapf(err, "unable to create log %s", logPath)
			}
			defer logFile.Close()

			logger.Info("decode run",
				zap.String("run", runName),
				zap.String("dataset", run.Dataset),
				zap.String("log", logPath),
			)

			return invoke.NewRunner(logger).Run(cmd.Context(), req, logFile)
		},
	}

	cmd.Flags().StringVar(&runName, "run", "", "run profile name from the config file")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the decoder command line and exit")
	cmd.Flags().StringVar(&overlay.Dataset, "dataset", "", "dataset to decode")
	cmd.Flags().StringVar(&overlay.Mode, "mode", "", "decoder mode (train, test, rerank)")
	cmd.Flags().IntVar(&overlay.Seed, "seed", 0, "random seed")
	cmd.Flags().IntVar(&overlay.BeamSize, "beam-size", 0, "beam width")
	cmd.Flags().IntVar(&overlay.MaxDecodeSteps, "max-decode-steps", 0, "maximum decode time steps")
	cmd.Flags().StringVar(&overlay.Model, "model", "", "model checkpoint name under saved_models")
	cmd.Flags().StringVar(&overlay.Evaluator, "evaluator", "", "evaluator name")
	cmd.Flags().StringSliceVar(&overlay.Features, "features", nil, "reranking feature names")

	return cmd
}
