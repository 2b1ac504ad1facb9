// Command exprun orchestrates semantic parsing experiments: it pulls dataset
// archives, bootstraps per-dataset output directories, invokes the external
// neural decoder, and reranks or evaluates decode outputs natively.
package main

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/semparse/exprun/internal/config"
)

var (
	logger *zap.Logger

	cfg     *config.Config
	cfgPath string
	wsPath  string
	verbose bool

	// runID names the log files of this invocation.
	runID string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "exprun",
		Short:         "Semantic parsing experiment runner",
		Long:          "exprun pulls datasets, drives the external decoder and reranks its hypotheses.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error

			zapCfg := zap.NewProductionConfig()
			if verbose {
				zapCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
			}

			logger, err = zapCfg.Build()
			if err != nil {
				return err
			}

			runID = uuid.NewString()

			if cfgPath == "" {
				cfg = config.Default()

				return nil
			}

			cfg, err = config.Load(cfgPath)

			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "experiment config file (YAML)")
	root.PersistentFlags().StringVarP(&wsPath, "workspace", "w", ".", "workspace root for models, logs and decodes")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newPullDataCmd(),
		newDecodeCmd(),
		newRerankCmd(),
		newEvalCmd(),
	)

	return root
}
