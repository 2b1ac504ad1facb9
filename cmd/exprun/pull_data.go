package main

import (
	"path"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/semparse/exprun/internal/workspace"
	"github.com/semparse/exprun/pkg/asset"
)

func newPullDataCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pull-data [datasets...]",
		Short: "Download dataset archives and bootstrap output directories",
		Long: `Fetches the archive of each named dataset (all configured datasets when
none are named), verifies its checksum, unpacks it under the data directory,
and creates the saved_models, logs and decodes directories for it.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			names := args
			if len(names) == 0 {
				names = cfg.DatasetNames()
			}
			if len(names) == 0 {
				return errors.New("no datasets configured or named")
			}

			ws := workspace.New(wsPath)

			for _, name := range names {
				ds, err := cfg.ResolveDataset(name)
				if err != nil {
					return err
				}

				if ds.ArchiveURL != "" {
					archivePath := filepath.Join(cfg.DataDir, path.Base(ds.ArchiveURL))

					logger.Info("pulling dataset",
						zap.String("dataset", name),
						zap.String("url", ds.ArchiveURL),
					)

					if err := asset.FetchArchive(ds.ArchiveURL, archivePath, ds.SHA256, cfg.DataDir); err != nil {
						return errors.Wrapf(err, "unable to pull dataset %s", name)
					}
				}

				if err := ws.Bootstrap(name); err != nil {
					return err
				}

				logger.Info("dataset ready",
					zap.String("dataset", name),
					zap.String("dir", ws.DatasetDir(name)),
				)
			}

			return nil
		},
	}
}
