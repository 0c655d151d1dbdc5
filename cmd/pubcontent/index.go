package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/eringen/pubcontent"
	"github.com/eringen/pubcontent/output"
)

func (c *cli) indexCmd() *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Validate the collection and sync the SQLite index",
		Long: `Validates every post and writes the valid ones to the SQLite index.
Posts whose files were removed or became invalid are dropped from the index.

Exits non-zero when any file is invalid; valid posts are still indexed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := c.cfg
			if dbPath != "" {
				cfg.DatabasePath = dbPath
			}

			loader, err := pubcontent.NewLoader(cfg, nil)
			if err != nil {
				return err
			}
			col, err := loader.Load(cmd.Context())
			if err != nil {
				return err
			}

			if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0o755); err != nil {
				return fmt.Errorf("create data dir: %w", err)
			}
			store, err := pubcontent.NewStore(cfg.DatabasePath)
			if err != nil {
				return err
			}
			defer store.Close()

			stats, err := store.Sync(cmd.Context(), col.Entries)
			if err != nil {
				return err
			}
			output.Info(fmt.Sprintf("Indexed %d posts into %s (%d removed)", stats.Saved, cfg.DatabasePath, stats.Removed))
			return report(col)
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite index path (default from config)")

	return cmd
}
