package main

import (
	"fmt"
	"log/slog"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/cognicore/finlex/pkg/finlex/store/sqlite"
	"github.com/cognicore/finlex/pkg/finlex/vocab"
)

func newImportCommand(cc *commandContext) *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "import <file>...",
		Short: "Load dictionary files (.csv, .yaml, .jsonl, .html) into a SQLite store",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := cc.loadConfig()
			if err != nil {
				return err
			}
			logger, err := cc.logger(cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if dbPath == "" {
				dbPath = cfg.Store.Path
			}
			if dbPath == "" {
				return fmt.Errorf("--db or store.path required")
			}

			st, err := sqlite.OpenSQLite(ctx, dbPath)
			if err != nil {
				return err
			}
			defer st.Close()

			// Files are merged through one builder before storing.
			var raw vocab.StaticSource
			for _, path := range args {
				src, err := vocab.SourceForPath(path)
				if err != nil {
					return err
				}
				entries, err := src.Load(ctx)
				if err != nil {
					return fmt.Errorf("read %s: %w", path, err)
				}
				logger.Info("read dictionary", slog.String("path", path), slog.Int("entries", len(entries)))
				raw = append(raw, entries...)
			}
			v, err := vocab.Load(ctx, raw)
			if err != nil {
				return fmt.Errorf("import: %w", err)
			}
			total, err := st.UpsertEntries(ctx, v.Entries())
			if err != nil {
				return fmt.Errorf("import into %s: %w", dbPath, err)
			}

			count, err := st.CountTerms(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %s terms into %s (%s total)\n",
				humanize.Comma(int64(total)), dbPath, humanize.Comma(count))
			return nil
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "", "Target database (defaults to store.path)")
	return cmd
}
