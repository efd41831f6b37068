package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/cognicore/finlex/pkg/finlex/vocab"
)

func newExportCommand(cc *commandContext) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "export [file]",
		Short: "Write the loaded dictionary as .csv, .yaml or .jsonl (YAML on stdout without a file)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, comp, logger, err := cc.loadComponents(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer comp.Close()

			entries := comp.Vocabulary.Entries()
			if len(args) == 0 {
				if format == "" {
					format = vocab.FormatYAML
				}
				return vocab.Write(cmd.OutOrStdout(), format, entries)
			}

			path := args[0]
			if format == "" {
				if format, err = vocab.FormatForPath(path); err != nil {
					return err
				}
			}
			f, err := os.Create(path)
			if err != nil {
				return err
			}
			if err := vocab.Write(f, format, entries); err != nil {
				f.Close()
				return fmt.Errorf("export %s: %w", path, err)
			}
			if err := f.Close(); err != nil {
				return err
			}

			logger.Info("exported dictionary", slog.String("path", path), slog.Int("terms", len(entries)))
			fmt.Fprintf(cmd.OutOrStdout(), "exported %s terms to %s\n", humanize.Comma(int64(len(entries))), path)
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "", "Output format: csv, yaml, jsonl (defaults to the file extension)")
	return cmd
}
