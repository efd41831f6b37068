package main

import (
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newStatsCommand(cc *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show vocabulary and lookup history statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, comp, _, err := cc.loadComponents(ctx, cmd)
			if err != nil {
				return err
			}
			defer comp.Close()

			out := cmd.OutOrStdout()
			v := comp.Vocabulary
			fmt.Fprintln(out, renderTable([]string{"Vocabulary", ""}, [][]string{
				{"source", cfg.Vocabulary.Path},
				{"terms", humanize.Comma(int64(v.Len()))},
				{"aliases", humanize.Comma(int64(v.AliasCount()))},
				{"fingerprint", fmt.Sprintf("%016x", v.Fingerprint())},
			}, nil))

			if comp.Store == nil {
				return nil
			}

			top, err := comp.Store.TopTerms(ctx, limit)
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(top))
			for _, tc := range top {
				rows = append(rows, []string{tc.Term, humanize.Comma(tc.Count)})
			}
			fmt.Fprintln(out, renderTable([]string{"Term", "Lookups"}, rows, []columnAlignment{alignLeft, alignRight}))

			recent, err := comp.Store.RecentLookups(ctx, limit)
			if err != nil {
				return err
			}
			rows = rows[:0]
			for _, l := range recent {
				rows = append(rows, []string{humanize.Time(l.At), l.Input, l.Outcome, l.Term, strconv.Itoa(l.Score)})
			}
			fmt.Fprintln(out, renderTable([]string{"When", "Input", "Outcome", "Term", "Score"}, rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight}))
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "Rows per history table")
	return cmd
}
