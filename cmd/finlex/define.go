package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cognicore/finlex/pkg/finlex/internalerr"
)

func newDefineCommand(cc *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "define <term>",
		Short: "Print the definition of an exact term or alias",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, comp, _, err := cc.loadComponents(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer comp.Close()

			term := strings.Join(args, " ")
			ans, ok := comp.Service.Lookup(term)
			if !ok {
				return fmt.Errorf("term %q: %w", term, internalerr.ErrNotFound)
			}
			fmt.Fprintln(cmd.OutOrStdout(), ans.Message)
			return nil
		},
	}
}
