package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cognicore/finlex/internal/logging"
	"github.com/cognicore/finlex/pkg/finlex/extract"
)

func newQueryCommand(cc *commandContext) *cobra.Command {
	var explain bool

	cmd := &cobra.Command{
		Use:   "query [question]",
		Short: "Answer a question, or start an interactive session without one",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			_, comp, _, err := cc.loadComponents(ctx, cmd)
			if err != nil {
				return err
			}
			defer comp.Close()

			out := cmd.OutOrStdout()
			ask := func(question string) error {
				ans, err := comp.Service.Answer(ctx, question)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, ans.Message)
				if explain {
					tr, err := comp.Service.ExplainContext(ctx, question)
					if err != nil {
						return err
					}
					fmt.Fprintln(out, renderTrace(tr))
				}
				return nil
			}

			// One-shot query mode
			if len(args) > 0 {
				return ask(strings.Join(args, " "))
			}

			// Interactive mode
			return interactive(cmd.InOrStdin(), out, ask)
		},
	}
	cmd.Flags().BoolVar(&explain, "explain", false, "Show how the term was identified")
	return cmd
}

func interactive(in io.Reader, out io.Writer, ask func(string) error) error {
	prompt := logging.IsTerminal(out)
	if prompt {
		fmt.Fprintln(out, "Ask about a financial term (Ctrl+D to exit).")
	}

	scanner := bufio.NewScanner(in)
	for {
		if prompt {
			fmt.Fprint(out, "> ")
		}
		if !scanner.Scan() {
			break
		}
		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			continue
		}
		if err := ask(question); err != nil {
			return err
		}
		fmt.Fprintln(out)
	}
	return scanner.Err()
}

func renderTrace(tr extract.Trace) string {
	states := make([]string, len(tr.States))
	for i, s := range tr.States {
		states[i] = s.String()
	}
	outcome := "no match"
	if tr.Matched {
		outcome = tr.Term
	}
	rows := [][]string{
		{"tokens", strings.Join(tr.Tokens, " ")},
		{"states", strings.Join(states, " → ")},
		{"full score", strconv.Itoa(tr.FullScore)},
		{"n-grams scanned", strconv.Itoa(tr.Scanned)},
		{"query", tr.Query},
		{"candidate", tr.Candidate},
		{"score", strconv.Itoa(tr.Score)},
		{"term", outcome},
	}
	return renderTable([]string{"Step", "Value"}, rows, nil)
}
