package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aluiziolira/go-parse-books/grammar"
	"github.com/aluiziolira/go-parse-books/loader"
)

func newCheckCmd(opts *options) *cobra.Command {
	var ruleName string

	cmd := &cobra.Command{
		Use:   "check --rule <name> <file|url|->",
		Short: "Run one grammar rule and print the node tree",
		Long: fmt.Sprintf(`Matches a single grammar rule at the start of the input and prints the
resulting node tree with byte spans. Every rule except books accepts a prefix.

Rules: %s`, ruleNames()),
		Args: exactlyOne("file path"),
		RunE: func(cmd *cobra.Command, args []string) error {
			rule, err := grammar.ParseRule(ruleName)
			if err != nil {
				return err
			}
			l := loader.New(opts.cfg, nil).WithStdin(cmd.InOrStdin())
			doc, err := l.Load(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			nodes, err := grammar.Parse(rule, doc.Text)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, n := range nodes {
				printTree(out, n)
				fmt.Fprintf(out, "matched %d of %d bytes\n", n.Span.Len(), len(doc.Text))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&ruleName, "rule", "r", grammar.Books.String(), "Grammar rule to run")
	return cmd
}

func printTree(w io.Writer, root *grammar.Node) {
	root.Walk(func(n *grammar.Node, depth int) bool {
		line := fmt.Sprintf("%s%s [%d, %d)", strings.Repeat("  ", depth), n.Rule, n.Span.Start, n.Span.End)
		if len(n.Children) == 0 {
			line += " " + strconv.Quote(n.Text())
		}
		fmt.Fprintln(w, line)
		return true
	})
}

func ruleNames() string {
	names := make([]string, 0, len(grammar.Rules()))
	for _, r := range grammar.Rules() {
		names = append(names, r.String())
	}
	return strings.Join(names, ", ")
}
