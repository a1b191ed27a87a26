package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newCheckCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check <text>...",
		Short: "Show which unwanted terms a piece of text mentions",
		Example: `  sha256news check "Bitcoin ETF inflows top Ethereum and Solana funds"
  sha256news check --log-level debug "Lightning network update"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.load(cmd)
			if err != nil {
				return err
			}
			text := strings.Join(args, " ")
			found := a.engine.FindMatches(text)
			a.log.Debug("checked text", "runes", len([]rune(text)), "matches", len(found))

			out := cmd.OutOrStdout()
			if len(found) == 0 {
				fmt.Fprintln(out, "OK: no unwanted terms")
				return nil
			}
			fmt.Fprintf(out, "Blocked: %s\n", strings.Join(found, ", "))
			return nil
		},
	}
}
