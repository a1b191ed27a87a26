package cmd

import "github.com/spf13/cobra"

func newBrowseCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Browse the queue",
		Long:  "Open sha256news in browse mode, the two-pane queue browser with post previews.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, opts, true)
		},
	}
}
