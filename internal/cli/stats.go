package cli

import (
	"github.com/spf13/cobra"
)

func newStatsCmd() *cobra.Command {
	var productID string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show feedback statistics",
		Long:  "Show the feedback statistics rollup, optionally for a single product.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.Close()

			stats, err := a.FeedbackService().GetStats(cmd.Context(), productID)
			if err != nil {
				return err
			}

			if isJSON() {
				return printJSON(cmd.OutOrStdout(), stats)
			}
			return printStats(cmd.OutOrStdout(), stats)
		},
	}

	cmd.Flags().StringVar(&productID, "product", "", "restrict statistics to one product ID")

	return cmd
}
