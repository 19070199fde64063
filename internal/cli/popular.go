package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newPopularCmd() *cobra.Command {
	var (
		limit         int
		minPopularity float64
	)

	cmd := &cobra.Command{
		Use:   "popular",
		Short: "List the most popular feedback",
		Long:  "List feedback ranked by popularity score, highest first.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 1 {
				return fmt.Errorf("--limit must be at least 1, got %d", limit)
			}

			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.Close()

			var floor *float64
			if cmd.Flags().Changed("min-popularity") {
				floor = &minPopularity
			}
			page, err := a.FeedbackService().GetPopular(cmd.Context(), limit, floor)
			if err != nil {
				return err
			}

			if isJSON() {
				return printJSON(cmd.OutOrStdout(), page)
			}
			return printFeedbackTable(cmd.OutOrStdout(), page.Feedbacks)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "number of entries to show")
	cmd.Flags().Float64Var(&minPopularity, "min-popularity", 0, "only show feedback scoring at least this much")

	return cmd
}
