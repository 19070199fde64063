package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/DJ-LIFE/feedback-tool/internal/seed"
)

func newSeedCmd() *cobra.Command {
	var opts seed.Options

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert generated sample feedback",
		Long:  "Insert generated sample feedback spread over the catalog products and the past --days days. The same --seed yields the same ratings, bodies and timestamps.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Count < 1 {
				return fmt.Errorf("--count must be at least 1, got %d", opts.Count)
			}
			if opts.GeneralShare < 0 || opts.GeneralShare > 1 {
				return fmt.Errorf("--general-share must be between 0 and 1, got %g", opts.GeneralShare)
			}

			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.Close()

			opts.Now = time.Now()
			n, err := a.Seed(cmd.Context(), opts)
			if err != nil {
				return err
			}

			if isJSON() {
				return printJSON(cmd.OutOrStdout(), map[string]int{"inserted": n})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "inserted %d feedback records\n", n)
			return nil
		},
	}

	cmd.Flags().IntVar(&opts.Count, "count", 100, "number of records to insert")
	cmd.Flags().IntVar(&opts.Days, "days", 30, "spread creation times over this many past days")
	cmd.Flags().Float64Var(&opts.GeneralShare, "general-share", 0.2, "fraction of records not tied to a product")
	cmd.Flags().Uint64Var(&opts.Seed, "seed", 1, "random seed")

	return cmd
}
