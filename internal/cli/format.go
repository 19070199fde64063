package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/DJ-LIFE/feedback-tool/internal/domain"
)

// printJSON marshals v as indented JSON and writes it to w.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printStats prints a statistics rollup in text format. Timeline dates are
// listed oldest first.
func printStats(w io.Writer, s *domain.StatsSummary) error {
	fmt.Fprintf(w, "Total feedback:   %d\n", s.TotalFeedbacks)
	fmt.Fprintf(w, "Average rating:   %.2f\n", s.AverageRating)
	fmt.Fprintf(w, "Popular feedback: %d\n", s.PopularFeedbacksCount)

	fmt.Fprintln(w, "\nRatings:")
	for r := domain.MaxRating; r >= domain.MinRating; r-- {
		fmt.Fprintf(w, "  %d %-5s %d\n", r, strings.Repeat("*", r), s.RatingDistribution[r])
	}

	if len(s.Timeline) == 0 {
		return nil
	}
	fmt.Fprintln(w, "\nTimeline:")
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "  DATE\tCOUNT\tAVG")
	for _, date := range slices.Sorted(maps.Keys(s.Timeline)) {
		p := s.Timeline[date]
		fmt.Fprintf(tw, "  %s\t%d\t%.2f\n", date, p.Count, p.AvgRating)
	}
	return tw.Flush()
}

// printFeedbackTable prints ranked feedback as a formatted table.
func printFeedbackTable(w io.Writer, views []domain.FeedbackView) error {
	if len(views) == 0 {
		fmt.Fprintln(w, "No feedback found.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SCORE\tRATING\tPRODUCT\tCREATED\tFEEDBACK")
	for _, v := range views {
		fmt.Fprintf(tw, "%.2f\t%d\t%s\t%s\t%s\n",
			v.PopularityScore,
			v.Rating,
			orDash(v.ProductID),
			v.CreatedAt.UTC().Format("2006-01-02"),
			truncate(v.Body, 60),
		)
	}
	return tw.Flush()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// truncate shortens s to at most n runes, marking the cut with an ellipsis.
func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
