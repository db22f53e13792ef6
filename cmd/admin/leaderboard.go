package main

import (
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/huzhengnan/website-monitor-sub000/internal/leaderboard"
	"github.com/huzhengnan/website-monitor-sub000/internal/scoring"
)

func newLeaderboardCommand(opts *options) *cobra.Command {
	var (
		dimension string
		page      int
		pageSize  int
	)

	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Print sites ranked by their latest evaluation",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer e.close()

			result, err := e.components.Services.Evaluations.Leaderboard(cmd.Context(), dimension, page, pageSize)
			if err != nil {
				return err
			}
			renderLeaderboard(cmd.OutOrStdout(), result)
			return nil
		},
	}
	cmd.Flags().StringVar(&dimension, "dimension", scoring.DimensionComposite,
		"score to rank by (composite, market, quality, seo, traffic, revenue)")
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&pageSize, "page-size", leaderboard.MaxPageSize, "entries per page")
	return cmd
}

func renderLeaderboard(w io.Writer, result leaderboard.Result) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle("Leaderboard: " + result.Dimension)

	t.AppendHeader(table.Row{"Rank", "Site", "Domain", "Composite", "Market", "Quality", "SEO", "Traffic", "Revenue", "Date"})
	for _, entry := range result.Entries {
		t.AppendRow(table.Row{
			entry.Rank,
			entry.SiteName,
			entry.Domain,
			entry.Scores.Composite,
			entry.Scores.Market,
			entry.Scores.Quality,
			entry.Scores.SEO,
			entry.Scores.Traffic,
			entry.Scores.Revenue,
			entry.Date.String(),
		})
	}
	t.AppendFooter(table.Row{"", "", "Total", result.Total})
	t.Render()
}
