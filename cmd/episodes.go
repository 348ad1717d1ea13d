package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"sani/internal/catalog"
	"sani/internal/media"
	"sani/internal/session"
)

var episodesCmd = &cobra.Command{
	Use:   "episodes <series>",
	Short: "List the episodes of a series",
	Args:  cobra.MinimumNArgs(1),
	RunE:  episodesRun,
}

func episodesRun(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	all, err := a.store.ListSeries(ctx)
	if err != nil {
		return fmt.Errorf("listing series: %w", err)
	}
	query := strings.Join(args, " ")
	series, ok := session.ResolveSeries(query, all)
	if !ok {
		return fmt.Errorf("no series matches %q", query)
	}

	rows, err := episodeTable(ctx, a.store, series)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, series)
	fmt.Fprintln(out, renderTable(
		[]string{"", "Episode", "Files", "Resume"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight}))
	return nil
}

func episodeTable(ctx context.Context, store *catalog.Store, series string) ([][]string, error) {
	rel, err := store.RelativeEpisode(ctx, series)
	if err != nil {
		return nil, fmt.Errorf("reading progress of %q: %w", series, err)
	}
	ids, err := store.ListEpisodes(ctx, series)
	if err != nil {
		return nil, fmt.Errorf("listing episodes of %q: %w", series, err)
	}

	rows := make([][]string, 0, len(ids))
	for _, id := range ids {
		paths, err := store.FindPaths(ctx, series, id)
		if err != nil {
			return nil, fmt.Errorf("finding %s of %q: %w", id, series, err)
		}
		var resume int64
		if len(paths) > 0 {
			resume = store.ResumeTimestamp(ctx, paths[0])
		}
		rows = append(rows, []string{
			episodeMarker(rel, id),
			id.String(),
			strconv.Itoa(len(paths)),
			formatPosition(resume),
		})
	}
	return rows, nil
}

func episodeMarker(rel catalog.Relative, id media.Identity) string {
	switch {
	case rel.Current.Equal(id):
		return "current"
	case rel.Next != nil && rel.Next.Equal(id):
		return "next"
	}
	return ""
}
