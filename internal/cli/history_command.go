package cli

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/ctoth/mixkit/internal/tracking"
)

// ErrTrackingDisabled is returned by history when no journal is open
var ErrTrackingDisabled = errors.New("playback tracking is disabled")

// newHistoryCommand creates the history command
func newHistoryCommand() *cobra.Command {
	var (
		since   string
		op      string
		path    string
		runID   string
		failed  bool
		limit   int
		summary bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show journaled mixer operations",
		Long: `Show mixer operations recorded in the playback journal, newest first.

--since accepts a preset (today, yesterday, week, last-week, month,
last-month, all) or a natural phrase such as "3 days ago".

Examples:
  mixkit history
  mixkit history --since yesterday --failed
  mixkit history --op play_music --limit 5
  mixkit history --summary --since "last week"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cli := cliFromContext(cmd.Context())
			if cli.trackingDB == nil {
				return ErrTrackingDisabled
			}

			now := time.Now()
			filter, err := tracking.ParseSince(since, now)
			if err != nil {
				return err
			}
			filter.Op = op
			filter.Path = path
			filter.RunID = runID
			filter.FailedOnly = failed
			filter.Limit = limit

			out := cmd.OutOrStdout()
			if summary {
				return writeSummary(out, cli, filter, now)
			}

			events, err := tracking.GetRecentEvents(cli.trackingDB, filter)
			if err != nil {
				return err
			}
			if len(events) == 0 {
				fmt.Fprintln(out, "no events recorded")
				return nil
			}
			for _, ev := range events {
				writeEvent(out, ev, now)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&since, "since", "", "Only show events after this time")
	cmd.Flags().StringVar(&op, "op", "", "Only show one operation, e.g. play_channel")
	cmd.Flags().StringVar(&path, "path", "", "Only show events for this resource path")
	cmd.Flags().StringVar(&runID, "run", "", "Only show events from one run")
	cmd.Flags().BoolVar(&failed, "failed", false, "Only show failed operations")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of events")
	cmd.Flags().BoolVar(&summary, "summary", false, "Aggregate events instead of listing them")

	return cmd
}

func writeEvent(out io.Writer, ev tracking.PlaybackEvent, now time.Time) {
	fmt.Fprintf(out, "%-14s %-14s", humanize.RelTime(ev.Timestamp, now, "ago", "from now"), ev.Op)

	switch ev.Op {
	case "volume_music", "volume_chunk":
		fmt.Fprintf(out, " volume %d -> %d", ev.Previous, ev.Volume)
		if ev.Op == "volume_chunk" {
			fmt.Fprintf(out, " (channel %d)", ev.Channel)
		}
	case "play_channel", "halt_channel":
		fmt.Fprintf(out, " channel %d", ev.Channel)
	}
	if ev.Op == "play_channel" || ev.Op == "play_music" {
		fmt.Fprintf(out, " loops %d", ev.Loops)
	}
	if ev.Path != "" {
		fmt.Fprintf(out, " %s", ev.Path)
	}
	if ev.Failed() {
		fmt.Fprintf(out, " FAILED: %s", ev.Error)
	}
	fmt.Fprintln(out)
}

func writeSummary(out io.Writer, cli *CLI, filter tracking.QueryFilter, now time.Time) error {
	total, err := tracking.GetSummary(cli.trackingDB, filter)
	if err != nil {
		return err
	}
	if total.TotalEvents == 0 {
		fmt.Fprintln(out, "no events recorded")
		return nil
	}

	fmt.Fprintf(out, "%s events across %d runs, %d failed, %d distinct files\n",
		humanize.Comma(int64(total.TotalEvents)), total.Runs, total.Failures, total.UniquePaths)
	fmt.Fprintf(out, "first %s, last %s\n",
		humanize.RelTime(total.First, now, "ago", "from now"),
		humanize.RelTime(total.Last, now, "ago", "from now"))

	stats, err := tracking.GetOpStats(cli.trackingDB, filter)
	if err != nil {
		return err
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Operations:")
	for _, s := range stats {
		fmt.Fprintf(out, "  %-14s %6d calls %6d failed\n", s.Op, s.Count, s.Failures)
	}

	usage, err := tracking.GetPathUsage(cli.trackingDB, filter)
	if err != nil {
		return err
	}
	if len(usage) == 0 {
		return nil
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Files:")
	for _, u := range usage {
		fmt.Fprintf(out, "  %s: %d loads, %d plays, %d failed, last %s\n",
			u.Path, u.Loads, u.Plays, u.Failures, humanize.RelTime(u.LastSeen, now, "ago", "from now"))
	}
	return nil
}
