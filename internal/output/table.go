package output

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/osudump/osudump/internal/core"
	"github.com/osudump/osudump/internal/core/mostplayed"
)

// SiteURL is where beatmap set pages are linked to. Links always point at the
// public site, even when the listing comes from a proxy.
const SiteURL = "https://osu.ppy.sh"

// TextFormatter renders a human-readable report: one block per set with a
// difficulty breakdown table, followed by totals.
type TextFormatter struct{}

// FormatSummary renders the sets as a text report.
func (f *TextFormatter) FormatSummary(sets []core.BeatmapsetSummary) (string, error) {
	var b strings.Builder

	for _, set := range sets {
		fmt.Fprintf(&b, "%s by %s (mapped by %s)\n", set.Title, set.Artist, set.Creator)
		fmt.Fprintf(&b, "\tPlays:   %d\n", set.PlayCount)
		fmt.Fprintf(&b, "\tURL:     %s/beatmapsets/%d\n\n", SiteURL, set.SetID)
		b.WriteString("Difficulty Breakdown:\n")
		b.WriteString(breakdownTable(set.BeatmapBreakdown))
		b.WriteString("\n\n")
	}

	totals := mostplayed.ComputeTotals(sets)
	fmt.Fprintf(&b, "Total plays: %d\n", totals.Plays)
	fmt.Fprintf(&b, "Total beatmap sets: %d\n", totals.Sets)
	if totals.HasAverage {
		fmt.Fprintf(&b, "Average play star rating: %.4f\n", totals.AverageStars)
	} else {
		b.WriteString("Average play star rating: n/a\n")
	}

	return b.String(), nil
}

func breakdownTable(beatmaps []core.BeatmapSummary) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Stars", "Mode", "Status", "Plays"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
	})

	for _, beatmap := range beatmaps {
		t.AppendRow(table.Row{
			fmt.Sprintf("%.2f", beatmap.DifficultyRating),
			core.DisplayMode(beatmap.Mode),
			beatmap.Status,
			beatmap.PlayCount,
		})
	}

	return t.Render()
}
