// Package mostplayed folds raw most-played records into per-set summaries.
package mostplayed

import (
	"cmp"
	"slices"

	"github.com/samber/lo"

	"github.com/osudump/osudump/internal/core"
)

// Summarize groups records by beatmap set, keeping only the given modes (all
// modes when none are given). A difficulty repeated across pages is counted
// once. Sets are ordered by total plays, highest first, ties broken by
// ascending set id; limit > 0 keeps only the first limit sets.
func Summarize(records []core.BeatmapPlaycount, limit int, modes []core.Mode) []core.BeatmapsetSummary {
	allowed := AllowedModes(modes)

	sets := make(map[int]*core.BeatmapsetSummary)
	seen := make(map[core.DifficultyKey]struct{})

	for _, record := range records {
		if _, ok := allowed[record.Beatmap.Mode]; !ok {
			continue
		}

		key := core.KeyOf(record)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		set, ok := sets[key.SetID]
		if !ok {
			sets[key.SetID] = core.SetFromRecord(record)
			continue
		}
		set.PlayCount += int64(record.Count)
		set.BeatmapBreakdown = append(set.BeatmapBreakdown, core.SummaryFromRecord(record))
	}

	result := lo.Map(lo.Values(sets), func(set *core.BeatmapsetSummary, _ int) core.BeatmapsetSummary {
		return *set
	})
	slices.SortFunc(result, func(a, b core.BeatmapsetSummary) int {
		if c := cmp.Compare(b.PlayCount, a.PlayCount); c != 0 {
			return c
		}
		return cmp.Compare(a.SetID, b.SetID)
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result
}

// AllowedModes returns the wire values of modes, or of every known mode when
// modes is empty.
func AllowedModes(modes []core.Mode) map[string]struct{} {
	if len(modes) == 0 {
		modes = core.AllModes
	}
	return lo.Keyify(lo.Map(modes, func(mode core.Mode, _ int) string {
		return mode.WireValue()
	}))
}

// Totals summarizes a result for the report trailer.
type Totals struct {
	Plays int64
	Sets  int

	// AverageStars is the play-weighted mean star rating; HasAverage is
	// false when there are no plays to weigh.
	AverageStars float64
	HasAverage   bool
}

// ComputeTotals returns the play total and play-weighted star rating of sets.
func ComputeTotals(sets []core.BeatmapsetSummary) Totals {
	totals := Totals{
		Plays: lo.SumBy(sets, func(set core.BeatmapsetSummary) int64 { return set.PlayCount }),
		Sets:  len(sets),
	}
	if totals.Plays == 0 {
		return totals
	}

	weighted := lo.SumBy(sets, func(set core.BeatmapsetSummary) float64 {
		return lo.SumBy(set.BeatmapBreakdown, func(beatmap core.BeatmapSummary) float64 {
			return beatmap.DifficultyRating * float64(beatmap.PlayCount)
		})
	})
	totals.AverageStars = weighted / float64(totals.Plays)
	totals.HasAverage = true
	return totals
}
