package core

import "math"

// BeatmapPlaycount is one item of a most-played page as returned by the osu! API.
type BeatmapPlaycount struct {
	BeatmapID  int        `json:"beatmap_id"`
	Count      int        `json:"count"`
	Beatmap    Beatmap    `json:"beatmap"`
	Beatmapset Beatmapset `json:"beatmapset"`
}

// Beatmap describes a single difficulty.
type Beatmap struct {
	ID               int     `json:"id"`
	DifficultyRating float64 `json:"difficulty_rating"`
	Mode             string  `json:"mode"`
	Status           string  `json:"status"`
}

// Beatmapset describes the set owning a difficulty.
type Beatmapset struct {
	ID            int    `json:"id"`
	Artist        string `json:"artist"`
	ArtistUnicode string `json:"artist_unicode,omitempty"`
	Creator       string `json:"creator"`
	Title         string `json:"title"`
	TitleUnicode  string `json:"title_unicode,omitempty"`
}

// BeatmapSummary is one difficulty's contribution within a set.
type BeatmapSummary struct {
	ID               int     `json:"id"`
	DifficultyRating float64 `json:"difficulty_rating"`
	Mode             string  `json:"mode"`
	Status           string  `json:"status"`
	PlayCount        int     `json:"play_count"`
}

// BeatmapsetSummary aggregates the kept difficulties of one set.
type BeatmapsetSummary struct {
	SetID            int              `json:"set_id"`
	Artist           string           `json:"artist"`
	Creator          string           `json:"creator"`
	Title            string           `json:"title"`
	PlayCount        int64            `json:"play_count"`
	BeatmapBreakdown []BeatmapSummary `json:"beatmap_breakdown"`
}

// DifficultyKey identifies a difficulty within a set. The star rating is scaled
// to four decimal digits so float noise does not split one difficulty in two.
type DifficultyKey struct {
	SetID  int
	Scaled int64
}

// KeyOf returns the DifficultyKey of a record.
func KeyOf(record BeatmapPlaycount) DifficultyKey {
	return DifficultyKey{
		SetID:  record.Beatmapset.ID,
		Scaled: int64(math.Round(record.Beatmap.DifficultyRating * 10000)),
	}
}

// SummaryFromRecord seeds a difficulty summary from a raw record.
func SummaryFromRecord(record BeatmapPlaycount) BeatmapSummary {
	return BeatmapSummary{
		ID:               record.BeatmapID,
		DifficultyRating: record.Beatmap.DifficultyRating,
		Mode:             record.Beatmap.Mode,
		Status:           record.Beatmap.Status,
		PlayCount:        record.Count,
	}
}

// SetFromRecord seeds a set summary holding only the given record.
func SetFromRecord(record BeatmapPlaycount) *BeatmapsetSummary {
	return &BeatmapsetSummary{
		SetID:            record.Beatmapset.ID,
		Artist:           record.Beatmapset.Artist,
		Creator:          record.Beatmapset.Creator,
		Title:            record.Beatmapset.Title,
		PlayCount:        int64(record.Count),
		BeatmapBreakdown: []BeatmapSummary{SummaryFromRecord(record)},
	}
}
