package output

import (
	"encoding/json"

	"github.com/osudump/osudump/internal/core"
)

// JSONFormatter renders results as JSON.
type JSONFormatter struct {
	Indent bool
}

// FormatSummary renders the sets as a JSON array.
func (f *JSONFormatter) FormatSummary(sets []core.BeatmapsetSummary) (string, error) {
	if sets == nil {
		sets = []core.BeatmapsetSummary{}
	}

	var (
		data []byte
		err  error
	)

	if f.Indent {
		data, err = json.MarshalIndent(sets, "", "  ")
	} else {
		data, err = json.Marshal(sets)
	}
	if err != nil {
		return "", err
	}

	return string(data), nil
}
