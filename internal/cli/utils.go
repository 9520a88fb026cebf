// Package cli provides CLI utilities for Shotseek.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/minatori/shotseek/internal/models"
)

// SearchOutputFormat is the format for search result output.
type SearchOutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText SearchOutputFormat = "text"
	// OutputCompact is one tab-separated result per line, for piping.
	OutputCompact SearchOutputFormat = "compact"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON SearchOutputFormat = "json"
)

// WriteSearchResults writes search results to w in the given format.
// Use OutputJSON for parseable output consumable by other apps.
func WriteSearchResults(w io.Writer, response *models.SearchResponse, format SearchOutputFormat) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(response)
	case OutputCompact:
		writeSearchResultsCompact(w, response)
		return nil
	default:
		writeSearchResultsText(w, response)
		return nil
	}
}

func writeSearchResultsText(w io.Writer, response *models.SearchResponse) {
	fmt.Fprintf(w, "\nFound %d results in %dms\n\n", response.Total, response.QueryTime)
	for i := range response.Results {
		writeOneResult(w, i+1, &response.Results[i])
	}
}

func writeOneResult(w io.Writer, rank int, result *models.ScoredShot) {
	fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
	fmt.Fprintf(w, "Rank: %d | Score: %.4f | Position: %d\n", rank, result.Score, result.Position)
	fmt.Fprintf(w, "Video: %s | Shot: %d | %s\n", result.VideoID, result.ShotIndex, FormatTimeRange(result.StartTime, result.EndTime))
	if result.KeyframePath != "" {
		fmt.Fprintf(w, "Keyframe: %s\n", result.KeyframePath)
	}
	fmt.Fprintln(w)
}

func writeSearchResultsCompact(w io.Writer, response *models.SearchResponse) {
	for i := range response.Results {
		result := &response.Results[i]
		fmt.Fprintf(w, "%d\t%.4f\t%s\t%d\t%s\n",
			i+1, result.Score, result.VideoID, result.ShotIndex, FormatTimeRange(result.StartTime, result.EndTime))
	}
}

// PrintSearchResults prints search results to stdout in text format (backward compatible).
func PrintSearchResults(response *models.SearchResponse) {
	_ = WriteSearchResults(os.Stdout, response, OutputText)
}

// FormatTimeRange renders a start/end pair of second offsets as "m:ss.t-m:ss.t".
func FormatTimeRange(start, end float64) string {
	return FormatTimestamp(start) + "-" + FormatTimestamp(end)
}

// FormatTimestamp renders a second offset as m:ss.t, or h:mm:ss.t past an
// hour. Offsets are rounded to tenths, so 59.97 carries into the next minute
// instead of printing as 60.0 seconds.
func FormatTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	tenths := int(seconds*10 + 0.5)
	hours := tenths / 36000
	minutes := tenths % 36000 / 600
	rest := tenths % 600
	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d.%d", hours, minutes, rest/10, rest%10)
	}
	return fmt.Sprintf("%d:%02d.%d", minutes, rest/10, rest%10)
}
