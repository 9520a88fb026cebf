package models

import "fmt"

const (
	// DefaultTopK is used when a search request leaves top_k unset.
	DefaultTopK = 10
	// MaxTopK caps the number of results a single request may ask for.
	MaxTopK = 100
)

// SearchRequest is a similarity query: free text resolved through the text
// encoder, or a pre-computed query vector. When both are set, Vector wins.
type SearchRequest struct {
	Query  string    `json:"query,omitempty"`
	Vector []float32 `json:"vector,omitempty"`
	TopK   int       `json:"top_k,omitempty"`
}

// Validate normalizes the request: an unset TopK becomes DefaultTopK,
// oversized values clamp to MaxTopK. Negative TopK and a request carrying
// neither text nor vector are rejected.
func (r *SearchRequest) Validate() error {
	if r.Query == "" && len(r.Vector) == 0 {
		return fmt.Errorf("%w: query or vector required", ErrInvalidArgument)
	}
	if r.TopK < 0 {
		return fmt.Errorf("%w: top_k %d must be positive", ErrInvalidArgument, r.TopK)
	}
	if r.TopK == 0 {
		r.TopK = DefaultTopK
	}
	if r.TopK > MaxTopK {
		r.TopK = MaxTopK
	}
	return nil
}

// ScoredShot is a single search hit: the stored record plus its position in
// the index and its inner-product score.
type ScoredShot struct {
	Position int     `json:"position"`
	Score    float32 `json:"score"`
	ShotRecord
}

// SearchResponse is the response for a search request.
type SearchResponse struct {
	Results   []ScoredShot `json:"results"`
	Total     int          `json:"total"`
	Query     string       `json:"query,omitempty"`
	QueryTime int64        `json:"query_time_ms"`
}

// Stats is the aggregate read-only view over the stored shots. Loaded is
// false when no data is present; the remaining fields are zero in that case
// (never a division by zero).
type Stats struct {
	Loaded               bool    `json:"loaded"`
	Dimension            int     `json:"dimension"`
	TotalVideos          int     `json:"total_videos"`
	TotalShots           int     `json:"total_shots"`
	TotalDurationSeconds float64 `json:"total_duration_seconds"`
	AverageShotDuration  float64 `json:"average_shot_duration"`
}

// Health reports liveness of the loaded state.
type Health struct {
	IndexLoaded    bool `json:"index_loaded"`
	VectorCount    int  `json:"vector_count"`
	MetadataLoaded bool `json:"metadata_loaded"`
}

// VideoSummary lists one indexed video and its shot count.
type VideoSummary struct {
	VideoID string `json:"video_id"`
	Shots   int    `json:"shots"`
}

// IngestReport summarizes the outcome of ingesting one artifact file.
type IngestReport struct {
	ID       string `json:"id"`
	Path     string `json:"path"`
	VideoID  string `json:"video_id"`
	Ingested int    `json:"ingested"`
	Skipped  int    `json:"skipped"`
	TimeMs   int64  `json:"time_ms"`
}
