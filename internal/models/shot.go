// Package models defines core data structures for shots, queries, and search results.
package models

import "fmt"

// ShotRecord describes one detected shot of a source video. Field tags match
// the metadata files written by the extraction pipeline, so records round-trip
// between artifact files, the HTTP API, and snapshots without translation.
type ShotRecord struct {
	VideoID      string  `json:"video_id"`
	ShotIndex    int     `json:"shot"`
	StartFrame   int     `json:"start_frame"`
	EndFrame     int     `json:"end_frame"`
	StartTime    float64 `json:"start_time"`
	EndTime      float64 `json:"end_time"`
	KeyframePath string  `json:"keyframe_path"`
}

// Validate checks structural consistency of the record.
func (r *ShotRecord) Validate() error {
	if r.VideoID == "" {
		return fmt.Errorf("%w: video_id cannot be empty", ErrInvalidArgument)
	}
	if r.ShotIndex < 0 {
		return fmt.Errorf("%w: shot index %d is negative", ErrInvalidArgument, r.ShotIndex)
	}
	if r.StartFrame < 0 || r.EndFrame < r.StartFrame {
		return fmt.Errorf("%w: frame range [%d, %d]", ErrInvalidArgument, r.StartFrame, r.EndFrame)
	}
	if r.StartTime < 0 || r.EndTime < r.StartTime {
		return fmt.Errorf("%w: time range [%.3f, %.3f]", ErrInvalidArgument, r.StartTime, r.EndTime)
	}
	return nil
}

// Duration returns the shot length in seconds.
func (r *ShotRecord) Duration() float64 {
	return r.EndTime - r.StartTime
}

// Key returns the (video_id, shot) identity used for duplicate detection.
func (r *ShotRecord) Key() string {
	return ShotKey(r.VideoID, r.ShotIndex)
}

// ShotKey builds the duplicate-detection key for a (video_id, shot) pair.
func ShotKey(videoID string, shotIndex int) string {
	return fmt.Sprintf("%s/%d", videoID, shotIndex)
}

// PositionedShot pairs a record with its position in the index.
type PositionedShot struct {
	Position int `json:"position"`
	ShotRecord
}
