// Package store holds the positional shot metadata aligned with the vector index.
package store

import (
	"fmt"
	"sort"

	"github.com/minatori/shotseek/internal/models"
)

// Metadata is the append-only record store. Position i here describes the
// vector at position i in the index; the engine keeps the two aligned and
// serializes access, so Metadata does not lock on its own.
type Metadata struct {
	records  []models.ShotRecord
	byVideo  map[string][]int
	seen     map[string]struct{}
	totalDur float64
}

// NewMetadata creates an empty store.
func NewMetadata() *Metadata {
	return &Metadata{
		byVideo: make(map[string][]int),
		seen:    make(map[string]struct{}),
	}
}

// Append validates the record, rejects a duplicate (video_id, shot) pair,
// and stores the record at the next position. The store is unchanged on error.
func (m *Metadata) Append(record models.ShotRecord) (int, error) {
	if err := record.Validate(); err != nil {
		return 0, err
	}
	if _, ok := m.seen[record.Key()]; ok {
		return 0, fmt.Errorf("%w: video %q shot %d", models.ErrDuplicateShot, record.VideoID, record.ShotIndex)
	}
	pos := len(m.records)
	m.records = append(m.records, record)
	m.seen[record.Key()] = struct{}{}
	m.byVideo[record.VideoID] = insertByShotIndex(m.byVideo[record.VideoID], m.records, pos)
	m.totalDur += record.Duration()
	return pos, nil
}

// insertByShotIndex keeps positions ordered by the shot index of the record
// they point at. Artifact files list shots in order, so this is usually a
// plain append.
func insertByShotIndex(positions []int, records []models.ShotRecord, pos int) []int {
	positions = append(positions, pos)
	for i := len(positions) - 1; i > 0; i-- {
		if records[positions[i-1]].ShotIndex <= records[positions[i]].ShotIndex {
			break
		}
		positions[i-1], positions[i] = positions[i], positions[i-1]
	}
	return positions
}

// Get returns the record stored at position.
func (m *Metadata) Get(position int) (models.ShotRecord, error) {
	if position < 0 || position >= len(m.records) {
		return models.ShotRecord{}, fmt.Errorf("%w: position %d, count %d", models.ErrOutOfRange, position, len(m.records))
	}
	return m.records[position], nil
}

// Has reports whether the (video_id, shot) pair is already stored.
func (m *Metadata) Has(videoID string, shotIndex int) bool {
	_, ok := m.seen[models.ShotKey(videoID, shotIndex)]
	return ok
}

// FindByVideo returns the video's (position, record) pairs ordered by shot index.
func (m *Metadata) FindByVideo(videoID string) ([]models.PositionedShot, error) {
	positions, ok := m.byVideo[videoID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", models.ErrVideoNotFound, videoID)
	}
	out := make([]models.PositionedShot, len(positions))
	for i, pos := range positions {
		out[i] = models.PositionedShot{Position: pos, ShotRecord: m.records[pos]}
	}
	return out, nil
}

// Videos summarizes every stored video, ordered by video ID.
func (m *Metadata) Videos() []models.VideoSummary {
	ids := make([]string, 0, len(m.byVideo))
	for id := range m.byVideo {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]models.VideoSummary, len(ids))
	for i, id := range ids {
		out[i] = models.VideoSummary{VideoID: id, Shots: len(m.byVideo[id])}
	}
	return out
}

// Records returns the stored records in position order. Callers must not
// modify the returned slice.
func (m *Metadata) Records() []models.ShotRecord {
	return m.records
}

// Len returns the number of stored records.
func (m *Metadata) Len() int {
	return len(m.records)
}

// VideoCount returns the number of distinct videos.
func (m *Metadata) VideoCount() int {
	return len(m.byVideo)
}

// TotalDuration returns the summed shot duration in seconds.
func (m *Metadata) TotalDuration() float64 {
	return m.totalDur
}
