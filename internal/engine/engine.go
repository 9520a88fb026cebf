// Package engine owns the paired vector index and metadata store. It is the
// single entry point for ingestion and queries: one reader-writer lock keeps
// the two stores aligned, so readers always observe a complete pair.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/minatori/shotseek/internal/embedding"
	"github.com/minatori/shotseek/internal/models"
	"github.com/minatori/shotseek/internal/snapshot"
	"github.com/minatori/shotseek/internal/store"
	"github.com/minatori/shotseek/internal/vector"
	"github.com/minatori/shotseek/pkg/utils"
)

// Engine answers similarity queries over ingested shots.
type Engine struct {
	mu       sync.RWMutex
	index    vector.Index
	meta     *store.Metadata
	embedder embedding.Embedder
	ready    bool
	logger   *zap.Logger // optional; when set, logs ingest and snapshot events
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets a logger for debug output (shots ingested, snapshots saved, etc.).
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// NewEngine creates an engine over the given index and metadata store.
// The engine starts ready when the index already holds vectors (a snapshot
// restored before construction); otherwise readiness is reached by the first
// successful ingest or snapshot load.
func NewEngine(index vector.Index, meta *store.Metadata, embedder embedding.Embedder, opts ...Option) *Engine {
	e := &Engine{
		index:    index,
		meta:     meta,
		embedder: embedder,
		ready:    index.Count() > 0,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Search resolves the request to a query vector and returns the top matches.
// Text queries go through the embedder; a request vector is used as-is.
func (e *Engine) Search(ctx context.Context, req *models.SearchRequest) (*models.SearchResponse, error) {
	startTime := time.Now()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	vec := req.Vector
	if len(vec) == 0 {
		if e.embedder == nil {
			return nil, errors.New("text query requires an embedder")
		}
		var err error
		vec, err = e.embedder.Embed(ctx, req.Query)
		if err != nil {
			return nil, fmt.Errorf("embed query: %w", err)
		}
	}
	shots, err := e.QueryVector(ctx, vec, req.TopK)
	if err != nil {
		return nil, err
	}
	return &models.SearchResponse{
		Results:   shots,
		Total:     len(shots),
		Query:     req.Query,
		QueryTime: time.Since(startTime).Milliseconds(),
	}, nil
}

// QueryVector returns the top k shots for a raw query vector.
func (e *Engine) QueryVector(ctx context.Context, vec []float32, k int) ([]models.ScoredShot, error) {
	if k < 1 {
		return nil, fmt.Errorf("%w: k must be at least 1, got %d", models.ErrInvalidArgument, k)
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	if !e.ready {
		return nil, fmt.Errorf("%w: no shots ingested or loaded", models.ErrIndexNotReady)
	}
	results, err := e.index.Search(ctx, vec, k)
	if err != nil {
		return nil, err
	}
	return e.joinLocked(results)
}

// QueryBatch answers one query vector per element; result sets align by index.
func (e *Engine) QueryBatch(ctx context.Context, vecs [][]float32, k int) ([][]models.ScoredShot, error) {
	if k < 1 {
		return nil, fmt.Errorf("%w: k must be at least 1, got %d", models.ErrInvalidArgument, k)
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	if !e.ready {
		return nil, fmt.Errorf("%w: no shots ingested or loaded", models.ErrIndexNotReady)
	}
	batch, err := e.index.SearchBatch(ctx, vecs, k)
	if err != nil {
		return nil, err
	}
	out := make([][]models.ScoredShot, len(batch))
	for i, results := range batch {
		out[i], err = e.joinLocked(results)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// joinLocked resolves index hits to scored shots. The caller holds the lock,
// so every position returned by the index has a record.
func (e *Engine) joinLocked(results []vector.Result) ([]models.ScoredShot, error) {
	shots := make([]models.ScoredShot, len(results))
	for i, r := range results {
		record, err := e.meta.Get(r.Position)
		if err != nil {
			return nil, fmt.Errorf("metadata for position %d: %w", r.Position, err)
		}
		shots[i] = models.ScoredShot{Position: r.Position, Score: r.Score, ShotRecord: record}
	}
	return shots, nil
}

// IngestShot appends the embedding and its record as one atomic step: all
// validation happens before either store is touched, so a failed ingest
// leaves no partial state.
func (e *Engine) IngestShot(ctx context.Context, vec []float32, record models.ShotRecord) (int, error) {
	if err := record.Validate(); err != nil {
		return 0, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(vec) != e.index.Dimension() {
		return 0, fmt.Errorf("%w: embedding for video %q shot %d has %d values, index expects %d",
			models.ErrDimensionMismatch, record.VideoID, record.ShotIndex, len(vec), e.index.Dimension())
	}
	if e.meta.Has(record.VideoID, record.ShotIndex) {
		return 0, fmt.Errorf("%w: video %q shot %d", models.ErrDuplicateShot, record.VideoID, record.ShotIndex)
	}
	owned := make([]float32, len(vec))
	copy(owned, vec)
	if utils.Magnitude(owned) == 0 {
		return 0, fmt.Errorf("%w: zero embedding for video %q shot %d", models.ErrInvalidArgument, record.VideoID, record.ShotIndex)
	}
	utils.NormalizeL2(owned)

	// The checks above make both appends infallible, keeping the pair aligned.
	pos, err := e.index.Append(ctx, owned)
	if err != nil {
		return 0, fmt.Errorf("append embedding: %w", err)
	}
	if _, err := e.meta.Append(record); err != nil {
		return 0, fmt.Errorf("append metadata: %w", err)
	}
	e.ready = true
	if e.logger != nil {
		e.logger.Debug("engine ingested shot",
			zap.String("video_id", record.VideoID),
			zap.Int("shot", record.ShotIndex),
			zap.Int("position", pos))
	}
	return pos, nil
}

// HasShot reports whether the (video_id, shot) pair is already indexed.
func (e *Engine) HasShot(videoID string, shotIndex int) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.meta.Has(videoID, shotIndex)
}

// Metadata returns the record stored at position.
func (e *Engine) Metadata(position int) (models.ShotRecord, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.meta.Get(position)
}

// ShotsForVideo returns the video's records ordered by shot index.
func (e *Engine) ShotsForVideo(videoID string) ([]models.ShotRecord, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	shots, err := e.meta.FindByVideo(videoID)
	if err != nil {
		return nil, err
	}
	out := make([]models.ShotRecord, len(shots))
	for i, s := range shots {
		out[i] = s.ShotRecord
	}
	return out, nil
}

// Videos summarizes every indexed video.
func (e *Engine) Videos() []models.VideoSummary {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.meta.Videos()
}

// Stats returns the aggregate view. An empty engine reports Loaded=false and
// zeroed aggregates.
func (e *Engine) Stats() models.Stats {
	e.mu.RLock()
	defer e.mu.RUnlock()
	s := models.Stats{Dimension: e.index.Dimension()}
	n := e.meta.Len()
	if n == 0 {
		return s
	}
	s.Loaded = true
	s.TotalVideos = e.meta.VideoCount()
	s.TotalShots = n
	s.TotalDurationSeconds = e.meta.TotalDuration()
	s.AverageShotDuration = s.TotalDurationSeconds / float64(n)
	return s
}

// Health reports liveness of the loaded state.
func (e *Engine) Health() models.Health {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return models.Health{
		IndexLoaded:    e.ready,
		VectorCount:    e.index.Count(),
		MetadataLoaded: e.meta.Len() > 0,
	}
}

// Count returns the number of indexed shots.
func (e *Engine) Count() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.index.Count()
}

// Ready reports whether the engine has data to serve.
func (e *Engine) Ready() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.ready
}

// SaveSnapshot writes the current state to path. Concurrent readers proceed;
// writers wait for the save to finish.
func (e *Engine) SaveSnapshot(path string) error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if err := snapshot.Save(path, e.index, e.meta); err != nil {
		return err
	}
	if e.logger != nil {
		e.logger.Info("engine saved snapshot", zap.String("path", path), zap.Int("shots", e.index.Count()))
	}
	return nil
}

// LoadSnapshot reads path and replaces the live state in one swap. The new
// state is built before the lock is taken, so readers stall only for the
// pointer exchange.
func (e *Engine) LoadSnapshot(path string) error {
	idx, meta, err := snapshot.Load(path)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if idx.Dimension() != e.index.Dimension() {
		return fmt.Errorf("%w: snapshot dimension %d, index dimension %d",
			models.ErrDimensionMismatch, idx.Dimension(), e.index.Dimension())
	}
	e.index = idx
	e.meta = meta
	e.ready = true
	if e.logger != nil {
		e.logger.Info("engine loaded snapshot", zap.String("path", path), zap.Int("shots", idx.Count()))
	}
	return nil
}

// Close releases the index.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.index.Close()
}
