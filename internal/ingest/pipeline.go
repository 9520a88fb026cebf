package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minatori/shotseek/internal/config"
	"github.com/minatori/shotseek/internal/engine"
	"github.com/minatori/shotseek/internal/models"
	"go.uber.org/zap"
)

// Pipeline ingests shot artifacts into the engine. Shots already present in
// the engine are skipped, so re-running a pipeline over the same artifacts is
// harmless.
type Pipeline struct {
	engine       *engine.Engine
	config       *config.IngestConfig
	snapshotPath string
	logger       *zap.Logger // optional; when set, logs debug events
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithLogger sets a logger for debug output (artifact read, shots skipped, etc.).
func WithLogger(l *zap.Logger) PipelineOption {
	return func(p *Pipeline) { p.logger = l }
}

// WithSnapshotPath sets the snapshot file written after each artifact when
// the config enables snapshot_per_video.
func WithSnapshotPath(path string) PipelineOption {
	return func(p *Pipeline) { p.snapshotPath = path }
}

// NewPipeline creates a pipeline feeding the given engine.
func NewPipeline(eng *engine.Engine, cfg *config.IngestConfig, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		engine: eng,
		config: cfg,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// IngestFile reads one artifact file and ingests the shots it describes.
// Shots the engine already holds count as skipped rather than failing, which
// lets the watcher re-deliver a file after a partial write. Other ingest
// failures abort the file; the report returned alongside the error carries
// the counts up to that point.
func (p *Pipeline) IngestFile(ctx context.Context, path string) (*models.IngestReport, error) {
	start := time.Now()
	if p.logger != nil {
		p.logger.Debug("ingest reading artifact", zap.String("path", path))
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("absolute path: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(absPath))
	if len(p.config.Extensions) > 0 && !extensionAllowed(ext, p.config.Extensions) {
		return nil, fmt.Errorf("extension %q not in allowed list", ext)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("stat file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("not a regular file: %s", absPath)
	}

	shots, err := ReadArtifact(absPath)
	if err != nil {
		return nil, err
	}

	report := &models.IngestReport{
		ID:   uuid.New().String(),
		Path: absPath,
	}
	for i := range shots {
		s := &shots[i]
		if report.VideoID == "" {
			report.VideoID = s.VideoID
		}
		if p.engine.HasShot(s.VideoID, s.ShotIndex) {
			report.Skipped++
			continue
		}
		if len(s.Embedding) == 0 {
			report.TimeMs = time.Since(start).Milliseconds()
			return report, fmt.Errorf("%s: shot %d has no embedding", absPath, s.ShotIndex)
		}
		if _, err := p.engine.IngestShot(ctx, s.Embedding, s.ShotRecord); err != nil {
			if errors.Is(err, models.ErrDuplicateShot) {
				report.Skipped++
				continue
			}
			report.TimeMs = time.Since(start).Milliseconds()
			return report, fmt.Errorf("%s: shot %d: %w", absPath, s.ShotIndex, err)
		}
		report.Ingested++
	}
	report.TimeMs = time.Since(start).Milliseconds()

	if report.Ingested > 0 && p.config.SnapshotPerVideo && p.snapshotPath != "" {
		if err := p.engine.SaveSnapshot(p.snapshotPath); err != nil {
			return report, fmt.Errorf("save snapshot: %w", err)
		}
	}
	if p.logger != nil {
		p.logger.Debug("ingest artifact done",
			zap.String("path", absPath),
			zap.String("video_id", report.VideoID),
			zap.Int("ingested", report.Ingested),
			zap.Int("skipped", report.Skipped))
	}
	return report, nil
}

// IngestDirectory walks dir and ingests every artifact whose extension is
// allowed. Subdirectories are descended into unless the config disables
// recursion. Returns one report per artifact and the first error encountered.
func (p *Pipeline) IngestDirectory(ctx context.Context, dir string) ([]*models.IngestReport, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("absolute path: %w", err)
	}
	info, err := os.Stat(absDir)
	if err != nil {
		return nil, fmt.Errorf("stat directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", absDir)
	}
	var reports []*models.IngestReport
	err = filepath.WalkDir(absDir, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if path != absDir && !p.config.RecursiveOrDefault() {
				return filepath.SkipDir
			}
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if len(p.config.Extensions) > 0 && !extensionAllowed(ext, p.config.Extensions) {
			return nil
		}
		// Resolve symlinks so only regular files are ingested
		finfo, statErr := os.Stat(path)
		if statErr != nil {
			return nil
		}
		if !finfo.Mode().IsRegular() {
			return nil
		}
		report, ingestErr := p.IngestFile(ctx, path)
		if ingestErr != nil {
			return ingestErr
		}
		reports = append(reports, report)
		return nil
	})
	return reports, err
}

// SyncAll ingests every configured artifact directory. Missing directories
// are logged and skipped so a fresh deployment can start before extraction
// has produced anything.
func (p *Pipeline) SyncAll(ctx context.Context) ([]*models.IngestReport, error) {
	var reports []*models.IngestReport
	for _, dir := range p.config.Directories {
		if _, err := os.Stat(dir); err != nil {
			if p.logger != nil {
				p.logger.Warn("ingest directory unavailable", zap.String("dir", dir), zap.Error(err))
			}
			continue
		}
		dirReports, err := p.IngestDirectory(ctx, dir)
		reports = append(reports, dirReports...)
		if err != nil {
			return reports, err
		}
	}
	return reports, nil
}

func extensionAllowed(ext string, allowed []string) bool {
	extNorm := strings.ToLower(strings.TrimPrefix(ext, "."))
	for _, a := range allowed {
		if strings.ToLower(strings.TrimPrefix(a, ".")) == extNorm {
			return true
		}
	}
	return false
}
