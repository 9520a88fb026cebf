package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/minatori/shotseek/internal/config"
	"github.com/minatori/shotseek/internal/models"
	"github.com/minatori/shotseek/internal/submit"
	"go.uber.org/zap"
)

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req models.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.applySearchLimits(&req)
	s.logger.Debug("search request", zap.String("query", req.Query), zap.Int("top_k", req.TopK))
	resp, err := s.engine.Search(r.Context(), &req)
	if err != nil {
		s.respondDomainError(w, err, "search failed")
		return
	}
	s.respondJSON(w, http.StatusOK, resp)
}

// handleSearchGet serves browser-friendly text queries: /api/v1/search?q=...&top_k=...
func (s *Server) handleSearchGet(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		q = r.URL.Query().Get("query")
	}
	req := models.SearchRequest{Query: q}
	if v := r.URL.Query().Get("top_k"); v != "" {
		k, err := strconv.Atoi(v)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "top_k must be an integer")
			return
		}
		req.TopK = k
	}
	s.applySearchLimits(&req)
	resp, err := s.engine.Search(r.Context(), &req)
	if err != nil {
		s.respondDomainError(w, err, "search failed")
		return
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetShot(w http.ResponseWriter, r *http.Request) {
	pos, err := strconv.Atoi(chi.URLParam(r, "position"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "position must be an integer")
		return
	}
	rec, err := s.engine.Metadata(pos)
	if err != nil {
		s.respondDomainError(w, err, "get shot failed")
		return
	}
	s.respondJSON(w, http.StatusOK, models.PositionedShot{Position: pos, ShotRecord: rec})
}

func (s *Server) handleListVideos(w http.ResponseWriter, r *http.Request) {
	videos := s.engine.Videos()
	if videos == nil {
		videos = []models.VideoSummary{}
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":  len(videos),
		"videos": videos,
	})
}

func (s *Server) handleVideoShots(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	shots, err := s.engine.ShotsForVideo(id)
	if err != nil {
		s.respondDomainError(w, err, "video shots failed")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"video_id": id,
		"count":    len(shots),
		"shots":    shots,
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.engine.Stats())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, struct {
		Status string `json:"status"`
		models.Health
	}{Status: "ok", Health: s.engine.Health()})
}

type ingestRequest struct {
	Path string `json:"path"`
}

// handleIngest loads one artifact file or a whole directory of them.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Path == "" {
		s.respondError(w, http.StatusBadRequest, "path is required")
		return
	}
	info, err := os.Stat(req.Path)
	if err != nil {
		if os.IsNotExist(err) {
			s.respondError(w, http.StatusNotFound, "path not found")
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.logger.Debug("ingest request", zap.String("path", req.Path), zap.Bool("directory", info.IsDir()))
	var reports []*models.IngestReport
	if info.IsDir() {
		reports, err = s.pipeline.IngestDirectory(r.Context(), req.Path)
	} else {
		var report *models.IngestReport
		report, err = s.pipeline.IngestFile(r.Context(), req.Path)
		if report != nil {
			reports = append(reports, report)
		}
	}
	if err != nil {
		s.respondDomainError(w, err, "ingest failed")
		return
	}
	ingested, skipped := 0, 0
	for _, report := range reports {
		ingested += report.Ingested
		skipped += report.Skipped
	}
	if reports == nil {
		reports = []*models.IngestReport{}
	}
	s.respondJSON(w, http.StatusCreated, map[string]interface{}{
		"ingested": ingested,
		"skipped":  skipped,
		"reports":  reports,
	})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	path := s.config.Storage.SnapshotPath
	if path == "" {
		s.respondError(w, http.StatusNotImplemented, "snapshot path not configured")
		return
	}
	if err := s.engine.SaveSnapshot(path); err != nil {
		s.respondDomainError(w, err, "snapshot failed")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "saved",
		"path":   path,
		"shots":  s.engine.Count(),
	})
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if s.submitter == nil {
		s.respondError(w, http.StatusNotImplemented, "submit not enabled")
		return
	}
	var req submit.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	sub, err := s.submitter.Submit(r.Context(), &req)
	if err != nil {
		if errors.Is(err, models.ErrInvalidArgument) {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("submit failed", zap.Error(err))
		s.respondError(w, http.StatusBadGateway, err.Error())
		return
	}
	s.respondJSON(w, http.StatusCreated, sub)
}

func (s *Server) handleSubmissionsList(w http.ResponseWriter, r *http.Request) {
	if s.submitLog == nil {
		s.respondError(w, http.StatusNotImplemented, "submit not enabled")
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "offset must be an integer")
		return
	}
	limit, err := queryInt(r, "limit", 50)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "limit must be an integer")
		return
	}
	if limit <= 0 {
		limit = 50
	}
	subs, err := s.submitLog.List(r.Context(), offset, limit)
	if err != nil {
		s.logger.Error("list submissions failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if subs == nil {
		subs = []*submit.Submission{}
	}
	total, err := s.submitLog.Count(r.Context())
	if err != nil {
		s.logger.Error("count submissions failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":       len(subs),
		"total":       total,
		"submissions": subs,
	})
}

func (s *Server) handleWatchDirectoriesList(w http.ResponseWriter, r *http.Request) {
	if s.watch == nil {
		s.respondError(w, http.StatusNotImplemented, "watch not enabled")
		return
	}
	dirs := s.watch.Directories()
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"directories": dirs})
}

type watchAddRequest struct {
	Path string `json:"path"`
	Sync *bool  `json:"sync,omitempty"`
}

func (s *Server) handleWatchDirectoriesAdd(w http.ResponseWriter, r *http.Request) {
	if s.watch == nil {
		s.respondError(w, http.StatusNotImplemented, "watch not enabled")
		return
	}
	var req watchAddRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Path == "" {
		s.respondError(w, http.StatusBadRequest, "path is required")
		return
	}
	abs, err := filepath.Abs(req.Path)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid path")
		return
	}
	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			s.respondError(w, http.StatusNotFound, "directory not found")
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !info.IsDir() {
		s.respondError(w, http.StatusBadRequest, "path is not a directory")
		return
	}
	syncExisting := true
	if req.Sync != nil {
		syncExisting = *req.Sync
	}
	s.logger.Debug("watch add directory request", zap.String("path", abs), zap.Bool("sync_existing", syncExisting))
	if err := s.watch.AddDirectory(abs, syncExisting); err != nil {
		s.logger.Error("watch add directory failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.persistWatchDirectories()
	s.respondJSON(w, http.StatusCreated, map[string]string{"path": abs, "status": "added"})
}

func (s *Server) handleWatchDirectoriesRemove(w http.ResponseWriter, r *http.Request) {
	if s.watch == nil {
		s.respondError(w, http.StatusNotImplemented, "watch not enabled")
		return
	}
	path := r.URL.Query().Get("path")
	if path == "" {
		var body struct {
			Path string `json:"path"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err == nil && body.Path != "" {
			path = body.Path
		}
	}
	if path == "" {
		s.respondError(w, http.StatusBadRequest, "path is required (query or body)")
		return
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid path")
		return
	}
	s.logger.Debug("watch remove directory request", zap.String("path", abs))
	if err := s.watch.RemoveDirectory(abs); err != nil {
		s.logger.Error("watch remove directory failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.persistWatchDirectories()
	s.respondJSON(w, http.StatusOK, map[string]string{"path": abs, "status": "removed"})
}

// persistWatchDirectories writes the current watch roots back to the config
// file so they survive a restart.
func (s *Server) persistWatchDirectories() {
	if s.configPath == "" {
		return
	}
	s.configMu.Lock()
	s.config.Ingest.Directories = s.watch.Directories()
	err := config.Save(s.configPath, s.config)
	s.configMu.Unlock()
	if err != nil {
		s.logger.Warn("failed to persist watch config", zap.Error(err))
	}
}

// applySearchLimits fills the configured top_k default and cap. The engine
// still enforces its own hard limits afterwards.
func (s *Server) applySearchLimits(req *models.SearchRequest) {
	if req.TopK == 0 && s.config.Search.DefaultTopK > 0 {
		req.TopK = s.config.Search.DefaultTopK
	}
	if s.config.Search.MaxTopK > 0 && req.TopK > s.config.Search.MaxTopK {
		req.TopK = s.config.Search.MaxTopK
	}
}

// respondDomainError maps engine errors onto HTTP statuses.
func (s *Server) respondDomainError(w http.ResponseWriter, err error, logMsg string) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, models.ErrInvalidArgument), errors.Is(err, models.ErrDimensionMismatch):
		status = http.StatusBadRequest
	case errors.Is(err, models.ErrOutOfRange), errors.Is(err, models.ErrVideoNotFound):
		status = http.StatusNotFound
	case errors.Is(err, models.ErrDuplicateShot):
		status = http.StatusConflict
	case errors.Is(err, models.ErrIndexNotReady):
		status = http.StatusServiceUnavailable
	}
	if status == http.StatusInternalServerError {
		s.logger.Error(logMsg, zap.Error(err))
	} else {
		s.logger.Debug(logMsg, zap.Error(err))
	}
	s.respondError(w, status, err.Error())
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
