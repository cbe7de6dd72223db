package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/foodlang/tarjama/internal/embedding"
	"github.com/foodlang/tarjama/internal/extract"
	"github.com/foodlang/tarjama/internal/glossary"
	"github.com/foodlang/tarjama/internal/models"
	"github.com/foodlang/tarjama/internal/retrieval"
	"github.com/foodlang/tarjama/internal/translate"
	"github.com/foodlang/tarjama/internal/version"
)

func (s *Server) handleTranslate(w http.ResponseWriter, r *http.Request) {
	var req models.TranslateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("translate request", zap.Int("length", len(req.Text)))

	translation, err := s.svc.Translate(r.Context(), req.Text)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, translation)
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	filename, content, ok := s.readUpload(w, r)
	if !ok {
		return
	}
	method := r.FormValue("method")
	s.logger.Debug("extract request",
		zap.String("filename", filename),
		zap.String("method", method),
		zap.Int("size", len(content)))

	extraction, err := s.svc.Extract(r.Context(), filename, method, content)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, extraction)
}

type uploadResponse struct {
	Version      models.VersionInfo     `json:"version"`
	ValidCount   int                    `json:"valid_count"`
	SkippedCount int                    `json:"skipped_count"`
	Preview      []models.GlossaryEntry `json:"preview"`
}

func (s *Server) handleUploadGlossary(w http.ResponseWriter, r *http.Request) {
	filename, content, ok := s.readUpload(w, r)
	if !ok {
		return
	}
	s.logger.Debug("glossary upload", zap.String("filename", filename), zap.Int("size", len(content)))

	res, err := s.svc.UploadGlossary(r.Context(), filename, content)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, uploadResponse{
		Version:      res.Version,
		ValidCount:   res.ValidCount,
		SkippedCount: res.SkippedCount,
		Preview:      res.Preview,
	})
}

type rollbackRequest struct {
	VersionID uint64 `json:"version_id"`
}

func (s *Server) handleRollback(w http.ResponseWriter, r *http.Request) {
	var req rollbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("rollback request", zap.Uint64("version", req.VersionID))

	info, err := s.svc.Rollback(req.VersionID)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, info)
}

func (s *Server) handleVersions(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"versions": s.svc.Versions(),
	})
}

type searchMatch struct {
	Entry models.GlossaryEntry `json:"entry"`
	Score float64              `json:"score"`
}

func (s *Server) handleSearchGlossary(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		s.respondError(w, http.StatusBadRequest, "q is required")
		return
	}
	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			s.respondError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	matches, err := s.svc.SearchGlossary(query, limit)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	out := make([]searchMatch, len(matches))
	for i, m := range matches {
		out[i] = searchMatch{Entry: m.Entry, Score: m.Score}
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"matches": out})
}

// handleUsage serves the full statistics on the admin route.
func (s *Server) handleUsage(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.svc.Usage())
}

// handleUsageSummary serves running totals only on the public route.
func (s *Server) handleUsageSummary(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.svc.UsageSummary())
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.svc.Status())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// readUpload reads the "file" part of a multipart form. On failure it writes
// the error response and returns ok=false.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (string, []byte, bool) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid multipart form")
		return "", nil, false
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "file is required")
		return "", nil, false
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "failed to read file")
		return "", nil, false
	}
	return header.Filename, content, true
}

// respondServiceError maps pipeline errors to HTTP statuses.
func (s *Server) respondServiceError(w http.ResponseWriter, err error) {
	var (
		inputErr    *translate.ValidationError
		glossaryErr *glossary.ValidationError
		rollbackErr *version.RollbackError
		buildErr    *version.BuildError
		embedErr    *embedding.ServiceError
		chatErr     *translate.ServiceError
	)
	switch {
	case errors.As(err, &inputErr), errors.As(err, &glossaryErr):
		s.respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, extract.ErrUnknownMethod):
		s.respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, retrieval.ErrNoGlossary):
		s.respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, version.ErrBuildInProgress):
		s.respondError(w, http.StatusConflict, err.Error())
	case errors.As(err, &rollbackErr):
		s.respondError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &embedErr), errors.As(err, &chatErr):
		s.logger.Error("upstream service failed", zap.Error(err))
		s.respondError(w, http.StatusBadGateway, err.Error())
	case errors.As(err, &buildErr):
		s.logger.Error("glossary build failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
	default:
		s.logger.Error("request failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
