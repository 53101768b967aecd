package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/leapstack-labs/leapmigrate/internal/engine"
	"github.com/leapstack-labs/leapmigrate/internal/state"
	"github.com/leapstack-labs/leapmigrate/pkg/catalog"
	"github.com/leapstack-labs/leapmigrate/pkg/dialect"
)

// MigrateRequest is the body of POST /api/migrate.
type MigrateRequest struct {
	InputPath     string `json:"input_path"`
	OutputPath    string `json:"output_path"`
	LegacyDialect string `json:"legacy_dialect"`
	TargetDialect string `json:"target_dialect"`
}

func (r *MigrateRequest) applyDefaults() {
	if r.InputPath == "" {
		r.InputPath = DefaultInputPath
	}
	if r.OutputPath == "" {
		r.OutputPath = DefaultOutputPath
	}
	if r.LegacyDialect == "" {
		r.LegacyDialect = DefaultLegacyDialect
	}
	if r.TargetDialect == "" {
		r.TargetDialect = DefaultTargetDialect
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleMigrate(w http.ResponseWriter, r *http.Request) {
	var req MigrateRequest
	if r.ContentLength != 0 {
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
			return
		}
	}
	req.applyDefaults()

	cfg := s.base
	cfg.InputPath = req.InputPath
	cfg.OutputPath = req.OutputPath
	cfg.LegacyDialect = req.LegacyDialect
	cfg.TargetDialect = req.TargetDialect

	s.logger.Info("migration requested",
		"input", cfg.InputPath, "legacy_dialect", cfg.LegacyDialect, "target_dialect", cfg.TargetDialect)

	res, err := s.run(r.Context(), cfg)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, engine.ErrInvalidInputPath) ||
			errors.Is(err, engine.ErrOutputPathRequired) ||
			errors.Is(err, dialect.ErrUnsupportedDialect) {
			status = http.StatusBadRequest
		}
		s.logger.Error("migration failed", "error", err)
		writeJSON(w, status, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleDialects(w http.ResponseWriter, _ *http.Request) {
	cat := s.base.Catalog
	if cat == nil {
		var err error
		cat, err = catalog.Load(s.base.MappingsFile)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"dialects": cat.Dialects()})
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "run history is not configured"})
		return
	}
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "limit must be a positive integer"})
			return
		}
		limit = n
	}
	runs, err := s.store.ListRuns(r.Context(), limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	if runs == nil {
		runs = []*state.Run{}
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "run history is not configured"})
		return
	}
	run, err := s.store.GetRun(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, state.ErrRunNotFound) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
