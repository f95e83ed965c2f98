// Package api exposes the pipeline over a minimal HTTP surface: start a run,
// poll its status, list past runs, download the result. The pipeline itself
// stays strictly sequential; the server only accepts one run at a time.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	chi "github.com/go-chi/chi/v5"

	"github.com/minhvu-dev/marketscribe/internal/common"
	"github.com/minhvu-dev/marketscribe/internal/framework"
	"github.com/minhvu-dev/marketscribe/internal/report"
	"github.com/minhvu-dev/marketscribe/internal/research"
	"github.com/minhvu-dev/marketscribe/internal/store"
)

// ErrRunInProgress is returned when a research run is already active.
var ErrRunInProgress = errors.New("research run already in progress")

type Server struct {
	router    chi.Router
	runner    *research.Runner
	catalog   *store.Catalog
	outputDir string

	mu       sync.Mutex
	running  bool
	lastPath string
	lastErr  string
}

func NewServer(runner *research.Runner, catalog *store.Catalog, outputDir string) *Server {
	if strings.TrimSpace(outputDir) == "" {
		outputDir = filepath.Join(os.TempDir(), "marketscribe")
	}
	s := &Server{
		router:    chi.NewRouter(),
		runner:    runner,
		catalog:   catalog,
		outputDir: outputDir,
	}
	s.routes()
	return s
}

func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) routes() {
	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	s.router.Post("/v1/research", s.handleStart)
	s.router.Get("/v1/research/status", s.handleStatus)
	s.router.Get("/v1/research/download", s.handleDownload)
	s.router.Get("/v1/runs", s.handleRuns)
	s.router.Get("/v1/logs", s.handleLogs)
}

type startRequest struct {
	InputPath   string `json:"input_path"`
	Industry    string `json:"industry"`
	Market      string `json:"market"`
	Purpose     string `json:"purpose,omitempty"`
	Mode        string `json:"mode,omitempty"`
	TestingMode bool   `json:"testing_mode,omitempty"`
	ExportDocx  bool   `json:"export_docx,omitempty"`
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	logger := common.Logger()
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}
	if strings.TrimSpace(req.Industry) == "" || strings.TrimSpace(req.InputPath) == "" {
		respondError(w, http.StatusBadRequest, errors.New("industry and input_path are required"))
		return
	}
	if strings.TrimSpace(req.Market) == "" {
		req.Market = "Việt Nam"
	}
	mode := store.ModePerQuestion
	if req.Mode != "" {
		switch store.Mode(req.Mode) {
		case store.ModePerQuestion, store.ModePerCategory:
			mode = store.Mode(req.Mode)
		default:
			respondError(w, http.StatusBadRequest, fmt.Errorf("unknown mode %q", req.Mode))
			return
		}
	}

	grid, err := framework.LoadWorkbook(req.InputPath)
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		respondError(w, http.StatusConflict, ErrRunInProgress)
		return
	}
	s.running = true
	s.lastErr = ""
	s.mu.Unlock()

	outputPath := filepath.Join(s.outputDir,
		fmt.Sprintf("research_%s_%d.json", sanitize(req.Industry), time.Now().Unix()))

	go func() {
		runReq := research.Request{
			Grid:        grid,
			Industry:    req.Industry,
			Market:      req.Market,
			Purpose:     req.Purpose,
			Mode:        mode,
			TestingMode: req.TestingMode,
			OutputPath:  outputPath,
		}
		doc, err := s.runner.Run(context.Background(), runReq)
		s.mu.Lock()
		defer s.mu.Unlock()
		s.running = false
		if err != nil {
			s.lastErr = err.Error()
			logger.Error("api: research run failed", "error", err)
			return
		}
		s.lastPath = outputPath
		if req.ExportDocx {
			docxPath := strings.TrimSuffix(outputPath, ".json") + ".docx"
			exporter := &report.Exporter{}
			if err := exporter.Export(doc, docxPath); err != nil {
				logger.Error("api: report export failed", "error", err)
			}
		}
	}()

	respondJSON(w, http.StatusAccepted, map[string]string{
		"status":      "started",
		"output_path": outputPath,
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	running, lastPath, lastErr := s.running, s.lastPath, s.lastErr
	s.mu.Unlock()
	respondJSON(w, http.StatusOK, map[string]any{
		"running":     running,
		"state":       s.runner.State(),
		"output_path": lastPath,
		"error":       lastErr,
	})
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	path := s.lastPath
	s.mu.Unlock()
	if requested := strings.TrimSpace(r.URL.Query().Get("path")); requested != "" {
		// Only paths under the output directory are served.
		clean := filepath.Clean(requested)
		if !strings.HasPrefix(clean, filepath.Clean(s.outputDir)+string(filepath.Separator)) {
			respondError(w, http.StatusForbidden, errors.New("path outside output directory"))
			return
		}
		path = clean
	}
	if path == "" {
		respondError(w, http.StatusNotFound, errors.New("no result available"))
		return
	}
	http.ServeFile(w, r, path)
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if s.catalog == nil {
		respondError(w, http.StatusServiceUnavailable, errors.New("run catalog not configured"))
		return
	}
	runs, err := s.catalog.ListRuns(r.Context(), 50)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"entries": common.LogEntries()})
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		common.Logger().Error("api: encode response failed", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, err error) {
	respondJSON(w, status, map[string]string{"error": err.Error()})
}

func sanitize(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, name)
}
