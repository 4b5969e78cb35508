// Package server exposes analysis results over HTTP as read-only JSON
// snapshots. It is the boundary for presentation layers; no rendering
// happens here.
package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/mdunlap/budget-analyzer/internal/analysis"
	"github.com/mdunlap/budget-analyzer/internal/config"
	"github.com/mdunlap/budget-analyzer/pkg/constants"
	"go.uber.org/zap"
)

type handler struct {
	logger        *zap.Logger
	maxUploadSize int64
	version       string
}

// NewHandler constructs the HTTP handler that serves the analysis API.
func NewHandler(logger *zap.Logger, maxUploadSize int64, version string) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	if maxUploadSize <= 0 {
		maxUploadSize = constants.DefaultMaxUploadSizeBytes
	}

	trimmedVersion := strings.TrimSpace(version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	h := &handler{logger: logger, maxUploadSize: maxUploadSize, version: trimmedVersion}

	mux := http.NewServeMux()

	// Analysis endpoint (YAML config upload)
	mux.HandleFunc("/api/analysis", h.handleAnalysis)

	// Version endpoint for client metadata
	mux.HandleFunc("/api/version", h.handleVersion)

	mux.HandleFunc("/healthz", h.handleHealth)

	return mux
}

type analysisResponse struct {
	Analyzers []matrixPayload     `json:"analyzers"`
	Gaps      map[string][]string `json:"gaps,omitempty"`
	Warnings  []string            `json:"warnings,omitempty"`
	Duration  string              `json:"duration"`
}

type matrixPayload struct {
	Label         string             `json:"label"`
	Periods       []string           `json:"periods"`
	Categories    []string           `json:"categories"`
	Rows          []matrixRow        `json:"rows"`
	Uncategorized map[string]string  `json:"uncategorized,omitempty"`
	Collisions    []collisionPayload `json:"collisions,omitempty"`
	OverLimit     []overLimitPayload `json:"overLimit,omitempty"`
}

type matrixRow struct {
	Period string            `json:"period"`
	Cells  map[string]string `json:"cells"`
}

type collisionPayload struct {
	Location   string   `json:"location"`
	Categories []string `json:"categories"`
}

type overLimitPayload struct {
	Period   string `json:"period"`
	Category string `json:"category"`
	Amount   string `json:"amount"`
	Limit    string `json:"limit"`
}

func (h *handler) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	start := time.Now()
	if h.maxUploadSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	}

	conf, err := config.LoadConfigurationFromReader(r.Body)
	if err != nil {
		h.logger.Warn("rejected analysis config",
			zap.String("op", "server.handleAnalysis"),
			zap.Error(err),
		)
		http.Error(w, fmt.Sprintf("invalid configuration: %v", err), http.StatusBadRequest)
		return
	}

	warnings := conf.ValidateConfiguration()

	result, err := analysis.Run(h.logger, conf)
	if err != nil {
		h.logger.Warn("analysis run failed",
			zap.String("op", "server.handleAnalysis"),
			zap.Error(err),
		)
		http.Error(w, fmt.Sprintf("analysis failed: %v", err), http.StatusUnprocessableEntity)
		return
	}

	response := analysisResponse{
		Analyzers: make([]matrixPayload, 0, len(result.Matrices)),
		Warnings:  warnings,
		Duration:  time.Since(start).String(),
	}
	for _, m := range result.Matrices {
		response.Analyzers = append(response.Analyzers, buildMatrixPayload(m))
	}
	if len(result.Gaps) > 0 {
		response.Gaps = make(map[string][]string, len(result.Gaps))
		for label, gaps := range result.Gaps {
			for _, p := range gaps {
				response.Gaps[label] = append(response.Gaps[label], p.String())
			}
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("failed to encode analysis response",
			zap.String("op", "server.handleAnalysis"),
			zap.Error(err),
		)
	}
}

func buildMatrixPayload(m *analysis.Matrix) matrixPayload {
	payload := matrixPayload{
		Label:      m.Label,
		Periods:    make([]string, 0, len(m.Periods)),
		Categories: m.Categories,
		Rows:       make([]matrixRow, 0, len(m.Periods)),
	}
	for _, p := range m.Periods {
		payload.Periods = append(payload.Periods, p.String())

		cells := make(map[string]string, len(m.Categories))
		for _, category := range m.Categories {
			cells[category] = m.Cells[p][category].StringFixed(2)
		}
		payload.Rows = append(payload.Rows, matrixRow{Period: p.String(), Cells: cells})
	}

	if len(m.Uncategorized) > 0 {
		payload.Uncategorized = make(map[string]string, len(m.Uncategorized))
		locations := make([]string, 0, len(m.Uncategorized))
		for location := range m.Uncategorized {
			locations = append(locations, location)
		}
		sort.Strings(locations)
		for _, location := range locations {
			payload.Uncategorized[location] = m.Uncategorized[location].StringFixed(2)
		}
	}
	for _, collision := range m.Collisions {
		payload.Collisions = append(payload.Collisions, collisionPayload{
			Location:   collision.Location,
			Categories: collision.Categories,
		})
	}
	for _, over := range m.OverLimit {
		payload.OverLimit = append(payload.OverLimit, overLimitPayload{
			Period:   over.Period.String(),
			Category: over.Category,
			Amount:   over.Amount.StringFixed(2),
			Limit:    over.Limit.StringFixed(2),
		})
	}

	return payload
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"version": h.version})
}

func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
