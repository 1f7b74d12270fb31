package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/warit/ridership/backend/internal/contracts"
	"github.com/warit/ridership/backend/internal/gaps"
	"github.com/warit/ridership/backend/internal/pipeline"
	"github.com/warit/ridership/backend/pkg/logger"
)

// Handler serves the feature-table endpoints.
type Handler struct {
	store  contracts.FeatureStore
	runner *pipeline.Runner
	logger *logger.Logger

	mu         sync.RWMutex
	lastReport *pipeline.RunReport
}

// NewHandler creates an API handler.
func NewHandler(store contracts.FeatureStore, runner *pipeline.Runner, log *logger.Logger) *Handler {
	return &Handler{
		store:  store,
		runner: runner,
		logger: log.WithField("module", "api"),
	}
}

// Health reports service liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "ridership-features",
	})
}

// GetFeatures returns feature rows, optionally bounded by ?from and ?to
// (YYYY-MM-DD).
func (h *Handler) GetFeatures(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	fromStr := r.URL.Query().Get("from")
	toStr := r.URL.Query().Get("to")

	var (
		rows []*contracts.FeatureRow
		err  error
	)
	if fromStr != "" && toStr != "" {
		from, ferr := time.Parse("2006-01-02", fromStr)
		to, terr := time.Parse("2006-01-02", toStr)
		if ferr != nil || terr != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "from/to must be YYYY-MM-DD"})
			return
		}
		rows, err = h.store.ReadRange(ctx, from, to)
	} else {
		rows, err = h.store.ReadAll(ctx)
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to read features")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "read failed"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"count": len(rows),
		"rows":  rows,
	})
}

// GetGaps returns the current refresh targets.
func (h *Handler) GetGaps(w http.ResponseWriter, r *http.Request) {
	report, err := gaps.Detect(r.Context(), h.store)
	if errors.Is(err, contracts.ErrEmptyStore) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"empty": true,
		})
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Gap detection failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "gap detection failed"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"empty":         false,
		"max_date":      report.MaxDate.Format("2006-01-02"),
		"missing_rain":  len(report.MissingRain),
		"unclassified":  len(report.Unclassified),
		"rain_dates":    formatDates(report.MissingRain),
		"daytype_dates": formatDates(report.Unclassified),
	})
}

// GetLatestReport returns the aggregate report of the most recent run.
func (h *Handler) GetLatestReport(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	report := h.lastReport
	h.mu.RUnlock()

	if report == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no pipeline run yet"})
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// RunPipeline triggers a synchronous pipeline run.
func (h *Handler) RunPipeline(w http.ResponseWriter, r *http.Request) {
	report, err := h.runner.Run(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Pipeline run failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	h.mu.Lock()
	h.lastReport = report
	h.mu.Unlock()

	writeJSON(w, http.StatusOK, report)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func formatDates(dates []time.Time) []string {
	out := make([]string, 0, len(dates))
	for _, d := range dates {
		out = append(out, d.Format("2006-01-02"))
	}
	return out
}
