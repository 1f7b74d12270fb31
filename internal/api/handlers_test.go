package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warit/ridership/backend/internal/contracts"
	"github.com/warit/ridership/backend/internal/store"
	"github.com/warit/ridership/backend/pkg/logger"
)

func seedRow(t *testing.T, mem *store.Memory, d time.Time) {
	t.Helper()
	row := contracts.NewFeatureRow(d)
	row.Lines[contracts.LineBTS] = 650_000
	require.NoError(t, mem.Put(context.Background(), row))
}

func newTestHandler(mem *store.Memory) *Handler {
	return NewHandler(mem, nil, logger.NewNop())
}

func TestHealth(t *testing.T) {
	rr := httptest.NewRecorder()
	newTestHandler(store.NewMemory()).Health(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestGetFeatures(t *testing.T) {
	mem := store.NewMemory()
	seedRow(t, mem, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	seedRow(t, mem, time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC))
	seedRow(t, mem, time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC))
	h := newTestHandler(mem)

	t.Run("all rows", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.GetFeatures(rr, httptest.NewRequest(http.MethodGet, "/api/features", nil))

		require.Equal(t, http.StatusOK, rr.Code)
		var body struct {
			Count int                     `json:"count"`
			Rows  []*contracts.FeatureRow `json:"rows"`
		}
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		assert.Equal(t, 3, body.Count)
	})

	t.Run("bounded range", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.GetFeatures(rr, httptest.NewRequest(http.MethodGet, "/api/features?from=2025-06-02&to=2025-06-03", nil))

		require.Equal(t, http.StatusOK, rr.Code)
		var body struct {
			Count int `json:"count"`
		}
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		assert.Equal(t, 2, body.Count)
	})

	t.Run("malformed bounds", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.GetFeatures(rr, httptest.NewRequest(http.MethodGet, "/api/features?from=junk&to=2025-06-03", nil))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestGetGaps(t *testing.T) {
	t.Run("empty store", func(t *testing.T) {
		rr := httptest.NewRecorder()
		newTestHandler(store.NewMemory()).GetGaps(rr, httptest.NewRequest(http.MethodGet, "/api/gaps", nil))

		require.Equal(t, http.StatusOK, rr.Code)
		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		assert.Equal(t, true, body["empty"])
	})

	t.Run("fresh rows report gaps", func(t *testing.T) {
		mem := store.NewMemory()
		seedRow(t, mem, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))

		rr := httptest.NewRecorder()
		newTestHandler(mem).GetGaps(rr, httptest.NewRequest(http.MethodGet, "/api/gaps", nil))

		require.Equal(t, http.StatusOK, rr.Code)
		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		assert.Equal(t, false, body["empty"])
		assert.Equal(t, "2025-06-01", body["max_date"])
		assert.Equal(t, 1.0, body["missing_rain"])
		assert.Equal(t, 1.0, body["unclassified"])
	})
}

func TestGetLatestReport_NoRunYet(t *testing.T) {
	rr := httptest.NewRecorder()
	newTestHandler(store.NewMemory()).GetLatestReport(rr, httptest.NewRequest(http.MethodGet, "/api/report/latest", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
