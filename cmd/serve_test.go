package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/crm-tasks/internal/config"
	"github.com/sells-group/crm-tasks/internal/engine"
	"github.com/sells-group/crm-tasks/internal/model"
	"github.com/sells-group/crm-tasks/internal/report"
	"github.com/sells-group/crm-tasks/internal/store"
)

func newTestRouter(t *testing.T, serverCfg config.ServerConfig) (http.Handler, store.Store) {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "crm.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Migrate(t.Context()))

	svc := engine.New(st)
	return newRouter(svc, report.NewCollector(st), st, serverCfg), st
}

func postEvent(t *testing.T, handler http.Handler, event model.LeadEvent) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(event)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/hooks/lead-event", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	handler, _ := newTestRouter(t, config.ServerConfig{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok"`)
}

func TestLeadEventHook(t *testing.T) {
	handler, _ := newTestRouter(t, config.ServerConfig{})

	rec := postEvent(t, handler, model.LeadEvent{
		EventType: model.EventLeadAssigned,
		LeadID:    12,
		Lead: model.LeadSnapshot{
			ID:         12,
			LeadNumber: "L-0012",
			ClientName: "Acme Traders",
			Status:     model.LeadStatusAssigned,
		},
		TriggeredBy: "user-3",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var result model.GenerationResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.True(t, result.Success)
	assert.Equal(t, 1, result.TasksGenerated)

	// Tasks readable back through the API.
	req := httptest.NewRequest(http.MethodGet, "/leads/12/tasks", nil)
	rec2 := httptest.NewRecorder()
	handler.ServeHTTP(rec2, req)
	require.Equal(t, http.StatusOK, rec2.Code)

	var listing struct {
		LeadID int                   `json:"lead_id"`
		Tasks  []model.GeneratedTask `json:"tasks"`
	}
	require.NoError(t, json.Unmarshal(rec2.Body.Bytes(), &listing))
	assert.Equal(t, 12, listing.LeadID)
	require.Len(t, listing.Tasks, 1)
	assert.Equal(t, "Acme Traders", listing.Tasks[0].ClientName)
}

func TestLeadEventHook_Validation(t *testing.T) {
	handler, _ := newTestRouter(t, config.ServerConfig{})

	// Missing event type.
	rec := postEvent(t, handler, model.LeadEvent{LeadID: 1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Missing lead id.
	rec = postEvent(t, handler, model.LeadEvent{EventType: model.EventLeadAssigned})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Quotation event without quotation data.
	rec = postEvent(t, handler, model.LeadEvent{
		EventType: model.EventQuotationSent,
		LeadID:    1,
		Lead:      model.LeadSnapshot{ID: 1, ClientName: "Acme"},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "quotation_data")

	// Malformed body.
	req := httptest.NewRequest(http.MethodPost, "/hooks/lead-event", bytes.NewReader([]byte("{")))
	rec2 := httptest.NewRecorder()
	handler.ServeHTTP(rec2, req)
	assert.Equal(t, http.StatusBadRequest, rec2.Code)
}

func TestLeadAnalyticsEndpoint(t *testing.T) {
	handler, _ := newTestRouter(t, config.ServerConfig{})

	postEvent(t, handler, model.LeadEvent{
		EventType: model.EventLeadAssigned,
		LeadID:    30,
		Lead:      model.LeadSnapshot{ID: 30, ClientName: "Acme", Status: model.LeadStatusAssigned},
	})

	req := httptest.NewRequest(http.MethodGet, "/leads/30/analytics", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var analytics report.LeadAnalytics
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &analytics))
	assert.Equal(t, 30, analytics.Stats.LeadID)
	assert.Equal(t, 1, analytics.Stats.TotalTasks)
	assert.Equal(t, 1, analytics.RecentAttempts)
}

func TestSummaryEndpoint(t *testing.T) {
	handler, _ := newTestRouter(t, config.ServerConfig{})

	postEvent(t, handler, model.LeadEvent{
		EventType: model.EventLeadAssigned,
		LeadID:    40,
		Lead:      model.LeadSnapshot{ID: 40, ClientName: "Acme", Status: model.LeadStatusAssigned},
	})

	req := httptest.NewRequest(http.MethodGet, "/summary?hours=24", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var summary report.Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, 1, summary.TasksCreated)

	// Bad hours value.
	req = httptest.NewRequest(http.MethodGet, "/summary?hours=abc", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRateLimit(t *testing.T) {
	handler, _ := newTestRouter(t, config.ServerConfig{RateLimitRPS: 1, RateBurst: 1})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}
