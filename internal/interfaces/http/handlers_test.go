package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/covariant-labs/guardian/internal/coordinator"
	"github.com/covariant-labs/guardian/internal/synthesis"
	"github.com/covariant-labs/guardian/internal/transport"
)

func busServing(t *testing.T, handler transport.Handler) *transport.Bus {
	t.Helper()
	bus := transport.NewBus()
	bus.Register(transport.TopicAnalyze, handler)
	return bus
}

func reportingBus(t *testing.T) *transport.Bus {
	return busServing(t, func(_ context.Context, env transport.Envelope) (json.RawMessage, error) {
		rep := coordinator.AnalysisReport{
			CorrelationID: env.CorrelationID,
			Synthesis: synthesis.Result{
				OverallRiskLevel: synthesis.RiskLow,
				Narrative:        "Your portfolio structure looks healthy.",
			},
			TotalDuration: 12 * time.Millisecond,
		}
		return json.Marshal(rep)
	})
}

func validBody() string {
	return `{
		"owner_id": "demo",
		"holdings": [
			{"symbol": "eth", "quantity": 2, "unit_price": 2400},
			{"symbol": "uni", "quantity": 100, "unit_price": 6}
		],
		"prices": {
			"reference": [100, 101, 102],
			"constituents": {"ETH": [2400, 2410, 2420], "UNI": [6, 6.1, 6.2]}
		},
		"categories": {"ETH": "Majors", "UNI": "DeFi Governance"}
	}`
}

func postAnalyze(h *Handlers, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/v1/analyze", strings.NewReader(body))
	req = req.WithContext(context.WithValue(req.Context(), requestIDKey, "req-test-1"))
	rec := httptest.NewRecorder()
	h.Analyze(rec, req)
	return rec
}

func TestAnalyzeHappyPath(t *testing.T) {
	h := NewHandlers(reportingBus(t), nil)

	rec := postAnalyze(h, validBody())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp analyzeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Report)
	assert.Equal(t, "req-test-1", resp.Report.CorrelationID)
	assert.Contains(t, resp.ReportText, "PORTFOLIO RISK ANALYSIS")
}

func TestAnalyzeRejectsMalformedJSON(t *testing.T) {
	h := NewHandlers(reportingBus(t), nil)

	rec := postAnalyze(h, `{"owner_id": `)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Error, "invalid JSON body")
}

func TestAnalyzeRejectsEmptyPortfolio(t *testing.T) {
	h := NewHandlers(reportingBus(t), nil)

	rec := postAnalyze(h, `{"owner_id": "demo", "holdings": [], "prices": {"reference": [100]}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Error, "zero holdings")
	assert.Equal(t, "req-test-1", resp.CorrelationID)
}

func TestAnalyzeRejectsInvalidHolding(t *testing.T) {
	h := NewHandlers(reportingBus(t), nil)

	rec := postAnalyze(h, `{
		"owner_id": "demo",
		"holdings": [{"symbol": "eth", "quantity": -1, "unit_price": 2400}],
		"prices": {"reference": [100]}
	}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalyzeSurfacesDoubleFailure(t *testing.T) {
	bus := busServing(t, func(_ context.Context, env transport.Envelope) (json.RawMessage, error) {
		return nil, &coordinator.AnalysisFailure{
			CorrelationID:      env.CorrelationID,
			CorrelationCause:   "price feed unreachable",
			ConcentrationCause: "mapping store offline",
		}
	})
	h := NewHandlers(bus, nil)

	rec := postAnalyze(h, validBody())
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "analysis failed", resp.Error)
	assert.Equal(t, "req-test-1", resp.CorrelationID)
	assert.Equal(t, "price feed unreachable", resp.CorrelationCause)
	assert.Equal(t, "mapping store offline", resp.ConcentrationCause)
}

func TestAnalyzeTransportErrorIsServiceUnavailable(t *testing.T) {
	bus := reportingBus(t)
	bus.Stop()
	h := NewHandlers(bus, nil)

	rec := postAnalyze(h, validBody())
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

type stubHealth struct{ err error }

func (s stubHealth) Healthy(context.Context) error { return s.err }

func TestHealthWithoutDatabase(t *testing.T) {
	h := NewHandlers(reportingBus(t), nil)

	rec := httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "disabled", body["database"])
}

func TestHealthDegradedDatabase(t *testing.T) {
	h := NewHandlers(reportingBus(t), stubHealth{err: errors.New("connection refused")})

	rec := httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "degraded", body["status"])
	assert.Contains(t, body["database"], "connection refused")
}

func TestNotFound(t *testing.T) {
	h := NewHandlers(reportingBus(t), nil)

	rec := httptest.NewRecorder()
	h.NotFound(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "/nope")
}
