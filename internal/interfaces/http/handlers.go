package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/covariant-labs/guardian/internal/analyzer/correlation"
	"github.com/covariant-labs/guardian/internal/coordinator"
	"github.com/covariant-labs/guardian/internal/domain"
	"github.com/covariant-labs/guardian/internal/persistence"
	"github.com/covariant-labs/guardian/internal/report"
	"github.com/covariant-labs/guardian/internal/transport"
)

// Handlers serves the API endpoints. Analysis requests travel over the bus;
// the coordinator's reply comes back as a serialized report.
type Handlers struct {
	bus       *transport.Bus
	dbHealth  persistence.RepositoryHealth
	startedAt time.Time
}

// NewHandlers creates the handler set. dbHealth may be nil when no scenario
// database is configured.
func NewHandlers(bus *transport.Bus, dbHealth persistence.RepositoryHealth) *Handlers {
	return &Handlers{
		bus:       bus,
		dbHealth:  dbHealth,
		startedAt: time.Now(),
	}
}

// analyzeRequest is the POST /v1/analyze body.
type analyzeRequest struct {
	OwnerID  string         `json:"owner_id"`
	Holdings []holdingInput `json:"holdings"`
	Prices   struct {
		Reference    []float64            `json:"reference"`
		Constituents map[string][]float64 `json:"constituents"`
	} `json:"prices"`
	Categories map[string]string `json:"categories"`
}

type holdingInput struct {
	Symbol    string  `json:"symbol"`
	Quantity  float64 `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

// analyzeResponse wraps the report with its rendered text form.
type analyzeResponse struct {
	Report     *coordinator.AnalysisReport `json:"report"`
	ReportText string                      `json:"report_text"`
}

type errorResponse struct {
	Error              string `json:"error"`
	CorrelationID      string `json:"correlation_id,omitempty"`
	CorrelationCause   string `json:"correlation_cause,omitempty"`
	ConcentrationCause string `json:"concentration_cause,omitempty"`
}

// Analyze handles POST /v1/analyze.
func (h *Handlers) Analyze(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r.Context())

	var in analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body: " + err.Error()})
		return
	}

	req, err := buildAnalyzeRequest(requestID, in)
	if err != nil {
		writeError(w, http.StatusBadRequest, errorResponse{Error: err.Error(), CorrelationID: requestID})
		return
	}

	payload, err := json.Marshal(req)
	if err != nil {
		writeError(w, http.StatusInternalServerError, errorResponse{Error: "failed to encode request", CorrelationID: requestID})
		return
	}

	reply, err := h.bus.Request(r.Context(), transport.TopicAnalyze, requestID, payload)
	if err != nil {
		var failure *coordinator.AnalysisFailure
		if errors.As(err, &failure) {
			writeError(w, http.StatusInternalServerError, errorResponse{
				Error:              "analysis failed",
				CorrelationID:      failure.CorrelationID,
				CorrelationCause:   failure.CorrelationCause,
				ConcentrationCause: failure.ConcentrationCause,
			})
			return
		}
		log.Error().Err(err).Str("request_id", requestID).Msg("analysis request failed in transport")
		writeError(w, http.StatusServiceUnavailable, errorResponse{Error: err.Error(), CorrelationID: requestID})
		return
	}

	var rep coordinator.AnalysisReport
	if err := json.Unmarshal(reply.Payload, &rep); err != nil {
		writeError(w, http.StatusInternalServerError, errorResponse{Error: "failed to decode report", CorrelationID: requestID})
		return
	}

	writeJSON(w, http.StatusOK, analyzeResponse{Report: &rep, ReportText: report.Render(&rep)})
}

// Health handles GET /health.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	dbStatus := "disabled"
	code := http.StatusOK

	if h.dbHealth != nil {
		if err := h.dbHealth.Healthy(r.Context()); err != nil {
			status = "degraded"
			dbStatus = err.Error()
			code = http.StatusServiceUnavailable
		} else {
			dbStatus = "healthy"
		}
	}

	writeJSON(w, code, map[string]interface{}{
		"status":         status,
		"database":       dbStatus,
		"uptime_seconds": int(time.Since(h.startedAt).Seconds()),
	})
}

// NotFound is the catch-all route.
func (h *Handlers) NotFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeError(w, http.StatusNotFound, errorResponse{Error: "not found: " + r.URL.Path})
}

func buildAnalyzeRequest(requestID string, in analyzeRequest) (coordinator.AnalyzeRequest, error) {
	var req coordinator.AnalyzeRequest

	holdings := make([]domain.Holding, 0, len(in.Holdings))
	for _, hi := range in.Holdings {
		h, err := domain.NewHolding(
			strings.ToUpper(strings.TrimSpace(hi.Symbol)),
			decimal.NewFromFloat(hi.Quantity),
			decimal.NewFromFloat(hi.UnitPrice),
		)
		if err != nil {
			return req, err
		}
		holdings = append(holdings, h)
	}

	snapshot, err := domain.NewPortfolioSnapshot(in.OwnerID, holdings, time.Now().UTC())
	if err != nil {
		return req, err
	}

	constituents := make(map[string][]float64, len(in.Prices.Constituents))
	for symbol, series := range in.Prices.Constituents {
		constituents[strings.ToUpper(symbol)] = series
	}

	req = coordinator.AnalyzeRequest{
		CorrelationID: requestID,
		Snapshot:      snapshot,
		Prices: correlation.PriceSet{
			Reference:    in.Prices.Reference,
			Constituents: constituents,
		},
		Categories: in.Categories,
	}
	return req, nil
}

func writeJSON(w http.ResponseWriter, code int, body interface{}) {
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, code int, body errorResponse) {
	writeJSON(w, code, body)
}
