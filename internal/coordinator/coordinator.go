// Package coordinator owns the end-to-end analysis request: it dispatches
// both analyzer calls concurrently, applies timeout and degradation policy,
// and assembles the combined risk judgment. It is the single boundary where
// all sub-failures are normalized into outcome records; nothing below it may
// leak an unhandled failure upward.
package coordinator

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/covariant-labs/guardian/internal/analyzer/concentration"
	"github.com/covariant-labs/guardian/internal/analyzer/correlation"
	"github.com/covariant-labs/guardian/internal/config"
	"github.com/covariant-labs/guardian/internal/domain"
	"github.com/covariant-labs/guardian/internal/metrics"
	"github.com/covariant-labs/guardian/internal/synthesis"
)

// CorrelationAnalyzer is the correlation sub-analysis contract.
type CorrelationAnalyzer interface {
	Analyze(ctx context.Context, snapshot domain.PortfolioSnapshot, prices correlation.PriceSet) (correlation.Result, error)
}

// ConcentrationAnalyzer is the concentration sub-analysis contract.
type ConcentrationAnalyzer interface {
	Analyze(ctx context.Context, snapshot domain.PortfolioSnapshot, categories map[string]string) (concentration.Result, error)
}

// AnalyzeRequest is the inbound contract from the conversational layer. The
// correlation identifier traces the response back to the right conversation.
type AnalyzeRequest struct {
	CorrelationID string                   `json:"correlation_id"`
	Snapshot      domain.PortfolioSnapshot `json:"snapshot"`
	Prices        correlation.PriceSet     `json:"prices"`
	Categories    map[string]string        `json:"categories"`
}

// AnalysisReport is the outbound contract: verbatim analyzer results, the
// synthesis, per-call outcome records, and the overall wall-clock duration.
type AnalysisReport struct {
	CorrelationID string                `json:"correlation_id"`
	Correlation   *correlation.Result   `json:"correlation,omitempty"`
	Concentration *concentration.Result `json:"concentration,omitempty"`
	Synthesis     synthesis.Result      `json:"synthesis"`
	Outcomes      []CallOutcome         `json:"outcomes"`
	TotalDuration time.Duration         `json:"total_duration"`
	Degraded      bool                  `json:"degraded"`
	DegradedNote  string                `json:"degraded_note,omitempty"`
}

// Coordinator fans the two analyzer calls out, fans their outcomes in, and
// invokes synthesis once both calls have resolved. Configuration is captured
// at construction and never read from ambient state, so concurrent
// coordinators with different thresholds do not interfere.
type Coordinator struct {
	cfg            config.Engine
	correlationA   CorrelationAnalyzer
	concentrationA ConcentrationAnalyzer
	engine         *synthesis.Engine
	collector      *metrics.Collector

	corrIdentity string
	concIdentity string
}

// New constructs a Coordinator. collector may be nil.
func New(cfg config.Engine, corr CorrelationAnalyzer, conc ConcentrationAnalyzer, engine *synthesis.Engine, collector *metrics.Collector) *Coordinator {
	return &Coordinator{
		cfg:            cfg,
		correlationA:   corr,
		concentrationA: conc,
		engine:         engine,
		collector:      collector,
		corrIdentity:   "correlation-analyzer/" + uuid.NewString()[:8],
		concIdentity:   "concentration-analyzer/" + uuid.NewString()[:8],
	}
}

// callResult fans one analyzer outcome back in.
type callResult struct {
	outcome       CallOutcome
	correlation   *correlation.Result
	concentration *concentration.Result
}

// Analyze runs the full request. It returns *AnalysisFailure (as error) only
// when both analyzer calls fail or time out; a single loss degrades to a
// partial report instead.
func (c *Coordinator) Analyze(ctx context.Context, req AnalyzeRequest) (*AnalysisReport, error) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, c.cfg.OverallDeadline)
	defer cancel()

	log.Info().
		Str("request_id", req.CorrelationID).
		Str("owner", req.Snapshot.OwnerID).
		Int("holdings", len(req.Snapshot.Holdings)).
		Msg("analysis request accepted")

	corrCh := make(chan callResult, 1)
	concCh := make(chan callResult, 1)

	go c.runCall(ctx, AnalyzerCorrelation, c.corrIdentity, corrCh, func(callCtx context.Context) (callResult, error) {
		result, err := c.correlationA.Analyze(callCtx, req.Snapshot, req.Prices)
		if err != nil {
			return callResult{}, err
		}
		return callResult{correlation: &result}, nil
	})
	go c.runCall(ctx, AnalyzerConcentration, c.concIdentity, concCh, func(callCtx context.Context) (callResult, error) {
		result, err := c.concentrationA.Analyze(callCtx, req.Snapshot, req.Categories)
		if err != nil {
			return callResult{}, err
		}
		return callResult{concentration: &result}, nil
	})

	// Synthesis strictly requires both outcomes resolved; the buffered
	// channels mean neither goroutine blocks on the other's completion.
	corrRes := <-corrCh
	concRes := <-concCh

	outcomes := []CallOutcome{corrRes.outcome, concRes.outcome}
	corrOK := corrRes.outcome.State == StateSucceeded
	concOK := concRes.outcome.State == StateSucceeded

	if !corrOK && !concOK {
		log.Error().
			Str("request_id", req.CorrelationID).
			Str("correlation_cause", corrRes.outcome.Cause).
			Str("concentration_cause", concRes.outcome.Cause).
			Msg("both analyzers failed, returning terminal failure")
		return nil, &AnalysisFailure{
			CorrelationID:      req.CorrelationID,
			CorrelationCause:   corrRes.outcome.Cause,
			ConcentrationCause: concRes.outcome.Cause,
		}
	}

	report := &AnalysisReport{
		CorrelationID: req.CorrelationID,
		Correlation:   corrRes.correlation,
		Concentration: concRes.concentration,
		Outcomes:      outcomes,
	}

	switch {
	case corrOK && concOK:
		for _, o := range outcomes {
			log.Info().
				Str("request_id", req.CorrelationID).
				Str("analyzer", string(o.Analyzer)).
				Str("identity", o.Identity).
				Dur("duration", o.Duration).
				Msg("analyzer call succeeded")
		}
		report.Synthesis = c.engine.Synthesize(ctx, *corrRes.correlation, *concRes.concentration)

	case corrOK:
		note := degradedNote(concRes.outcome)
		log.Warn().Str("request_id", req.CorrelationID).Str("note", note).Msg("degraded synthesis: concentration unavailable")
		report.Degraded = true
		report.DegradedNote = note
		report.Synthesis = c.engine.SynthesizeCorrelationOnly(*corrRes.correlation, note)

	default:
		note := degradedNote(corrRes.outcome)
		log.Warn().Str("request_id", req.CorrelationID).Str("note", note).Msg("degraded synthesis: correlation unavailable")
		report.Degraded = true
		report.DegradedNote = note
		report.Synthesis = c.engine.SynthesizeConcentrationOnly(*concRes.concentration, note)
	}

	report.TotalDuration = time.Since(start)
	log.Info().
		Str("request_id", req.CorrelationID).
		Str("risk_level", string(report.Synthesis.OverallRiskLevel)).
		Bool("degraded", report.Degraded).
		Dur("total", report.TotalDuration).
		Msg("analysis complete")
	return report, nil
}

// runCall executes one analyzer call under the per-call timeout. A timeout
// cancels the call's context (best-effort cancellation of in-flight work) and
// resolves the call without blocking the other; a panic inside the analyzer
// is caught here and normalized to a Failed outcome.
func (c *Coordinator) runCall(ctx context.Context, name AnalyzerName, identity string, out chan<- callResult, fn func(context.Context) (callResult, error)) {
	start := time.Now()
	callCtx, cancel := context.WithTimeout(ctx, c.cfg.PerCallTimeout)
	defer cancel()

	done := make(chan callResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				res := callResult{}
				res.outcome = CallOutcome{Analyzer: name, State: StateFailed, Identity: identity, Cause: fmt.Sprintf("panic: %v", r)}
				done <- res
			}
		}()

		res, err := fn(callCtx)
		if err != nil {
			state := StateFailed
			if callCtx.Err() != nil {
				state = StateTimedOut
			}
			res.outcome = CallOutcome{Analyzer: name, State: state, Identity: identity, Cause: err.Error()}
		} else {
			res.outcome = CallOutcome{Analyzer: name, State: StateSucceeded, Identity: identity}
		}
		done <- res
	}()

	var res callResult
	select {
	case res = <-done:
	case <-callCtx.Done():
		res = callResult{outcome: CallOutcome{
			Analyzer: name,
			State:    StateTimedOut,
			Identity: identity,
			Cause:    fmt.Sprintf("timed out after %s", c.cfg.PerCallTimeout),
		}}
	}

	res.outcome.Duration = time.Since(start)
	if c.collector != nil {
		c.collector.ObserveAnalyzerCall(string(name), string(res.outcome.State), res.outcome.Duration)
	}
	out <- res
}

func degradedNote(o CallOutcome) string {
	verb := "failed"
	if o.State == StateTimedOut {
		verb = "timed out"
	}
	return fmt.Sprintf("the %s analyzer %s (%s); the risk judgment below is based on partial information", o.Analyzer, verb, o.Cause)
}
