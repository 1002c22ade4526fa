package coordinator

import (
	"fmt"
	"time"
)

// AnalyzerName identifies one of the two sub-analyses.
type AnalyzerName string

const (
	AnalyzerCorrelation   AnalyzerName = "correlation"
	AnalyzerConcentration AnalyzerName = "concentration"
)

// CallState is the per-call state machine: every call starts Pending and
// resolves to exactly one terminal state before synthesis runs.
type CallState string

const (
	StatePending   CallState = "Pending"
	StateSucceeded CallState = "Succeeded"
	StateTimedOut  CallState = "TimedOut"
	StateFailed    CallState = "Failed"
)

// CallOutcome is the transparency record for one analyzer call.
type CallOutcome struct {
	Analyzer AnalyzerName  `json:"analyzer"`
	State    CallState     `json:"state"`
	Duration time.Duration `json:"duration"`
	Identity string        `json:"identity"`
	Cause    string        `json:"cause,omitempty"`
}

// AnalysisFailure is the terminal error returned when both analyzer calls
// fail or time out. No partial result fields accompany it.
type AnalysisFailure struct {
	CorrelationID      string
	CorrelationCause   string
	ConcentrationCause string
}

func (f *AnalysisFailure) Error() string {
	return fmt.Sprintf("analysis %s failed: correlation analyzer: %s; concentration analyzer: %s",
		f.CorrelationID, f.CorrelationCause, f.ConcentrationCause)
}
