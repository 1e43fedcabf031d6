package models

import (
	"errors"
	"strings"
	"time"
)

// ErrEmptyInstrument rejects requests without an instrument code.
var ErrEmptyInstrument = errors.New("instrument_id is required")

// AnalysisRequest asks the worker to analyze one instrument.
type AnalysisRequest struct {
	RequestID    string    `json:"request_id"`
	InstrumentID string    `json:"instrument_id"`
	RequestedAt  time.Time `json:"requested_at"`
}

// Validate trims the instrument code and checks that it is set.
func (r *AnalysisRequest) Validate() error {
	r.InstrumentID = strings.TrimSpace(r.InstrumentID)
	if r.InstrumentID == "" {
		return ErrEmptyInstrument
	}
	return nil
}

// AnalysisResult is published once a requested analysis finished.
type AnalysisResult struct {
	RequestID    string          `json:"request_id"`
	InstrumentID string          `json:"instrument_id"`
	RunID        string          `json:"run_id"`
	Result       AggregateResult `json:"result"`
	Degraded     bool            `json:"degraded"`
	Errors       []string        `json:"errors,omitempty"`
	FinishedAt   time.Time       `json:"finished_at"`
}
