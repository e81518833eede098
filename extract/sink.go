package extract

import (
	"github.com/pevans/newsgrab/logger"
)

// Outcome describes what happened when a probe was tried.
type Outcome string

// Probe outcomes.
const (
	OutcomeAccepted Outcome = "accepted"
	OutcomeRejected Outcome = "rejected" // present but failed validation
	OutcomeMissing  Outcome = "missing"  // no structural match
)

// ProbeSink receives every probe attempt. It is diagnostic only; nothing a
// sink does can change which value is extracted.
type ProbeSink interface {
	Probe(field, probe string, outcome Outcome, value string)
}

// LogSink reports probe attempts to a structured logger at debug level.
type LogSink struct {
	log *logger.Logger
}

// NewLogSink creates a sink over l.
func NewLogSink(l *logger.Logger) *LogSink {
	return &LogSink{log: l}
}

// Probe implements ProbeSink.
func (s *LogSink) Probe(field, probe string, outcome Outcome, value string) {
	s.log.Debug("probe",
		"field", field,
		"probe", probe,
		"outcome", string(outcome),
		"value", Truncate(value, 60),
	)
}

type nopSink struct{}

func (nopSink) Probe(string, string, Outcome, string) {}
