// Package report is the global error surface: a ring of structured error
// records for cross-cutting failures, independent of any per-request
// error response. The Reporter is an explicit dependency handed to the
// components that need it; its lifecycle is owned by main, never by
// package-level state.
package report

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Record is one reported failure.
type Record struct {
	ID      string    `json:"id"`
	Time    time.Time `json:"time"`
	Source  string    `json:"source"` // component or page that reported it
	Kind    string    `json:"kind"`   // network | auth | validation | business | decode | panic
	Message string    `json:"message"`
	Detail  string    `json:"detail,omitempty"`
}

// Reporter keeps the most recent records in a fixed-size ring.
type Reporter struct {
	mu      sync.Mutex
	records []Record
	max     int
	logger  *zap.Logger
}

// NewReporter creates a reporter holding at most max records.
func NewReporter(max int, logger *zap.Logger) *Reporter {
	if max <= 0 {
		max = 100
	}
	return &Reporter{
		records: make([]Record, 0, max),
		max:     max,
		logger:  logger,
	}
}

// Report records a failure and logs it. Returns the stored record.
func (r *Reporter) Report(source, kind, message, detail string) Record {
	rec := Record{
		ID:      uuid.New().String(),
		Time:    time.Now(),
		Source:  source,
		Kind:    kind,
		Message: message,
		Detail:  detail,
	}

	r.mu.Lock()
	if len(r.records) == r.max {
		copy(r.records, r.records[1:])
		r.records[len(r.records)-1] = rec
	} else {
		r.records = append(r.records, rec)
	}
	r.mu.Unlock()

	r.logger.Warn("error reported",
		zap.String("source", source),
		zap.String("kind", kind),
		zap.String("message", message),
	)
	return rec
}

// Recent returns the stored records, newest last.
func (r *Reporter) Recent() []Record {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Record, len(r.records))
	copy(out, r.records)
	return out
}
