package ops

import "time"

// ErrorLog is one row of the operator-facing error journal.
type ErrorLog struct {
	ID        int64     `json:"error_id"`
	Type      string    `json:"error_type"`
	Message   string    `json:"error_message"`
	Severity  string    `json:"severity"`
	Timestamp time.Time `json:"timestamp"`
	Resolved  bool      `json:"is_resolved"`
}

// ErrorFilter narrows ErrorLogs. A nil Resolved means both resolved and
// unresolved rows; an empty Severity means all severities.
type ErrorFilter struct {
	Resolved *bool
	Severity string
}

// APICall records one handled request for the performance report.
type APICall struct {
	Service      string
	Endpoint     string
	StatusCode   int
	ResponseTime time.Duration
	Timestamp    time.Time
}

// ServiceMetric is the per-service aggregate over a time range.
type ServiceMetric struct {
	Service       string  `json:"api_service"`
	RequestCount  int64   `json:"request_count"`
	AvgResponseMS float64 `json:"avg_response_time_ms"`
	MinResponseMS int64   `json:"min_response_time_ms"`
	MaxResponseMS int64   `json:"max_response_time_ms"`
	ErrorCount    int64   `json:"error_count"`
}

// TimeRange is the closed set of reporting windows. Anything else is
// rejected before it reaches a query.
type TimeRange string

const (
	RangeDay   TimeRange = "24h"
	RangeWeek  TimeRange = "7d"
	RangeMonth TimeRange = "30d"
)

// Cutoff returns the window's start relative to now, or false for an
// unknown range.
func (r TimeRange) Cutoff(now time.Time) (time.Time, bool) {
	switch r {
	case RangeDay:
		return now.Add(-24 * time.Hour), true
	case RangeWeek:
		return now.AddDate(0, 0, -7), true
	case RangeMonth:
		return now.AddDate(0, 0, -30), true
	}
	return time.Time{}, false
}

// Health is the operator dashboard summary. Status is healthy, warning
// or critical depending on the unresolved error and failed plan counts.
type Health struct {
	Status               string    `json:"status"`
	UnresolvedErrors     int64     `json:"unresolved_errors"`
	UnmatchedIngredients int64     `json:"unmatched_ingredients"`
	FailedMealPlans      int64     `json:"failed_meal_plans"`
	Timestamp            time.Time `json:"timestamp"`
	Runtime              Runtime   `json:"runtime"`
}

// Runtime is a snapshot of the process itself.
type Runtime struct {
	AllocMB    uint64 `json:"alloc_mb"`
	SysMB      uint64 `json:"sys_mb"`
	NumGC      uint32 `json:"num_gc"`
	Goroutines int    `json:"goroutines"`
}
