package models

import "time"

// SystemMetrics is a point-in-time snapshot of service counters.
type SystemMetrics struct {
	RequestsTotal            uint64            `json:"requests_total"`
	AverageRequestDurationMs float64           `json:"average_request_duration_ms"`
	CacheHits                uint64            `json:"cache_hits"`
	CacheMisses              uint64            `json:"cache_misses"`
	CacheHitRatio            float64           `json:"cache_hit_ratio"`
	Registrations            map[string]uint64 `json:"registrations"`
	InvariantViolations      uint64            `json:"invariant_violations"`
	ApplicationsSubmitted    uint64            `json:"applications_submitted"`
	Decisions                map[string]uint64 `json:"decisions"`
	CompletionsImported      uint64            `json:"completions_imported"`
	Goroutines               int               `json:"goroutines"`
	GeneratedAt              time.Time         `json:"generated_at"`
}
