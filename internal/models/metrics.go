package models

import "time"

// MetricsSnapshot summarises runtime counters for the JSON metrics endpoint.
type MetricsSnapshot struct {
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	ContactUpdates           uint64    `json:"contact_updates"`
	ContactUpdateFailures    uint64    `json:"contact_update_failures"`
	StoreOperations          uint64    `json:"store_operations"`
	AverageStoreOpDurationMs float64   `json:"average_store_op_duration_ms"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
