package domain

// GatewayStats is an operator-facing snapshot of gateway health, derived
// from the Prometheus counters. Served on the /ops surface.
type GatewayStats struct {
	SessionsStarted     int64   `json:"sessionsStarted"`
	SessionsEnded       int64   `json:"sessionsEnded"`
	SessionsInvalidated int64   `json:"sessionsInvalidated"`
	TotalRequests       int64   `json:"totalRequests"`
	ErrorRate           float64 `json:"errorRate"`
	CacheHitRate        float64 `json:"cacheHitRate"`
	Period              string  `json:"period"`
}
