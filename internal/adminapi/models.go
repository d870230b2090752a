package adminapi

import "time"

// StatusResponse is a minimal liveness response.
type StatusResponse struct {
	Status string `json:"status"`
}

// StatsResponse reports process/system health: uptime, CPU and memory. It
// carries no resolution subsystem counters.
type StatsResponse struct {
	Uptime        string  `json:"uptime"`
	UptimeSeconds int64   `json:"uptime_seconds"`
	CPUPercent    float64 `json:"cpu_used_percent"`
	MemoryUsedMB  float64 `json:"memory_used_mb"`
	MemoryPercent float64 `json:"memory_used_percent"`
}

// BackendEntry describes one registered resolve.Resolver, in registry order.
type BackendEntry struct {
	Name     string `json:"name"`
	Priority int    `json:"priority"`
	Selected bool   `json:"selected"`
}

// RegistryResponse lists every registered backend in selection order.
type RegistryResponse struct {
	Backends []BackendEntry `json:"backends"`
}

// NameserverHealth mirrors recursive.Snapshot for the admin surface.
type NameserverHealth struct {
	Nameserver string        `json:"nameserver"`
	Healthy    bool          `json:"healthy"`
	FailedFor  time.Duration `json:"failed_for,omitempty"`
}

// RecursiveBackendResponse summarizes the recursive-stub backend's
// configuration and live nameserver health.
type RecursiveBackendResponse struct {
	Name        string             `json:"name"`
	Nameservers []NameserverHealth `json:"nameservers"`
}

// ErrorResponse is the standard JSON error body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// SIPTargetEntry is one resolved SIP destination, in preference order.
type SIPTargetEntry struct {
	Transport string `json:"transport"`
	Address   string `json:"address"`
	Port      uint16 `json:"port"`
}

// SIPResolveResponse is the result of an RFC 3263 target resolution.
type SIPResolveResponse struct {
	Host    string           `json:"host"`
	Targets []SIPTargetEntry `json:"targets"`
}

// CacheStatsResponse reports the result cache's hit/miss counters.
type CacheStatsResponse struct {
	Hits         int `json:"hits"`
	Misses       int `json:"misses"`
	NegativeHits int `json:"negative_hits"`
	Entries      int `json:"entries"`
}
