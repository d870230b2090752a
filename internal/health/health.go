// Package health reports process- and system-level runtime statistics for
// the admin introspection surface.
package health

import (
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// MemoryStats summarizes system memory usage.
type MemoryStats struct {
	TotalMB     float64 `json:"total_mb"`
	FreeMB      float64 `json:"free_mb"`
	UsedMB      float64 `json:"used_mb"`
	UsedPercent float64 `json:"used_percent"`
}

// CPUStats summarizes system CPU usage.
type CPUStats struct {
	NumCPU      int     `json:"num_cpu"`
	UsedPercent float64 `json:"used_percent"`
	IdlePercent float64 `json:"idle_percent"`
}

// Snapshot is a point-in-time view of process and system health.
type Snapshot struct {
	Uptime        string    `json:"uptime"`
	UptimeSeconds int64     `json:"uptime_seconds"`
	StartTime     time.Time `json:"start_time"`
	CPU           CPUStats  `json:"cpu"`
	Memory        MemoryStats `json:"memory"`
}

// Reporter samples process uptime plus system CPU/memory usage.
type Reporter struct {
	startTime time.Time
}

// NewReporter returns a Reporter whose uptime is measured from now.
func NewReporter() *Reporter {
	return &Reporter{startTime: time.Now()}
}

// Sample takes a fresh snapshot. The CPU sample blocks for ~200ms to
// average usage over a short window.
func (r *Reporter) Sample() Snapshot {
	uptime := time.Since(r.startTime)

	var memStats MemoryStats
	if vmStat, err := mem.VirtualMemory(); err == nil {
		memStats = MemoryStats{
			TotalMB:     float64(vmStat.Total) / 1024 / 1024,
			FreeMB:      float64(vmStat.Available) / 1024 / 1024,
			UsedMB:      float64(vmStat.Used) / 1024 / 1024,
			UsedPercent: vmStat.UsedPercent,
		}
	}

	cpuStats := CPUStats{NumCPU: runtime.NumCPU()}
	if pct, err := cpu.Percent(200*time.Millisecond, false); err == nil && len(pct) > 0 {
		cpuStats.UsedPercent = pct[0]
		cpuStats.IdlePercent = 100.0 - pct[0]
	}

	return Snapshot{
		Uptime:        uptime.Round(time.Second).String(),
		UptimeSeconds: int64(uptime.Seconds()),
		StartTime:     r.startTime,
		CPU:           cpuStats,
		Memory:        memStats,
	}
}
