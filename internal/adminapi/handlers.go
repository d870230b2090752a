package adminapi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vectorpbx/dnsresolver/internal/backend/caching"
	"github.com/vectorpbx/dnsresolver/internal/backend/recursive"
	"github.com/vectorpbx/dnsresolver/internal/health"
	"github.com/vectorpbx/dnsresolver/internal/helpers"
	"github.com/vectorpbx/dnsresolver/internal/resolve"
	"github.com/vectorpbx/dnsresolver/internal/sipresolve"
)

const sipResolveTimeout = 10 * time.Second

// Handler holds the read-only dependencies the admin API reports on.
type Handler struct {
	registry  *resolve.Registry
	reporter  *health.Reporter
	recursive *recursive.Backend   // nil if no recursive-stub backend is registered
	cache     *caching.Backend     // nil if the result cache is disabled
	sip       *sipresolve.Resolver // nil if SIP target resolution isn't wired up
}

// newHandler builds a Handler. recursiveBackend, cache and sip may be nil if
// the deployment doesn't register those components.
func newHandler(registry *resolve.Registry, reporter *health.Reporter, recursiveBackend *recursive.Backend, cache *caching.Backend, sip *sipresolve.Resolver) *Handler {
	return &Handler{registry: registry, reporter: reporter, recursive: recursiveBackend, cache: cache, sip: sip}
}

// Health godoc
// @Summary Health check
// @Description Reports process liveness
// @Tags system
// @Produce json
// @Success 200 {object} StatusResponse
// @Router /health [get]
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, StatusResponse{Status: "ok"})
}

// Stats godoc
// @Summary Process and system statistics
// @Description Reports uptime, CPU and memory usage
// @Tags system
// @Produce json
// @Success 200 {object} StatsResponse
// @Router /stats [get]
func (h *Handler) Stats(c *gin.Context) {
	snap := h.reporter.Sample()
	c.JSON(http.StatusOK, StatsResponse{
		Uptime:        snap.Uptime,
		UptimeSeconds: snap.UptimeSeconds,
		CPUPercent:    snap.CPU.UsedPercent,
		MemoryUsedMB:  snap.Memory.UsedMB,
		MemoryPercent: snap.Memory.UsedPercent,
	})
}

// Registry godoc
// @Summary Registered resolver backends
// @Description Lists every registered backend in selection (priority) order
// @Tags registry
// @Produce json
// @Success 200 {object} RegistryResponse
// @Router /registry [get]
func (h *Handler) Registry(c *gin.Context) {
	backends := h.registry.List()
	selected, _ := h.registry.Selected()

	resp := RegistryResponse{Backends: make([]BackendEntry, 0, len(backends))}
	for _, b := range backends {
		resp.Backends = append(resp.Backends, BackendEntry{
			Name:     b.Name(),
			Priority: b.Priority(),
			Selected: b == selected,
		})
	}
	c.JSON(http.StatusOK, resp)
}

// RecursiveBackend godoc
// @Summary Recursive-stub backend status
// @Description Reports the recursive-stub backend's configured nameservers and their health
// @Tags registry
// @Produce json
// @Success 200 {object} RecursiveBackendResponse
// @Failure 404 {object} ErrorResponse
// @Router /registry/recursive [get]
func (h *Handler) RecursiveBackend(c *gin.Context) {
	if h.recursive == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "recursive-stub backend not registered"})
		return
	}
	snap := h.recursive.HealthSnapshot()
	resp := RecursiveBackendResponse{
		Name:        h.recursive.Name(),
		Nameservers: make([]NameserverHealth, 0, len(snap)),
	}
	for _, s := range snap {
		resp.Nameservers = append(resp.Nameservers, NameserverHealth{
			Nameserver: s.Nameserver,
			Healthy:    s.Healthy,
			FailedFor:  s.FailedFor,
		})
	}
	c.JSON(http.StatusOK, resp)
}

// CacheStats godoc
// @Summary Result cache statistics
// @Description Reports hit/miss counters for the in-process result cache
// @Tags registry
// @Produce json
// @Success 200 {object} CacheStatsResponse
// @Failure 404 {object} ErrorResponse
// @Router /registry/cache [get]
func (h *Handler) CacheStats(c *gin.Context) {
	if h.cache == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "result cache not enabled"})
		return
	}
	stats := h.cache.Stats()
	c.JSON(http.StatusOK, CacheStatsResponse{
		Hits:         stats.Hits,
		Misses:       stats.Misses,
		NegativeHits: stats.NegativeHits,
		Entries:      stats.Entries,
	})
}

// SIPResolve godoc
// @Summary RFC 3263 SIP target resolution
// @Description Resolves a SIP request-URI host into a preference-ordered list of destinations
// @Tags sip
// @Produce json
// @Param host query string true "target host"
// @Param port query int false "explicit port, 0 for unspecified"
// @Param secure query bool false "require TLS (sips:)"
// @Success 200 {object} SIPResolveResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /sip/resolve [get]
func (h *Handler) SIPResolve(c *gin.Context) {
	if h.sip == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "sip target resolution not configured"})
		return
	}

	host := c.Query("host")
	if host == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "host is required"})
		return
	}
	rawPort, _ := strconv.Atoi(c.Query("port"))
	port := int(helpers.ClampIntToUint16(rawPort))
	secure := c.Query("secure") == "true"

	ctx, cancel := context.WithTimeout(c.Request.Context(), sipResolveTimeout)
	defer cancel()

	type outcome struct {
		entries []sipresolve.Entry
		err     error
	}
	done := make(chan outcome, 1)
	h.sip.Resolve(ctx, sipresolve.Target{Host: host, Port: port, Secure: secure}, func(entries []sipresolve.Entry, err error) {
		done <- outcome{entries: entries, err: err}
	})

	select {
	case <-ctx.Done():
		err := fmt.Errorf("%w: sip resolution timed out", resolve.ErrTimeout)
		c.JSON(http.StatusGatewayTimeout, ErrorResponse{Error: err.Error()})
	case o := <-done:
		if o.err != nil {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: o.err.Error()})
			return
		}
		resp := SIPResolveResponse{Host: host, Targets: make([]SIPTargetEntry, 0, len(o.entries))}
		for _, e := range o.entries {
			resp.Targets = append(resp.Targets, SIPTargetEntry{
				Transport: e.Transport.String(),
				Address:   e.Addr.String(),
				Port:      e.Port,
			})
		}
		c.JSON(http.StatusOK, resp)
	}
}
