package handlers

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/irfndi/quantsim-go/internal/services"
)

// RedisHealthChecker is the part of the Redis client health checks need.
type RedisHealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// SystemStats describes the host the service runs on.
type SystemStats struct {
	CPUPercent        float64 `json:"cpu_percent"`
	MemoryUsedPercent float64 `json:"memory_used_percent"`
	MemoryTotalBytes  uint64  `json:"memory_total_bytes"`
	Goroutines        int     `json:"goroutines"`
}

type HealthHandler struct {
	redis       RedisHealthChecker
	service     services.SimulationService
	version     string
	startTime   time.Time
	systemStats func(ctx context.Context) (SystemStats, error)
}

type HealthResponse struct {
	Status      string            `json:"status"`
	Timestamp   time.Time         `json:"timestamp"`
	Version     string            `json:"version"`
	Uptime      string            `json:"uptime"`
	Services    map[string]string `json:"services"`
	AssetModels int               `json:"asset_models"`
	System      *SystemStats      `json:"system,omitempty"`
}

// NewHealthHandler creates the probe handler. redis may be nil when Redis
// is not configured.
func NewHealthHandler(redis RedisHealthChecker, service services.SimulationService, version string) *HealthHandler {
	return &HealthHandler{
		redis:       redis,
		service:     service,
		version:     version,
		startTime:   time.Now(),
		systemStats: hostStats,
	}
}

func hostStats(ctx context.Context) (SystemStats, error) {
	stats := SystemStats{Goroutines: runtime.NumGoroutine()}

	memInfo, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return stats, err
	}
	stats.MemoryUsedPercent = memInfo.UsedPercent
	stats.MemoryTotalBytes = memInfo.Total

	// Zero interval compares against the previous call instead of blocking
	percents, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return stats, err
	}
	if len(percents) > 0 {
		stats.CPUPercent = percents[0]
	}
	return stats, nil
}

func (h *HealthHandler) redisStatus(ctx context.Context) (string, bool) {
	if h.redis == nil {
		return "", true
	}
	if err := h.redis.HealthCheck(ctx); err != nil {
		return "unhealthy: " + err.Error(), false
	}
	return "healthy", true
}

// HealthCheck handles GET /health.
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	statuses := map[string]string{"engine": "healthy"}
	healthy := true
	if status, ok := h.redisStatus(ctx); status != "" {
		statuses["redis"] = status
		healthy = ok
	}

	response := HealthResponse{
		Status:      "healthy",
		Timestamp:   time.Now().UTC(),
		Version:     h.version,
		Uptime:      time.Since(h.startTime).Round(time.Second).String(),
		Services:    statuses,
		AssetModels: len(h.service.AssetModels()),
	}
	if stats, err := h.systemStats(ctx); err == nil {
		response.System = &stats
	}

	statusCode := http.StatusOK
	if !healthy {
		response.Status = "degraded"
		statusCode = http.StatusServiceUnavailable
	}
	c.JSON(statusCode, response)
}

// Ready handles GET /ready. The service is ready once its dependencies
// answer.
func (h *HealthHandler) Ready(c *gin.Context) {
	if status, ok := h.redisStatus(c.Request.Context()); !ok {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "redis": status})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// Live handles GET /live.
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "alive"})
}
