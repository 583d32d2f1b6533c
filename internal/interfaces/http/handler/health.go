package handler

import (
	"context"
	"net/http"
	"runtime"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/invoicer/backend/internal/interfaces/http/dto"
)

// Health statuses
const (
	StatusUp       = "up"
	StatusDown     = "down"
	StatusOK       = "ok"
	StatusDegraded = "degraded"
)

// defaultCheckTimeout bounds a single dependency probe
const defaultCheckTimeout = 2 * time.Second

// HealthCheck probes one dependency
type HealthCheck func(ctx context.Context) error

// HealthHandler reports liveness and dependency status
type HealthHandler struct {
	BaseHandler
	name         string
	version      string
	startTime    time.Time
	checkTimeout time.Duration
	checks       map[string]HealthCheck
}

// HealthOption configures a HealthHandler
type HealthOption func(*HealthHandler)

// WithHealthCheck adds a named dependency probe
func WithHealthCheck(name string, check HealthCheck) HealthOption {
	return func(h *HealthHandler) {
		if check != nil {
			h.checks[name] = check
		}
	}
}

// WithCheckTimeout overrides the per-probe timeout
func WithCheckTimeout(d time.Duration) HealthOption {
	return func(h *HealthHandler) {
		if d > 0 {
			h.checkTimeout = d
		}
	}
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(name, version string, opts ...HealthOption) *HealthHandler {
	h := &HealthHandler{
		name:         name,
		version:      version,
		startTime:    time.Now(),
		checkTimeout: defaultCheckTimeout,
		checks:       make(map[string]HealthCheck),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// ComponentStatus is the result of one dependency probe
type ComponentStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// HealthResponse represents the health report
type HealthResponse struct {
	Status    string                     `json:"status"`
	Name      string                     `json:"name"`
	Version   string                     `json:"version"`
	GoVersion string                     `json:"go_version"`
	Uptime    string                     `json:"uptime"`
	Checks    map[string]ComponentStatus `json:"checks,omitempty"`
}

// Health is the liveness endpoint. It always answers 200 and reports each
// configured dependency, so a slow database never restarts the process.
//
//	GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	h.Success(c, h.report(c.Request.Context()))
}

// Ready answers 503 while any configured dependency is down
//
//	GET /health/ready
func (h *HealthHandler) Ready(c *gin.Context) {
	report := h.report(c.Request.Context())
	if report.Status != StatusOK {
		resp := dto.NewErrorResponseWithRequestID(dto.ErrCodeServiceUnavailable,
			"One or more dependencies are unavailable", getRequestID(c))
		resp.Data = report
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}
	h.Success(c, report)
}

// RegisterRoutes mounts the health endpoints on rg
func (h *HealthHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/health", h.Health)
	rg.GET("/health/ready", h.Ready)
}

func (h *HealthHandler) report(ctx context.Context) HealthResponse {
	resp := HealthResponse{
		Status:    StatusOK,
		Name:      h.name,
		Version:   h.version,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	}
	if len(h.checks) == 0 {
		return resp
	}

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	resp.Checks = make(map[string]ComponentStatus, len(names))
	for _, name := range names {
		status := h.probe(ctx, h.checks[name])
		if status.Status != StatusUp {
			resp.Status = StatusDegraded
		}
		resp.Checks[name] = status
	}
	return resp
}

func (h *HealthHandler) probe(ctx context.Context, check HealthCheck) ComponentStatus {
	ctx, cancel := context.WithTimeout(ctx, h.checkTimeout)
	defer cancel()

	if err := check(ctx); err != nil {
		return ComponentStatus{Status: StatusDown, Error: err.Error()}
	}
	return ComponentStatus{Status: StatusUp}
}
