package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	models "CoinDash/internal/domain/models"
	domsvc "CoinDash/internal/domain/service"
	"CoinDash/internal/service/reddit"
	xhttp "CoinDash/pkg/http"
	xlogger "CoinDash/pkg/logger"

	"github.com/labstack/echo/v4"
)

type RedditStatusSource interface {
	Status() reddit.Status
}

type KeyStatusSource interface {
	KeyStatus(ctx context.Context) (models.KeyStatus, error)
}

// DiagnosticsEchoHandler exposes provider probes and /health. Unlike the
// dashboard routes it reports upstream failures as they are.
type DiagnosticsEchoHandler struct {
	logger      *xlogger.Logger
	probes      []domsvc.Probe
	critical    map[string]bool
	reddit      RedditStatusSource
	openrouter  KeyStatusSource
	environment string
	started     time.Time
	timeout     time.Duration
}

// NewDiagnosticsEchoHandler builds the handler. critical names the probes
// whose failure turns /health into DEGRADED.
func NewDiagnosticsEchoHandler(logger *xlogger.Logger, env string, probes []domsvc.Probe, critical []string, rd RedditStatusSource, ks KeyStatusSource) *DiagnosticsEchoHandler {
	crit := make(map[string]bool, len(critical))
	for _, n := range critical {
		crit[n] = true
	}
	return &DiagnosticsEchoHandler{
		logger:      xlogger.OrNop(logger),
		probes:      probes,
		critical:    crit,
		reddit:      rd,
		openrouter:  ks,
		environment: env,
		started:     time.Now(),
		timeout:     10 * time.Second,
	}
}

func (h *DiagnosticsEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Health)
	g := e.Group("/api/diagnostics")
	g.GET("/providers", h.Providers)
	g.GET("/reddit", h.RedditStatus)
	g.GET("/openrouter", h.OpenRouterStatus)
}

func (h *DiagnosticsEchoHandler) probeAll(ctx context.Context, probes []domsvc.Probe) []models.ProbeResult {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	out := make([]models.ProbeResult, len(probes))
	var wg sync.WaitGroup
	for i, p := range probes {
		wg.Add(1)
		go func(i int, p domsvc.Probe) {
			defer wg.Done()
			start := time.Now()
			err := p.Ping(ctx)
			r := models.ProbeResult{
				ProviderDiagnostics: p.Diagnostics(),
				Healthy:             err == nil,
				LatencyMS:           time.Since(start).Milliseconds(),
			}
			if err != nil {
				r.Error = err.Error()
			}
			out[i] = r
		}(i, p)
	}
	wg.Wait()
	return out
}

func (h *DiagnosticsEchoHandler) Providers(c echo.Context) error {
	defer observe("diagnostics_providers", time.Now())
	return xhttp.SuccessResponse(c, h.probeAll(c.Request().Context(), h.probes))
}

func (h *DiagnosticsEchoHandler) RedditStatus(c echo.Context) error {
	if h.reddit == nil {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundError("reddit client not wired"))
	}
	return xhttp.SuccessResponse(c, h.reddit.Status())
}

func (h *DiagnosticsEchoHandler) OpenRouterStatus(c echo.Context) error {
	if h.openrouter == nil {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundError("openrouter client not wired"))
	}
	st, err := h.openrouter.KeyStatus(c.Request().Context())
	if err != nil {
		h.logger.Warn("openrouter key status failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.BadGatewayError("OpenRouter key status unavailable").WithError(err))
	}
	return xhttp.SuccessResponse(c, st)
}

type healthReport struct {
	Status      string            `json:"status"`
	Timestamp   time.Time         `json:"timestamp"`
	Uptime      float64           `json:"uptime"`
	Environment string            `json:"environment"`
	Services    map[string]string `json:"services"`
}

// Health pings the critical providers; the others are reported from their
// last known state without touching the network.
func (h *DiagnosticsEchoHandler) Health(c echo.Context) error {
	report := healthReport{
		Status:      "OK",
		Timestamp:   time.Now().UTC(),
		Uptime:      time.Since(h.started).Seconds(),
		Environment: h.environment,
		Services:    make(map[string]string, len(h.probes)),
	}

	var crit []domsvc.Probe
	for _, p := range h.probes {
		if h.critical[p.Name()] {
			crit = append(crit, p)
			continue
		}
		d := p.Diagnostics()
		switch {
		case !d.Configured:
			report.Services[p.Name()] = "unconfigured"
		case d.Disabled:
			report.Services[p.Name()] = "disabled"
		default:
			report.Services[p.Name()] = "configured"
		}
	}
	for _, r := range h.probeAll(c.Request().Context(), crit) {
		if r.Healthy {
			report.Services[r.Provider] = "healthy"
			continue
		}
		report.Services[r.Provider] = "unhealthy"
		report.Status = "DEGRADED"
		h.logger.Error("health check failed", xlogger.Provider(r.Provider), xlogger.String("error", r.Error))
	}

	code := http.StatusOK
	if report.Status != "OK" {
		code = http.StatusServiceUnavailable
	}
	return xhttp.StatusResponse(c, code, report)
}
