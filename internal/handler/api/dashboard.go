package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	models "CoinDash/internal/domain/models"
	domsvc "CoinDash/internal/domain/service"
	"CoinDash/internal/middleware"
	"CoinDash/internal/service/metrics"
	"CoinDash/internal/usecase"
	xhttp "CoinDash/pkg/http"
	xlogger "CoinDash/pkg/logger"
	"CoinDash/pkg/util"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

// DashboardDeps groups what the dashboard routes read from.
type DashboardDeps struct {
	Aggregator     *usecase.DashboardAggregator
	Market         domsvc.MarketProvider
	News           domsvc.NewsProvider
	Insight        domsvc.InsightProvider
	Memes          domsvc.MemeProvider
	Feedback       *usecase.FeedbackService
	StreamInterval time.Duration
}

// DashboardEchoHandler serves /api/dashboard.
type DashboardEchoHandler struct {
	logger   *xlogger.Logger
	deps     DashboardDeps
	upgrader websocket.Upgrader
}

func NewDashboardEchoHandler(logger *xlogger.Logger, deps DashboardDeps) *DashboardEchoHandler {
	metrics.Register()
	if deps.StreamInterval <= 0 {
		deps.StreamInterval = 30 * time.Second
	}
	return &DashboardEchoHandler{
		logger: xlogger.OrNop(logger),
		deps:   deps,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// CORS is open for the API as a whole.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

func (h *DashboardEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/dashboard")
	g.GET("", h.Dashboard)
	g.GET("/stream", h.Stream)
	g.GET("/chart-data/:coinId", h.ChartData)
	g.GET("/news", h.News)
	g.GET("/meme", h.Meme)
	g.GET("/ai-insight", h.AIInsight)
	g.POST("/feedback", h.SubmitFeedback)
}

func observe(endpoint string, start time.Time) {
	metrics.EndpointLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
}

func (h *DashboardEchoHandler) snapshot(ctx context.Context, prefs models.Preferences) models.Dashboard {
	d := h.deps.Aggregator.Snapshot(ctx, prefs)
	for _, f := range d.Degraded {
		metrics.DegradedFields.WithLabelValues(f).Inc()
	}
	return d
}

func (h *DashboardEchoHandler) Dashboard(c echo.Context) error {
	defer observe("dashboard", time.Now())
	req := &models.DashboardRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		metrics.EndpointErrors.WithLabelValues("dashboard").Inc()
		return xhttp.BadRequestResponse(c, verr)
	}
	d := h.snapshot(c.Request().Context(), req.Preferences())
	c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
	return xhttp.SuccessResponse(c, d)
}

// Stream pushes a fresh snapshot on connect and then every StreamInterval
// until the client goes away.
func (h *DashboardEchoHandler) Stream(c echo.Context) error {
	req := &models.DashboardRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	prefs := req.Preferences()

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Warn("dashboard stream upgrade failed", xlogger.Error(err))
		return nil
	}
	defer conn.Close()
	metrics.StreamClients.Inc()
	defer metrics.StreamClients.Dec()

	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()

	// Reads only detect the close; clients send nothing meaningful.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(h.deps.StreamInterval)
	defer ticker.Stop()
	for {
		d := h.snapshot(ctx, prefs)
		if ctx.Err() != nil {
			return nil
		}
		_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := conn.WriteJSON(d); err != nil {
			h.logger.Debug("dashboard stream closed", xlogger.Error(err))
			return nil
		}
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
			return nil
		case <-ticker.C:
		}
	}
}

func (h *DashboardEchoHandler) ChartData(c echo.Context) error {
	defer observe("chart_data", time.Now())
	req := &models.ChartRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		metrics.EndpointErrors.WithLabelValues("chart_data").Inc()
		return xhttp.BadRequestResponse(c, verr)
	}
	res := h.deps.Market.GetHistory(c.Request().Context(), req.CoinID, req.Days, req.Currency)
	return xhttp.SourcedResponse(c, string(res.Source), res)
}

func (h *DashboardEchoHandler) News(c echo.Context) error {
	defer observe("news", time.Now())
	req := &models.NewsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		metrics.EndpointErrors.WithLabelValues("news").Inc()
		return xhttp.BadRequestResponse(c, verr)
	}
	res := h.deps.News.GetNews(c.Request().Context(), models.NewsQuery{
		Filter:     models.NewsFilter(req.Filter),
		Currencies: util.SplitCSV(req.Currencies),
		Limit:      req.Limit,
	})
	return xhttp.SourcedResponse(c, string(res.Source), res)
}

func (h *DashboardEchoHandler) Meme(c echo.Context) error {
	defer observe("meme", time.Now())
	req := &models.MemeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		metrics.EndpointErrors.WithLabelValues("meme").Inc()
		return xhttp.BadRequestResponse(c, verr)
	}
	ctx := c.Request().Context()
	var res models.ProviderResult[models.Meme]
	switch tags := util.SplitCSV(req.Tags); {
	case req.Category != "":
		res = h.deps.Memes.MemeByCategory(ctx, models.MemeCategory(req.Category))
	case len(tags) > 0:
		res = h.deps.Memes.MemeByTags(ctx, tags)
	default:
		res = h.deps.Memes.RandomMeme(ctx)
	}
	return xhttp.SourcedResponse(c, string(res.Source), res)
}

func (h *DashboardEchoHandler) AIInsight(c echo.Context) error {
	defer observe("ai_insight", time.Now())
	req := &models.DashboardRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		metrics.EndpointErrors.WithLabelValues("ai_insight").Inc()
		return xhttp.BadRequestResponse(c, verr)
	}
	res := h.deps.Insight.GetInsight(c.Request().Context(), req.Preferences())
	return xhttp.SourcedResponse(c, string(res.Source), res)
}

func (h *DashboardEchoHandler) SubmitFeedback(c echo.Context) error {
	defer observe("feedback", time.Now())
	req := &models.FeedbackRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		metrics.EndpointErrors.WithLabelValues("feedback").Inc()
		return xhttp.BadRequestResponse(c, verr)
	}
	f, err := h.deps.Feedback.Submit(c.Request().Context(), c.RealIP(), *req)
	if err != nil {
		metrics.EndpointErrors.WithLabelValues("feedback").Inc()
		if errors.Is(err, middleware.ErrThrottled) {
			return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("Too many feedback submissions").WithRetryAfter(time.Second))
		}
		h.logger.Error("feedback submit error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.ServiceUnavailableError("Feedback could not be recorded").WithError(err))
	}
	return xhttp.CreatedResponse(c, f)
}
