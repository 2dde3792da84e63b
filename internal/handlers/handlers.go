// Package handlers wires the HTTP surface of the dashboard service: auth,
// the aggregated dashboard snapshot, IoC search, report proxying, alert
// rule management and the realtime WebSocket endpoint.
package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/threat-view/dashboard-service/internal/alerting"
	"github.com/threat-view/dashboard-service/internal/auth"
	"github.com/threat-view/dashboard-service/internal/metrics"
	"github.com/threat-view/dashboard-service/internal/realtime"
	"github.com/threat-view/dashboard-service/internal/session"
	"github.com/threat-view/dashboard-service/internal/threat"
	"github.com/threat-view/dashboard-service/internal/upstream"
)

// Handler holds the stores and clients backing each route.
type Handler struct {
	sessions  *session.SessionStore
	threats   *threat.Store
	alerts    *alerting.Store
	iocs      *upstream.IoCClient
	reports   *upstream.ReportClient
	tokens    *auth.Service
	hub       *realtime.Hub
	runner    *realtime.Runner
	collector *metrics.Collector
	logger    *zap.Logger
}

// New creates a handler. runner may be nil when the live statistics loop
// is disabled.
func New(
	sessions *session.SessionStore,
	threats *threat.Store,
	alerts *alerting.Store,
	iocs *upstream.IoCClient,
	reports *upstream.ReportClient,
	tokens *auth.Service,
	hub *realtime.Hub,
	runner *realtime.Runner,
	collector *metrics.Collector,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		sessions:  sessions,
		threats:   threats,
		alerts:    alerts,
		iocs:      iocs,
		reports:   reports,
		tokens:    tokens,
		hub:       hub,
		runner:    runner,
		collector: collector,
		logger:    logger,
	}
}

// RegisterRoutes attaches all routes. authRequired is applied to every
// route that needs a valid token.
func (h *Handler) RegisterRoutes(router *gin.Engine, authRequired gin.HandlerFunc) {
	router.GET("/health", h.Health)

	api := router.Group("/api")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/login", h.Login)
			authGroup.POST("/register", h.Register)
			authGroup.GET("/me", authRequired, h.Me)
			authGroup.POST("/logout", authRequired, h.Logout)
		}

		protected := api.Group("", authRequired)
		{
			protected.GET("/dashboard", h.Dashboard)
			protected.GET("/iocs/search", h.SearchIoCs)

			protected.GET("/reports", h.ListReports)
			protected.GET("/reports/generate", h.GenerateReport)
			protected.GET("/reports/export/:id", h.ExportReport)
			protected.DELETE("/reports/delete/:id", h.DeleteReport)

			protected.GET("/alerts", h.ListAlerts)
			protected.POST("/alerts", h.CreateAlert)
			protected.PATCH("/alerts/:id/toggle", h.ToggleAlert)
			protected.DELETE("/alerts/:id", h.DeleteAlert)
		}

		api.GET("/realtime/ws", h.hub.HandleWebSocket)
	}
}

// Health reports liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "dashboard-service",
	})
}

type loginResponse struct {
	Success bool                  `json:"success"`
	User    *upstream.UserProfile `json:"user"`
	Token   string                `json:"token"`
}

// Login authenticates against the upstream backend and issues a local
// token for subsequent requests. The upstream token never leaves the
// process.
func (h *Handler) Login(c *gin.Context) {
	var creds upstream.Credentials
	if err := c.ShouldBindJSON(&creds); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
		return
	}

	res, err := h.sessions.Login(c.Request.Context(), creds)
	if err != nil {
		h.collector.ObserveAuth("login", false)
		h.upstreamError(c, err)
		return
	}
	h.collector.ObserveAuth("login", true)

	token, err := h.tokens.GenerateToken(res.User)
	if err != nil {
		h.logger.Error("failed to issue token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to issue token"})
		return
	}

	c.JSON(http.StatusOK, loginResponse{Success: true, User: res.User, Token: token})
}

// Register creates an upstream account and signs the caller in.
func (h *Handler) Register(c *gin.Context) {
	var form upstream.RegisterForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
		return
	}

	res, err := h.sessions.Register(c.Request.Context(), form)
	if err != nil {
		h.collector.ObserveAuth("register", false)
		h.upstreamError(c, err)
		return
	}
	h.collector.ObserveAuth("register", true)

	token, err := h.tokens.GenerateToken(res.User)
	if err != nil {
		h.logger.Error("failed to issue token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to issue token"})
		return
	}

	c.JSON(http.StatusOK, loginResponse{Success: true, User: res.User, Token: token})
}

// Me returns the profile of the current upstream session.
func (h *Handler) Me(c *gin.Context) {
	snap := h.sessions.Snapshot()
	if snap.User == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "not signed in"})
		return
	}
	c.JSON(http.StatusOK, snap.User)
}

// Logout drops the upstream session and its persisted record.
func (h *Handler) Logout(c *gin.Context) {
	h.sessions.Logout(c.Request.Context())
	h.collector.ObserveAuth("logout", true)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

type dashboardResponse struct {
	DisplayData *threat.DisplayData  `json:"displayData"`
	IoCs        []upstream.Indicator `json:"iocs"`
	Loading     bool                 `json:"loading"`
}

// Dashboard refreshes all six feeds and returns the aggregated snapshot.
// A failed refresh returns an empty snapshot rather than an error; the
// frontend renders the cleared state.
func (h *Handler) Dashboard(c *gin.Context) {
	h.threats.FetchAllThreats(c.Request.Context())
	snap := h.threats.Snapshot()

	if h.runner != nil && snap.DisplayData != nil {
		h.runner.SetBaseline(
			snap.DisplayData.TotalThreats,
			snap.DisplayData.ActiveThreats,
			len(snap.DisplayData.TopCountries),
			len(snap.DisplayData.TrendingMalware),
			time.Now(),
		)
	}

	c.JSON(http.StatusOK, dashboardResponse{
		DisplayData: snap.DisplayData,
		IoCs:        snap.IoCs,
		Loading:     snap.Loading,
	})
}

// SearchIoCs proxies an indicator search.
func (h *Handler) SearchIoCs(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "query parameter q is required"})
		return
	}

	results, err := h.iocs.Search(c.Request.Context(), query)
	if err != nil {
		h.upstreamError(c, err)
		return
	}
	c.JSON(http.StatusOK, results)
}

// ListReports proxies the report listing.
func (h *Handler) ListReports(c *gin.Context) {
	list, err := h.reports.List(c.Request.Context())
	if err != nil {
		h.upstreamError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// GenerateReport asks the backend to build a fresh report.
func (h *Handler) GenerateReport(c *gin.Context) {
	ack, err := h.reports.Generate(c.Request.Context())
	if err != nil {
		h.upstreamError(c, err)
		return
	}
	c.JSON(http.StatusOK, ack)
}

// ExportReport streams a report download through untouched.
func (h *Handler) ExportReport(c *gin.Context) {
	data, contentType, err := h.reports.Export(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.upstreamError(c, err)
		return
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Data(http.StatusOK, contentType, data)
}

// DeleteReport removes a report upstream.
func (h *Handler) DeleteReport(c *gin.Context) {
	ack, err := h.reports.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.upstreamError(c, err)
		return
	}
	c.JSON(http.StatusOK, ack)
}

// ListAlerts returns the configured alert rules.
func (h *Handler) ListAlerts(c *gin.Context) {
	c.JSON(http.StatusOK, h.alerts.List())
}

// CreateAlert appends a new alert rule.
func (h *Handler) CreateAlert(c *gin.Context) {
	var rule alerting.Rule
	if err := c.ShouldBindJSON(&rule); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
		return
	}
	if rule.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "name is required"})
		return
	}

	stored := h.alerts.Add(rule)
	c.JSON(http.StatusCreated, stored)
}

// ToggleAlert flips a rule's enabled flag.
func (h *Handler) ToggleAlert(c *gin.Context) {
	if !h.alerts.Toggle(c.Param("id")) {
		c.JSON(http.StatusNotFound, gin.H{"message": "alert rule not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// DeleteAlert removes a rule.
func (h *Handler) DeleteAlert(c *gin.Context) {
	if !h.alerts.Delete(c.Param("id")) {
		c.JSON(http.StatusNotFound, gin.H{"message": "alert rule not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// upstreamError maps an upstream failure onto this service's response:
// upstream HTTP errors keep their status and message, transport failures
// become a 502.
func (h *Handler) upstreamError(c *gin.Context, err error) {
	var ue *upstream.Error
	if errors.As(err, &ue) && ue.Status != 0 {
		c.JSON(ue.Status, gin.H{"message": ue.Error()})
		return
	}
	h.logger.Error("upstream request failed", zap.Error(err))
	c.JSON(http.StatusBadGateway, gin.H{"message": "upstream unavailable"})
}
