// Package api additionally exposes the sprint intelligence HTTP surface:
// webhook intake, manual sync triggers, conflict resolution, and the
// analytics/portfolio read endpoints, gated by the RBAC middleware.
package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/scullers68/sprintintel/analytics"
	"github.com/scullers68/sprintintel/audit"
	"github.com/scullers68/sprintintel/errs"
	"github.com/scullers68/sprintintel/fieldmap"
	"github.com/scullers68/sprintintel/model"
	"github.com/scullers68/sprintintel/portfolio"
	"github.com/scullers68/sprintintel/sync"
	"github.com/scullers68/sprintintel/trackerclient"
	"github.com/scullers68/sprintintel/webhook"
)

// Handlers bundles the sprint intelligence service's dependencies.
type Handlers struct {
	SyncEngine *sync.Engine
	Resolver   *sync.ConflictResolver
	Ingestor   *webhook.Ingestor
	Mapper     *fieldmap.Mapper
	Aggregator *portfolio.Aggregator
	Analytics  analytics.DataProvider
	AuditLog   *audit.Log
	Tracker    *trackerclient.Client
}

// RegisterRoutes wires the sprint intelligence HTTP surface onto e. authGate
// authenticates the bearer token and resolves the caller's rbac.Principal;
// rbacGate then enforces the permission map against it. Both run ahead of
// every route under /api except webhook intake, which the tracker calls
// unauthenticated and which instead authenticates by HMAC signature inside
// ReceiveWebhook itself.
func RegisterRoutes(e *echo.Echo, h Handlers, authGate, rbacGate echo.MiddlewareFunc) {
	e.GET("/healthz", h.Health)
	e.POST("/api/webhooks/tracker", h.ReceiveWebhook)

	group := e.Group("/api", authGate, rbacGate)
	group.POST("/sync/boards/:boardID", h.TriggerSync, RequireScope("sync:write", "service"))
	group.POST("/conflicts/:id/resolve", h.ResolveConflict)
	group.GET("/portfolio/boards/:boardID", h.GetPortfolio)
	group.GET("/analytics/projects/:projectKey/velocity", h.GetVelocity)
	group.GET("/analytics/projects/:projectKey/forecast", h.GetForecast)
}

// Health reports service liveness.
func (h Handlers) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// ReceiveWebhook accepts an inbound tracker webhook delivery (section 4.5).
func (h Handlers) ReceiveWebhook(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "failed to read request body")
	}

	var envelope trackerclient.WebhookEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid webhook payload")
	}
	var raw map[string]interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		raw = map[string]interface{}{}
	}

	outcome, err := h.Ingestor.Ingest(
		c.Request().Context(),
		envelope.EventID,
		envelope.WebhookEvent,
		model.JSONMap(raw),
		body,
		c.Request().Header.Get("X-Hub-Signature-256"),
		c.RealIP(),
	)
	if err != nil {
		return statusFromError(err)
	}
	return c.JSON(http.StatusAccepted, map[string]string{"outcome": string(outcome)})
}

// TriggerSync runs a full bidirectional sync for one board (section 4.3).
func (h Handlers) TriggerSync(c echo.Context) error {
	boardID, err := strconv.ParseInt(c.Param("boardID"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid boardID")
	}
	incremental := c.QueryParam("incremental") == "true"

	sprints, history, err := h.SyncEngine.SyncSprintsBidirectional(c.Request().Context(), boardID, incremental, "")
	if err != nil {
		return statusFromError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"sprints": sprints, "history": history})
}

// ResolveConflict applies a resolution strategy to a pending conflict
// (section 4.4).
func (h Handlers) ResolveConflict(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid conflict id")
	}

	var body struct {
		Strategy      model.ResolutionStrategy `json:"strategy"`
		ResolvedValue *string                  `json:"resolved_value"`
		Notes         string                   `json:"notes"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	resolved, err := h.Resolver.ResolveConflict(c.Request().Context(), uint(id), body.Strategy, body.ResolvedValue, body.Notes)
	if err != nil {
		return statusFromError(err)
	}
	return c.JSON(http.StatusOK, resolved)
}

// GetPortfolio returns the meta-board portfolio roll-up (section 4.8).
func (h Handlers) GetPortfolio(c echo.Context) error {
	boardID, err := strconv.ParseInt(c.Param("boardID"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid boardID")
	}
	var sprintID uint
	if raw := c.QueryParam("sprintID"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid sprintID")
		}
		sprintID = uint(parsed)
	}

	view, err := h.Aggregator.GetProjectPortfolio(c.Request().Context(), boardID, sprintID, portfolio.ProjectFilter{})
	if err != nil {
		return statusFromError(err)
	}
	return c.JSON(http.StatusOK, view)
}

// GetVelocity reports a project's velocity history and forecast (section 4.7).
func (h Handlers) GetVelocity(c echo.Context) error {
	if h.Analytics == nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "velocity provider not configured")
	}
	sprintCount := 6
	if raw := c.QueryParam("sprintCount"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			sprintCount = n
		}
	}

	report, err := analytics.CalculateProjectVelocityWithHistory(c.Request().Context(), h.Analytics, c.Param("projectKey"), sprintCount, false)
	if err != nil {
		return statusFromError(err)
	}
	return c.JSON(http.StatusOK, report)
}

// GetForecast runs a Monte-Carlo completion forecast (section 4.7).
func (h Handlers) GetForecast(c echo.Context) error {
	if h.Analytics == nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "forecast provider not configured")
	}
	remaining, _ := strconv.ParseFloat(c.QueryParam("remainingPoints"), 64)
	runs := 1000
	if raw := c.QueryParam("runs"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			runs = n
		}
	}

	report, err := analytics.MonteCarloCompletionForecast(
		c.Request().Context(), h.Analytics, c.Param("projectKey"), remaining, runs,
		[]float64{0.5, 0.8, 0.95}, 1,
	)
	if err != nil {
		return statusFromError(err)
	}
	return c.JSON(http.StatusOK, report)
}

// statusFromError maps the shared error taxonomy to an HTTP status.
func statusFromError(err error) error {
	switch errs.KindOf(err) {
	case errs.KindNotFound:
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errs.KindValidation:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errs.KindAuthFailure:
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	case errs.KindAuthzFailure:
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case errs.KindRateLimit:
		return echo.NewHTTPError(http.StatusTooManyRequests, err.Error())
	case errs.KindConflict:
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errs.KindExternalService:
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
