package projects

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Handlers provides HTTP handlers for project operations.
type Handlers struct {
	service *Service
}

// NewHandlers creates a new project handlers instance.
func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

// RegisterRoutes registers project and ignore routes on their Echo groups.
func (h *Handlers) RegisterRoutes(projects, ignores *echo.Group) {
	projects.GET("", h.List)
	projects.POST("/refresh", h.Refresh)
	projects.POST("/launch", h.Launch)

	ignores.GET("", h.ListIgnored)
	ignores.POST("", h.Ignore)
	ignores.DELETE("", h.Unignore)
}

// List returns the visible project list.
// GET /api/v1/projects?q=name
func (h *Handlers) List(c echo.Context) error {
	entries := h.service.List(c.QueryParam("q"))
	return c.JSON(http.StatusOK, UpdatedPayload{Entries: entries})
}

// Refresh triggers a background rescan.
// POST /api/v1/projects/refresh
func (h *Handlers) Refresh(c echo.Context) error {
	h.service.Refresh()
	return c.NoContent(http.StatusAccepted)
}

type launchRequest struct {
	Path string `json:"path"`
}

// Launch opens the editor against a project.
// POST /api/v1/projects/launch
func (h *Handlers) Launch(c echo.Context) error {
	var req launchRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Path == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "path is required")
	}
	if err := h.service.Launch(c.Request().Context(), req.Path); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

type ignoreRequest struct {
	Path string `json:"path"`
}

// ListIgnored returns the hidden canonical paths.
// GET /api/v1/ignores
func (h *Handlers) ListIgnored(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string][]string{"paths": h.service.IgnoredPaths()})
}

// Ignore hides a project. The warning status still carries 200 semantics:
// a failed persist keeps the in-memory set authoritative.
// POST /api/v1/ignores
func (h *Handlers) Ignore(c echo.Context) error {
	var req ignoreRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Path == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "path is required")
	}
	if err := h.service.Ignore(req.Path); err != nil {
		return c.JSON(http.StatusOK, map[string]string{"warning": err.Error()})
	}
	return c.NoContent(http.StatusNoContent)
}

// Unignore unhides a project.
// DELETE /api/v1/ignores
func (h *Handlers) Unignore(c echo.Context) error {
	var req ignoreRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Path == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "path is required")
	}
	if err := h.service.Unignore(req.Path); err != nil {
		return c.JSON(http.StatusOK, map[string]string{"warning": err.Error()})
	}
	return c.NoContent(http.StatusNoContent)
}
