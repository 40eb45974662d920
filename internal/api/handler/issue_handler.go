package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/civicworks/grievance-api/internal/api/metrics"
	"github.com/civicworks/grievance-api/internal/core/domain"
	"github.com/civicworks/grievance-api/internal/core/ports"
)

type IssueHandler struct {
	issues ports.IssueService
}

func NewIssueHandler(issues ports.IssueService) *IssueHandler {
	return &IssueHandler{issues: issues}
}

type createIssueRequest struct {
	Title       string    `json:"title" validate:"required"`
	Description string    `json:"description" validate:"required"`
	Category    string    `json:"category" validate:"required"`
	Deadline    time.Time `json:"deadline"`
}

type updateStatusRequest struct {
	Status  string `json:"status" validate:"required,oneof=assigned in_progress in_review resolved rejected"`
	Remarks string `json:"remarks"`
}

type assignIssueRequest struct {
	DepartmentID string    `json:"department_id" validate:"required"`
	Deadline     time.Time `json:"deadline"`
	Remarks      string    `json:"remarks"`
}

// Create reports a new grievance. Geography is pinned from the reporter's
// stored profile, never from the payload.
//
// @Summary      Report a grievance
// @Tags         issues
// @Accept       json
// @Produce      json
// @Param        body  body      createIssueRequest  true  "Grievance details"
// @Success      201   {object}  domain.Issue
// @Failure      403   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Security     BearerAuth
// @Router       /v1/issues [post]
func (h *IssueHandler) Create(c echo.Context) error {
	sess, err := ctxSession(c)
	if err != nil {
		return err
	}

	var req createIssueRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	issue, err := h.issues.Create(c.Request().Context(), sess, ports.CreateIssueInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Deadline:    req.Deadline,
	})
	if err != nil {
		return err
	}

	metrics.IssuesCreatedTotal.WithLabelValues(string(sess.Role)).Inc()
	return c.JSON(http.StatusCreated, issue)
}

// List returns grievances visible within the caller's jurisdiction.
//
// @Summary      List grievances
// @Tags         issues
// @Produce      json
// @Param        state_id       query     string  false  "Narrow to a state"
// @Param        city_id        query     string  false  "Narrow to a city"
// @Param        ward_id        query     string  false  "Narrow to a ward"
// @Param        department_id  query     string  false  "Narrow to a department"
// @Param        status         query     string  false  "Filter by status"
// @Param        search         query     string  false  "Title substring"
// @Success      200            {array}   domain.Issue
// @Security     BearerAuth
// @Router       /v1/issues [get]
func (h *IssueHandler) List(c echo.Context) error {
	sess, err := ctxSession(c)
	if err != nil {
		return err
	}

	start := time.Now()
	issues, err := h.issues.List(c.Request().Context(), sess, ports.ListIssuesRequest{
		StateID:      c.QueryParam("state_id"),
		CityID:       c.QueryParam("city_id"),
		WardID:       c.QueryParam("ward_id"),
		DepartmentID: c.QueryParam("department_id"),
		Status:       c.QueryParam("status"),
		Search:       c.QueryParam("search"),
	})
	if err != nil {
		return err
	}
	metrics.ListDuration.WithLabelValues("issues").Observe(time.Since(start).Seconds())

	if issues == nil {
		issues = []*domain.Issue{}
	}
	return c.JSON(http.StatusOK, issues)
}

// Get returns a single grievance if it falls inside the caller's scope.
// Out-of-scope records are indistinguishable from missing ones.
//
// @Summary      Get a grievance
// @Tags         issues
// @Produce      json
// @Param        id   path      string  true  "Issue ID"
// @Success      200  {object}  domain.Issue
// @Failure      404  {object}  map[string]string
// @Security     BearerAuth
// @Router       /v1/issues/{id} [get]
func (h *IssueHandler) Get(c echo.Context) error {
	sess, err := ctxSession(c)
	if err != nil {
		return err
	}

	issue, err := h.issues.Get(c.Request().Context(), sess, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, issue)
}

// UpdateStatus moves a grievance along the workflow.
//
// @Summary      Update grievance status
// @Tags         issues
// @Accept       json
// @Produce      json
// @Param        id    path      string               true  "Issue ID"
// @Param        body  body      updateStatusRequest  true  "New status"
// @Success      200   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Security     BearerAuth
// @Router       /v1/issues/{id}/status [put]
func (h *IssueHandler) UpdateStatus(c echo.Context) error {
	sess, err := ctxSession(c)
	if err != nil {
		return err
	}

	var req updateStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	err = h.issues.UpdateStatus(c.Request().Context(), sess, c.Param("id"), domain.IssueStatus(req.Status), req.Remarks)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "status updated"})
}

// Assign routes a reported grievance to a department in the issue's city.
//
// @Summary      Assign a grievance to a department
// @Tags         issues
// @Accept       json
// @Produce      json
// @Param        id    path      string              true  "Issue ID"
// @Param        body  body      assignIssueRequest  true  "Target department"
// @Success      200   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Security     BearerAuth
// @Router       /v1/issues/{id}/assign [put]
func (h *IssueHandler) Assign(c echo.Context) error {
	sess, err := ctxSession(c)
	if err != nil {
		return err
	}

	var req assignIssueRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	err = h.issues.Assign(c.Request().Context(), sess, c.Param("id"), req.DepartmentID, req.Deadline, req.Remarks)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "issue assigned"})
}

// Stats returns per-status counts within the caller's jurisdiction.
//
// @Summary      Grievance dashboard counts
// @Tags         issues
// @Produce      json
// @Success      200  {object}  domain.IssueStats
// @Security     BearerAuth
// @Router       /v1/issues/stats [get]
func (h *IssueHandler) Stats(c echo.Context) error {
	sess, err := ctxSession(c)
	if err != nil {
		return err
	}

	stats, err := h.issues.Stats(c.Request().Context(), sess)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}
