package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/civicworks/grievance-api/internal/core/ports"
)

type ReferenceHandler struct {
	refs ports.ReferenceService
}

func NewReferenceHandler(refs ports.ReferenceService) *ReferenceHandler {
	return &ReferenceHandler{refs: refs}
}

// States lists all states. Master geography is not sensitive at the state
// level; any authenticated caller may read it.
//
// @Summary      List states
// @Tags         reference
// @Produce      json
// @Success      200  {array}  domain.State
// @Security     BearerAuth
// @Router       /v1/reference/states [get]
func (h *ReferenceHandler) States(c echo.Context) error {
	states, err := h.refs.States(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, states)
}

// Cities lists cities within the caller's state, or within the requested
// state for roles allowed to roam.
//
// @Summary      List cities
// @Tags         reference
// @Produce      json
// @Param        state_id  query    string  false  "State to list (privileged roles only)"
// @Success      200       {array}  domain.City
// @Security     BearerAuth
// @Router       /v1/reference/cities [get]
func (h *ReferenceHandler) Cities(c echo.Context) error {
	sess, err := ctxSession(c)
	if err != nil {
		return err
	}

	cities, err := h.refs.Cities(c.Request().Context(), sess, c.QueryParam("state_id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cities)
}

// Wards lists wards of the resolved city.
//
// @Summary      List wards
// @Tags         reference
// @Produce      json
// @Param        city_id  query    string  false  "City to list (privileged roles only)"
// @Success      200      {array}  domain.Ward
// @Security     BearerAuth
// @Router       /v1/reference/wards [get]
func (h *ReferenceHandler) Wards(c echo.Context) error {
	sess, err := ctxSession(c)
	if err != nil {
		return err
	}

	wards, err := h.refs.Wards(c.Request().Context(), sess, c.QueryParam("city_id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, wards)
}

// Departments lists departments of the resolved city.
//
// @Summary      List departments
// @Tags         reference
// @Produce      json
// @Param        city_id  query    string  false  "City to list (privileged roles only)"
// @Success      200      {array}  domain.Department
// @Security     BearerAuth
// @Router       /v1/reference/departments [get]
func (h *ReferenceHandler) Departments(c echo.Context) error {
	sess, err := ctxSession(c)
	if err != nil {
		return err
	}

	departments, err := h.refs.Departments(c.Request().Context(), sess, c.QueryParam("city_id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, departments)
}
