package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/civicworks/grievance-api/internal/api/metrics"
	"github.com/civicworks/grievance-api/internal/core/domain"
	"github.com/civicworks/grievance-api/internal/core/ports"
)

type UserHandler struct {
	users ports.UserService
	auth  ports.AuthService
}

func NewUserHandler(users ports.UserService, auth ports.AuthService) *UserHandler {
	return &UserHandler{users: users, auth: auth}
}

type createUserRequest struct {
	Name         string `json:"name" validate:"required"`
	Mobile       string `json:"mobile" validate:"required"`
	Email        string `json:"email" validate:"omitempty,email"`
	Password     string `json:"password" validate:"required,min=8"`
	Role         string `json:"role" validate:"required"`
	StateID      string `json:"state_id"`
	CityID       string `json:"city_id"`
	WardID       string `json:"ward_id"`
	DepartmentID string `json:"department_id"`
}

type userResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Mobile       string    `json:"mobile"`
	Email        string    `json:"email,omitempty"`
	Role         string    `json:"role"`
	Verified     bool      `json:"verified"`
	StateID      string    `json:"state_id,omitempty"`
	CityID       string    `json:"city_id,omitempty"`
	WardID       string    `json:"ward_id,omitempty"`
	DepartmentID string    `json:"department_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

type updateProfileRequest struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"omitempty,email"`
	Mobile  string `json:"mobile" validate:"required"`
	StateID string `json:"state_id"`
	CityID  string `json:"city_id"`
	WardID  string `json:"ward_id"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=NewPassword"`
}

func toUserResponse(u *domain.UserProfile) userResponse {
	return userResponse{
		ID:           u.ID,
		Name:         u.Name,
		Mobile:       u.Mobile,
		Email:        u.Email,
		Role:         string(u.Role),
		Verified:     u.Verified,
		StateID:      u.Location.StateID,
		CityID:       u.Location.CityID,
		WardID:       u.Location.WardID,
		DepartmentID: u.Location.DepartmentID,
		CreatedAt:    u.CreatedAt,
	}
}

// List returns users the caller may manage, constrained to the caller's
// jurisdiction. Requested filters may only narrow that scope; a filter
// outside it yields an empty page.
//
// @Summary      List manageable users
// @Tags         users
// @Produce      json
// @Param        state_id  query     string  false  "Narrow to a state"
// @Param        city_id   query     string  false  "Narrow to a city"
// @Param        ward_id   query     string  false  "Narrow to a ward"
// @Param        search    query     string  false  "Name or mobile substring"
// @Success      200       {array}   userResponse
// @Failure      403       {object}  map[string]string
// @Security     BearerAuth
// @Router       /v1/users [get]
func (h *UserHandler) List(c echo.Context) error {
	sess, err := ctxSession(c)
	if err != nil {
		return err
	}

	start := time.Now()
	users, err := h.users.List(c.Request().Context(), sess, ports.ListUsersRequest{
		StateID: c.QueryParam("state_id"),
		CityID:  c.QueryParam("city_id"),
		WardID:  c.QueryParam("ward_id"),
		Search:  c.QueryParam("search"),
	})
	if err != nil {
		return err
	}
	metrics.ListDuration.WithLabelValues("users").Observe(time.Since(start).Seconds())

	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}
	return c.JSON(http.StatusOK, out)
}

// Create provisions an account on a user's behalf. The target role must rank
// strictly below the caller's, and geography is pinned to the caller's
// jurisdiction for every tier below state admin.
//
// @Summary      Create a user
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      createUserRequest  true  "New user"
// @Success      201   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Security     BearerAuth
// @Router       /v1/users [post]
func (h *UserHandler) Create(c echo.Context) error {
	sess, err := ctxSession(c)
	if err != nil {
		return err
	}

	var req createUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	id, err := h.users.Create(c.Request().Context(), sess, ports.CreateUserInput{
		Name:     req.Name,
		Mobile:   req.Mobile,
		Email:    req.Email,
		Password: req.Password,
		Role:     domain.Role(req.Role),
		Location: domain.Location{
			StateID:      req.StateID,
			CityID:       req.CityID,
			WardID:       req.WardID,
			DepartmentID: req.DepartmentID,
		},
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, map[string]string{"id": id})
}

// Profile returns the caller's own profile.
//
// @Summary      Get own profile
// @Tags         profile
// @Produce      json
// @Success      200  {object}  userResponse
// @Security     BearerAuth
// @Router       /v1/profile [get]
func (h *UserHandler) Profile(c echo.Context) error {
	sess, err := ctxSession(c)
	if err != nil {
		return err
	}

	user, err := h.users.Profile(c.Request().Context(), sess)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserResponse(user))
}

// UpdateProfile edits the caller's own profile.
//
// @Summary      Update own profile
// @Tags         profile
// @Accept       json
// @Produce      json
// @Param        body  body      updateProfileRequest  true  "Profile fields"
// @Success      200   {object}  map[string]string
// @Failure      400   {object}  map[string]string
// @Security     BearerAuth
// @Router       /v1/profile [put]
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	sess, err := ctxSession(c)
	if err != nil {
		return err
	}

	var req updateProfileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	err = h.users.UpdateProfile(c.Request().Context(), sess, ports.UpdateProfileInput{
		Name:   req.Name,
		Email:  req.Email,
		Mobile: req.Mobile,
		Location: domain.Location{
			StateID: req.StateID,
			CityID:  req.CityID,
			WardID:  req.WardID,
		},
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "profile updated"})
}

// ChangePassword rotates the caller's password after verifying the current
// one.
//
// @Summary      Change own password
// @Tags         profile
// @Accept       json
// @Produce      json
// @Param        body  body      changePasswordRequest  true  "Current and new password"
// @Success      200   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Security     BearerAuth
// @Router       /v1/profile/password [put]
func (h *UserHandler) ChangePassword(c echo.Context) error {
	sess, err := ctxSession(c)
	if err != nil {
		return err
	}

	var req changePasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.auth.ChangePassword(c.Request().Context(), sess.UserID, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "password updated"})
}
