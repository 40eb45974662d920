package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/civicworks/grievance-api/internal/core/domain"
	"github.com/civicworks/grievance-api/internal/core/ports"
)

type AuthHandler struct {
	auth ports.AuthService
	otp  ports.OtpService
}

func NewAuthHandler(auth ports.AuthService, otp ports.OtpService) *AuthHandler {
	return &AuthHandler{auth: auth, otp: otp}
}

type signupRequest struct {
	Name     string `json:"name" validate:"required"`
	Mobile   string `json:"mobile" validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
	Email    string `json:"email" validate:"omitempty,email"`
	StateID  string `json:"state_id"`
	CityID   string `json:"city_id"`
	WardID   string `json:"ward_id"`
	Assisted bool   `json:"assisted_signup"`
}

type signupResponse struct {
	UserID         string `json:"user_id"`
	DeliveryHandle string `json:"delivery_handle"`
}

type loginRequest struct {
	Mobile   string `json:"mobile" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token string `json:"token"`
	Role  string `json:"role"`
}

type forgotPasswordRequest struct {
	Mobile string `json:"mobile" validate:"required"`
}

type deliveryResponse struct {
	DeliveryHandle string `json:"delivery_handle"`
}

// Signup creates an unverified citizen account and opens the signup OTP flow.
//
// @Summary      Citizen self-signup
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      signupRequest  true  "Signup details"
// @Success      201   {object}  signupResponse
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /auth/signup [post]
func (h *AuthHandler) Signup(c echo.Context) error {
	var req signupRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	user, err := h.auth.Signup(ctx, ports.SignupInput{
		Name:     req.Name,
		Mobile:   req.Mobile,
		Password: req.Password,
		Email:    req.Email,
		Location: domain.Location{
			StateID: req.StateID,
			CityID:  req.CityID,
			WardID:  req.WardID,
		},
		Assisted: req.Assisted,
	})
	if err != nil {
		return err
	}

	handle, err := h.otp.Request(ctx, req.Mobile, domain.PurposeSignup)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, signupResponse{UserID: user.ID, DeliveryHandle: handle})
}

// Login authenticates mobile+password and returns a session token.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  loginResponse
// @Failure      401   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	token, sess, err := h.auth.Authenticate(c.Request().Context(), req.Mobile, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, loginResponse{Token: token, Role: string(sess.Role)})
}

// ForgotPassword opens a reset_password OTP flow for the identifier.
//
// @Summary      Start password reset
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      forgotPasswordRequest  true  "Account identifier"
// @Success      202   {object}  deliveryResponse
// @Failure      400   {object}  map[string]string
// @Router       /auth/forgot_password [post]
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req forgotPasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	handle, err := h.otp.Request(c.Request().Context(), req.Mobile, domain.PurposeResetPassword)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusAccepted, deliveryResponse{DeliveryHandle: handle})
}
