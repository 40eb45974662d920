package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/civicworks/grievance-api/internal/api/metrics"
	"github.com/civicworks/grievance-api/internal/core/domain"
	"github.com/civicworks/grievance-api/internal/core/ports"
)

type OtpHandler struct {
	otp ports.OtpService
}

func NewOtpHandler(otp ports.OtpService) *OtpHandler {
	return &OtpHandler{otp: otp}
}

type otpRequestBody struct {
	Identifier string `json:"identifier" validate:"required"`
	Purpose    string `json:"purpose" validate:"required,oneof=signup login reset_password"`
}

type otpVerifyBody struct {
	Identifier string `json:"identifier" validate:"required"`
	Code       string `json:"code" validate:"required,len=6"`
}

type otpVerifyResponse struct {
	Verified bool   `json:"verified"`
	Purpose  string `json:"purpose"`
}

type otpChangePasswordBody struct {
	Identifier      string `json:"identifier" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=NewPassword"`
}

// Request issues a fresh code for the identifier. Any live code for the same
// identifier is replaced.
//
// @Summary      Request a one-time code
// @Tags         otp
// @Accept       json
// @Produce      json
// @Param        body  body      otpRequestBody  true  "Identifier and purpose"
// @Success      202   {object}  deliveryResponse
// @Failure      400   {object}  map[string]string
// @Router       /otp/request [post]
func (h *OtpHandler) Request(c echo.Context) error {
	var req otpRequestBody
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	purpose := domain.OtpPurpose(req.Purpose)
	handle, err := h.otp.Request(c.Request().Context(), req.Identifier, purpose)
	if err != nil {
		return err
	}

	metrics.OtpRequestedTotal.WithLabelValues(string(purpose)).Inc()
	return c.JSON(http.StatusAccepted, deliveryResponse{DeliveryHandle: handle})
}

// Verify consumes the live code for the identifier.
//
// @Summary      Verify a one-time code
// @Tags         otp
// @Accept       json
// @Produce      json
// @Param        body  body      otpVerifyBody  true  "Identifier and code"
// @Success      200   {object}  otpVerifyResponse
// @Failure      401   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      410   {object}  map[string]string
// @Router       /otp/verify [post]
func (h *OtpHandler) Verify(c echo.Context) error {
	var req otpVerifyBody
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	purpose, err := h.otp.Verify(c.Request().Context(), req.Identifier, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrOtpNotFound):
			metrics.OtpFailedTotal.WithLabelValues("not_found").Inc()
		case errors.Is(err, domain.ErrOtpExpired):
			metrics.OtpFailedTotal.WithLabelValues("expired").Inc()
		case errors.Is(err, domain.ErrOtpMismatch):
			metrics.OtpFailedTotal.WithLabelValues("mismatch").Inc()
		}
		return err
	}

	metrics.OtpVerifiedTotal.WithLabelValues(string(purpose)).Inc()
	return c.JSON(http.StatusOK, otpVerifyResponse{Verified: true, Purpose: string(purpose)})
}

// ChangePassword completes a verified reset_password session. The session is
// spent on the first call whether or not the reset succeeds.
//
// @Summary      Complete a password reset
// @Tags         otp
// @Accept       json
// @Produce      json
// @Param        body  body      otpChangePasswordBody  true  "Identifier and new password"
// @Success      200   {object}  map[string]string
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /otp/change_password [post]
func (h *OtpHandler) ChangePassword(c echo.Context) error {
	var req otpChangePasswordBody
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.otp.CompletePasswordReset(c.Request().Context(), req.Identifier, req.NewPassword); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "password updated"})
}
