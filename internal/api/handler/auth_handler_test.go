package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/civicworks/grievance-api/internal/core/domain"
	"github.com/civicworks/grievance-api/internal/core/ports"
)

type stubAuthService struct {
	signupFn         func(ctx context.Context, in ports.SignupInput) (*domain.UserProfile, error)
	authenticateFn   func(ctx context.Context, mobile, password string) (string, domain.SessionContext, error)
	changePasswordFn func(ctx context.Context, userID, currentPassword, newPassword string) error
}

func (s *stubAuthService) Signup(ctx context.Context, in ports.SignupInput) (*domain.UserProfile, error) {
	return s.signupFn(ctx, in)
}

func (s *stubAuthService) Authenticate(ctx context.Context, mobile, password string) (string, domain.SessionContext, error) {
	return s.authenticateFn(ctx, mobile, password)
}

func (s *stubAuthService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	return s.changePasswordFn(ctx, userID, currentPassword, newPassword)
}

type stubOtpService struct {
	requestFn func(ctx context.Context, identifier string, purpose domain.OtpPurpose) (string, error)
	verifyFn  func(ctx context.Context, identifier, code string) (domain.OtpPurpose, error)
	resetFn   func(ctx context.Context, identifier, newPassword string) error
}

func (s *stubOtpService) Request(ctx context.Context, identifier string, purpose domain.OtpPurpose) (string, error) {
	return s.requestFn(ctx, identifier, purpose)
}

func (s *stubOtpService) Verify(ctx context.Context, identifier, code string) (domain.OtpPurpose, error) {
	return s.verifyFn(ctx, identifier, code)
}

func (s *stubOtpService) CompletePasswordReset(ctx context.Context, identifier, newPassword string) error {
	return s.resetFn(ctx, identifier, newPassword)
}

func newTestContext(t *testing.T, method, path, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	e.Validator = NewValidator()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestAuthHandler_Signup_Success(t *testing.T) {
	auth := &stubAuthService{
		signupFn: func(_ context.Context, in ports.SignupInput) (*domain.UserProfile, error) {
			if in.Name != "Asha" || in.Mobile != "9900112233" {
				t.Fatalf("unexpected input: %+v", in)
			}
			return &domain.UserProfile{ID: "u1", Name: in.Name, Mobile: in.Mobile, Role: domain.RoleCitizen}, nil
		},
	}
	otp := &stubOtpService{
		requestFn: func(_ context.Context, identifier string, purpose domain.OtpPurpose) (string, error) {
			if identifier != "9900112233" || purpose != domain.PurposeSignup {
				t.Fatalf("unexpected otp request: %s %s", identifier, purpose)
			}
			return "handle-1", nil
		},
	}
	h := NewAuthHandler(auth, otp)

	c, rec := newTestContext(t, http.MethodPost, "/auth/signup",
		`{"name":"Asha","mobile":"9900112233","password":"s3cret-pass"}`)
	if err := h.Signup(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["user_id"] != "u1" || resp["delivery_handle"] != "handle-1" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestAuthHandler_Signup_ShortPassword(t *testing.T) {
	h := NewAuthHandler(&stubAuthService{
		signupFn: func(context.Context, ports.SignupInput) (*domain.UserProfile, error) {
			t.Fatalf("service must not be called")
			return nil, nil
		},
	}, &stubOtpService{})

	c, _ := newTestContext(t, http.MethodPost, "/auth/signup",
		`{"name":"Asha","mobile":"9900112233","password":"short"}`)
	err := h.Signup(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestAuthHandler_Signup_Duplicate(t *testing.T) {
	h := NewAuthHandler(&stubAuthService{
		signupFn: func(context.Context, ports.SignupInput) (*domain.UserProfile, error) {
			return nil, domain.ErrUserExists
		},
	}, &stubOtpService{})

	c, _ := newTestContext(t, http.MethodPost, "/auth/signup",
		`{"name":"Asha","mobile":"9900112233","password":"s3cret-pass"}`)
	if err := h.Signup(c); !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists to pass through, got %v", err)
	}
}

func TestAuthHandler_Login_Success(t *testing.T) {
	h := NewAuthHandler(&stubAuthService{
		authenticateFn: func(_ context.Context, mobile, password string) (string, domain.SessionContext, error) {
			if mobile != "9900112233" || password != "s3cret-pass" {
				t.Fatalf("unexpected credentials: %s %s", mobile, password)
			}
			return "token123", domain.SessionContext{UserID: "u1", Role: domain.RoleMunicipalAdmin}, nil
		},
	}, &stubOtpService{})

	c, rec := newTestContext(t, http.MethodPost, "/auth/login",
		`{"mobile":"9900112233","password":"s3cret-pass"}`)
	if err := h.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp map[string]string
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["token"] != "token123" || resp["role"] != "municipal_admin" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	h := NewAuthHandler(&stubAuthService{
		authenticateFn: func(context.Context, string, string) (string, domain.SessionContext, error) {
			return "", domain.SessionContext{}, domain.ErrInvalidCredentials
		},
	}, &stubOtpService{})

	c, _ := newTestContext(t, http.MethodPost, "/auth/login",
		`{"mobile":"9900112233","password":"wrong"}`)
	if err := h.Login(c); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials to pass through, got %v", err)
	}
}

func TestAuthHandler_ForgotPassword(t *testing.T) {
	h := NewAuthHandler(&stubAuthService{}, &stubOtpService{
		requestFn: func(_ context.Context, identifier string, purpose domain.OtpPurpose) (string, error) {
			if purpose != domain.PurposeResetPassword {
				t.Fatalf("expected reset_password purpose, got %s", purpose)
			}
			return "handle-2", nil
		},
	})

	c, rec := newTestContext(t, http.MethodPost, "/auth/forgot_password", `{"mobile":"9900112233"}`)
	if err := h.ForgotPassword(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
}
