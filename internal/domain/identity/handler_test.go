package identity

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/voicescreen/voicescreen/internal/platform/auth"
)

func TestRegisterHandler(t *testing.T) {
	e := echo.New()
	h := NewHandler(newTestService())

	body := `{"email": "doc@example.com", "password": "correct-horse", "name": "Dr. Roe"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Register(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "password_hash") || strings.Contains(rec.Body.String(), "correct-horse") {
		t.Error("expected password material to stay out of the response")
	}
}

func TestRegisterHandler_Duplicate(t *testing.T) {
	e := echo.New()
	h := NewHandler(newTestService())
	body := `{"email": "doc@example.com", "password": "correct-horse", "name": "Dr. Roe"}`

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c := e.NewContext(req, httptest.NewRecorder())
	if err := h.Register(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c = e.NewContext(req, httptest.NewRecorder())
	err := h.Register(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %v", err)
	}
}

func TestLoginHandler(t *testing.T) {
	e := echo.New()
	svc := newTestService()
	h := NewHandler(svc)
	svc.Register(context.Background(), "doc@example.com", "correct-horse", "Dr. Roe")

	body := `{"email": "doc@example.com", "password": "correct-horse"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Login(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(rec.Body.String(), `"token"`) {
		t.Errorf("expected session token in response, got %s", rec.Body.String())
	}
}

func TestLoginHandler_BadCredentials(t *testing.T) {
	e := echo.New()
	h := NewHandler(newTestService())

	body := `{"email": "nobody@example.com", "password": "whatever"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c := e.NewContext(req, httptest.NewRecorder())

	err := h.Login(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestMeHandler(t *testing.T) {
	e := echo.New()
	svc := newTestService()
	h := NewHandler(svc)
	d, _ := svc.Register(context.Background(), "doc@example.com", "correct-horse", "Dr. Roe")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/doctors/me", nil)
	ctx := auth.WithDoctor(req.Context(), d.ID.String(), d.Role)
	rec := httptest.NewRecorder()
	c := e.NewContext(req.WithContext(ctx), rec)

	if err := h.Me(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(rec.Body.String(), "doc@example.com") {
		t.Errorf("expected account in response, got %s", rec.Body.String())
	}
}

func TestMyQRHandler(t *testing.T) {
	e := echo.New()
	svc := newTestService()
	h := NewHandler(svc)
	d, _ := svc.Register(context.Background(), "doc@example.com", "correct-horse", "Dr. Roe")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/doctors/me/qr", nil)
	ctx := auth.WithDoctor(req.Context(), d.ID.String(), d.Role)
	rec := httptest.NewRecorder()
	c := e.NewContext(req.WithContext(ctx), rec)

	if err := h.MyQR(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(rec.Body.String(), "assessment?doctor="+d.ID.String()) {
		t.Errorf("expected onboarding URL in response, got %s", rec.Body.String())
	}
}

func TestMeHandler_NoSession(t *testing.T) {
	e := echo.New()
	h := NewHandler(newTestService())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/doctors/me", nil)
	c := e.NewContext(req, httptest.NewRecorder())

	err := h.Me(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}
