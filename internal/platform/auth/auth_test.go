package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

var testSecret = []byte("test-secret-key-for-auth-package")

func TestIssueAndParseToken(t *testing.T) {
	tok, err := IssueToken("doc-123", "doctor", testSecret, time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	claims, err := ParseToken(tok, testSecret)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claims.Subject != "doc-123" {
		t.Errorf("expected subject doc-123, got %s", claims.Subject)
	}
	if claims.Role != "doctor" {
		t.Errorf("expected role doctor, got %s", claims.Role)
	}
}

func TestParseToken_WrongSecret(t *testing.T) {
	tok, _ := IssueToken("doc-123", "doctor", testSecret, time.Hour)
	if _, err := ParseToken(tok, []byte("some-other-secret")); err == nil {
		t.Error("expected error for wrong secret")
	}
}

func TestParseToken_Expired(t *testing.T) {
	tok, _ := IssueToken("doc-123", "doctor", testSecret, -time.Minute)
	if _, err := ParseToken(tok, testSecret); err == nil {
		t.Error("expected error for expired token")
	}
}

func TestJWTMiddleware_ValidToken(t *testing.T) {
	tok, _ := IssueToken("doc-123", "doctor", testSecret, time.Hour)
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := func(c echo.Context) error {
		if got := DoctorIDFromContext(c.Request().Context()); got != "doc-123" {
			t.Errorf("expected doctor id doc-123, got %s", got)
		}
		if got := RoleFromContext(c.Request().Context()); got != "doctor" {
			t.Errorf("expected role doctor, got %s", got)
		}
		return c.String(http.StatusOK, "ok")
	}

	if err := JWTMiddleware(testSecret)(handler)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestJWTMiddleware_MissingHeader(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := func(c echo.Context) error { return c.String(http.StatusOK, "ok") }
	err := JWTMiddleware(testSecret)(handler)(c)
	if err == nil {
		t.Fatal("expected error for missing header")
	}
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %v", err)
	}
}

func TestJWTMiddleware_BadFormat(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Token abc")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := func(c echo.Context) error { return c.String(http.StatusOK, "ok") }
	if err := JWTMiddleware(testSecret)(handler)(c); err == nil {
		t.Error("expected error for bad authorization format")
	}
}
