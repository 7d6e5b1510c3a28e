package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

func signToken(t *testing.T, method jwt.SigningMethod, secret string, claims jwt.MapClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

// rejects runs the Auth middleware with the given header and asserts a 401.
func rejects(t *testing.T, header string) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := Auth("secret")(func(c echo.Context) error {
		t.Fatalf("should not reach next")
		return nil
	})

	if err := handler(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	e := echo.New()
	signed := signToken(t, jwt.SigningMethodHS256, "secret", jwt.MapClaims{
		"username": "alice",
		"exp":      time.Now().Add(time.Hour).Unix(),
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	mw := Auth("secret")
	handler := mw(func(c echo.Context) error {
		called = true
		if c.Get("username") != "alice" {
			t.Fatalf("username not set")
		}
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next not called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAuthMiddleware_MissingHeader(t *testing.T) {
	rejects(t, "")
}

func TestAuthMiddleware_InvalidHeaderFormat(t *testing.T) {
	rejects(t, "Token abc")
}

func TestAuthMiddleware_InvalidToken(t *testing.T) {
	rejects(t, "Bearer not-a-token")
}

func TestAuthMiddleware_WrongSecret(t *testing.T) {
	signed := signToken(t, jwt.SigningMethodHS256, "other-secret", jwt.MapClaims{"username": "alice"})
	rejects(t, "Bearer "+signed)
}

func TestAuthMiddleware_Expired(t *testing.T) {
	signed := signToken(t, jwt.SigningMethodHS256, "secret", jwt.MapClaims{
		"username": "alice",
		"exp":      time.Now().Add(-time.Minute).Unix(),
	})
	rejects(t, "Bearer "+signed)
}

func TestAuthMiddleware_WrongAlgorithm(t *testing.T) {
	signed := signToken(t, jwt.SigningMethodHS512, "secret", jwt.MapClaims{"username": "alice"})
	rejects(t, "Bearer "+signed)
}

func TestAuthMiddleware_MissingUsernameClaim(t *testing.T) {
	signed := signToken(t, jwt.SigningMethodHS256, "secret", jwt.MapClaims{"sub": "alice"})
	rejects(t, "Bearer "+signed)
}

func TestAuthMiddleware_LowercaseScheme(t *testing.T) {
	e := echo.New()
	signed := signToken(t, jwt.SigningMethodHS256, "secret", jwt.MapClaims{"username": "bob"})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "bearer "+signed)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := Auth("secret")(func(c echo.Context) error {
		return c.String(http.StatusOK, c.Get("username").(string))
	})
	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Body.String() != "bob" {
		t.Fatalf("expected bob, got %q", rec.Body.String())
	}
}
