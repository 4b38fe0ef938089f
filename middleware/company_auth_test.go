package middleware

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

func newAuthTestApp(secret []byte) *fiber.App {
	app := fiber.New()
	app.Get("/protected", CompanyAuthMiddleware(secret), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"company_id": c.Locals("company_id")})
	})
	return app
}

func signToken(t *testing.T, secret []byte, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func TestCompanyAuthMiddlewareValidToken(t *testing.T) {
	secret := []byte("test-secret")
	app := newAuthTestApp(secret)

	token := signToken(t, secret, jwt.MapClaims{
		"company_id": "company-123",
		"exp":        time.Now().Add(time.Hour).Unix(),
	})

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	body, _ := io.ReadAll(resp.Body)
	var out map[string]string
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if out["company_id"] != "company-123" {
		t.Fatalf("expected company_id to reach the handler, got %q", out["company_id"])
	}
}

func TestCompanyAuthMiddlewareRejects(t *testing.T) {
	secret := []byte("test-secret")
	app := newAuthTestApp(secret)

	cases := []struct {
		name  string
		token string
	}{
		{"missing header", ""},
		{"garbage token", "Bearer not.a.jwt"},
		{"wrong secret", "Bearer " + signToken(t, []byte("other-secret"), jwt.MapClaims{
			"company_id": "company-123",
			"exp":        time.Now().Add(time.Hour).Unix(),
		})},
		{"expired", "Bearer " + signToken(t, secret, jwt.MapClaims{
			"company_id": "company-123",
			"exp":        time.Now().Add(-time.Hour).Unix(),
		})},
		{"no company_id claim", "Bearer " + signToken(t, secret, jwt.MapClaims{
			"exp": time.Now().Add(time.Hour).Unix(),
		})},
	}

	for _, tc := range cases {
		req := httptest.NewRequest("GET", "/protected", nil)
		if tc.token != "" {
			req.Header.Set("Authorization", tc.token)
		}
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("%s: request: %v", tc.name, err)
		}
		if resp.StatusCode != fiber.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", tc.name, resp.StatusCode)
		}
	}
}
