package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"mailcadence/config"
	"mailcadence/utils"
)

func protectedApp() *fiber.App {
	app := fiber.New()
	app.Get("/whoami", Protected(), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"owner_id": OwnerID(c)})
	})
	return app
}

func TestProtected(t *testing.T) {
	config.AppConfig.JWTSecret = "test-secret"
	app := protectedApp()

	t.Run("valid bearer token", func(t *testing.T) {
		token, err := utils.GenerateToken(7, time.Hour)
		if err != nil {
			t.Fatalf("failed to mint token: %v", err)
		}

		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		if resp.StatusCode != fiber.StatusOK {
			t.Fatalf("status = %d, want 200", resp.StatusCode)
		}

		var body struct {
			OwnerID uint `json:"owner_id"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if body.OwnerID != 7 {
			t.Errorf("owner_id = %d, want 7", body.OwnerID)
		}
	})

	t.Run("token in cookie", func(t *testing.T) {
		token, err := utils.GenerateToken(3, time.Hour)
		if err != nil {
			t.Fatalf("failed to mint token: %v", err)
		}

		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.AddCookie(&http.Cookie{Name: "access_token", Value: token})
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		if resp.StatusCode != fiber.StatusOK {
			t.Errorf("status = %d, want 200", resp.StatusCode)
		}
	})

	t.Run("missing token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		if resp.StatusCode != fiber.StatusUnauthorized {
			t.Errorf("status = %d, want 401", resp.StatusCode)
		}
	})

	t.Run("malformed authorization header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set("Authorization", "Token abc")
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		if resp.StatusCode != fiber.StatusUnauthorized {
			t.Errorf("status = %d, want 401", resp.StatusCode)
		}
	})

	t.Run("expired token", func(t *testing.T) {
		token, err := utils.GenerateToken(7, -time.Hour)
		if err != nil {
			t.Fatalf("failed to mint token: %v", err)
		}

		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		if resp.StatusCode != fiber.StatusUnauthorized {
			t.Errorf("status = %d, want 401", resp.StatusCode)
		}
	})
}
