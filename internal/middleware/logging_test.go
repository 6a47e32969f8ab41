package middleware

import (
	"bufio"
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureLogs(t *testing.T, o LogOptions) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := Logger
	Logger = newLogger(o, &buf)
	t.Cleanup(func() { Logger = prev })
	return &buf
}

func records(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	sc := bufio.NewScanner(buf)
	for sc.Scan() {
		var rec map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &rec), sc.Text())
		out = append(out, rec)
	}
	return out
}

func TestStructuredLogger_LevelByStatus(t *testing.T) {
	buf := captureLogs(t, LogOptions{Env: "production"})

	app := fiber.New()
	app.Use(StructuredLogger())
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("requestid", "req-1")
		c.Locals("userID", uint(7))
		return c.Next()
	})
	app.Use(ContextMiddleware())
	app.Get("/api/assets/:id", func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/api/fail", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusBadGateway) })
	app.Get("/health", func(c *fiber.Ctx) error { return c.SendString("up") })

	for _, path := range []string{"/api/assets/3", "/api/fail", "/health", "/nope"} {
		_, err := app.Test(httptest.NewRequest("GET", path, nil))
		require.NoError(t, err)
	}

	recs := records(t, buf)
	require.Len(t, recs, 3, "health probe is not logged")

	assert.Equal(t, "INFO", recs[0]["level"])
	assert.Equal(t, "/api/assets/:id", recs[0]["route"])
	assert.Equal(t, "req-1", recs[0]["request_id"])
	assert.EqualValues(t, 7, recs[0]["user_id"])

	assert.Equal(t, "ERROR", recs[1]["level"])
	assert.EqualValues(t, fiber.StatusBadGateway, recs[1]["status"])

	assert.Equal(t, "WARN", recs[2]["level"])
	assert.EqualValues(t, fiber.StatusNotFound, recs[2]["status"])
	assert.Contains(t, recs[2], "error")
}

func TestNewLogger_Level(t *testing.T) {
	buf := captureLogs(t, LogOptions{Env: "prod", Level: "warn"})
	Logger.Info("dropped")
	Logger.Warn("kept")

	recs := records(t, buf)
	require.Len(t, recs, 1)
	assert.Equal(t, "kept", recs[0]["msg"])

	assert.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	assert.Equal(t, slog.LevelInfo, parseLevel("loud"))
	assert.Equal(t, slog.LevelInfo, parseLevel(""))
}
