package models

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	t.Parallel()
	tests := []struct {
		from, to AssetStatus
		want     bool
	}{
		{AssetStatusPending, AssetStatusApproved, true},
		{AssetStatusPending, AssetStatusRejected, true},
		{AssetStatusPending, AssetStatusPending, false},
		{AssetStatusApproved, AssetStatusRejected, false},
		{AssetStatusRejected, AssetStatusApproved, false},
		{AssetStatusApproved, AssetStatusPending, false},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s->%s", tt.from, tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
}

func TestTags_ValueScan(t *testing.T) {
	t.Parallel()

	v, err := Tags{"gaming", "neon"}.Value()
	require.NoError(t, err)
	assert.Equal(t, `["gaming","neon"]`, v)

	var nilTags Tags
	v, err = nilTags.Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", v)

	var scanned Tags
	require.NoError(t, scanned.Scan([]byte(`["a","b"]`)))
	assert.Equal(t, Tags{"a", "b"}, scanned)
	assert.True(t, scanned.Contains(" A "))

	require.NoError(t, scanned.Scan(nil))
	assert.Empty(t, scanned)

	assert.Error(t, scanned.Scan(42))
}

func TestAsset_Dimensions(t *testing.T) {
	t.Parallel()
	a := &Asset{}
	_, ok := a.Dimensions()
	assert.False(t, ok)

	a.SetDimensions(Dimensions{Width: 1280, Height: 720})
	d, ok := a.Dimensions()
	require.True(t, ok)
	assert.Equal(t, Dimensions{Width: 1280, Height: 720}, d)

	a.SetDimensions(Dimensions{})
	assert.Nil(t, a.Width)
	assert.Nil(t, a.Height)
}

func TestCollection_VisibleTo(t *testing.T) {
	t.Parallel()
	private := &Collection{OwnerID: 7}
	assert.True(t, private.VisibleTo(7))
	assert.False(t, private.VisibleTo(8))
	assert.False(t, private.VisibleTo(0))

	public := &Collection{OwnerID: 7, IsPublic: true}
	assert.True(t, public.VisibleTo(0))
}

func TestDecorativeSettings(t *testing.T) {
	t.Parallel()
	keys := DecorativeSettings()
	assert.Contains(t, keys, "payout_method")
	assert.Contains(t, keys, "two_factor")
	assert.NotContains(t, keys, "email_notifications")
}

func TestRespondWithError(t *testing.T) {
	app := fiber.New()
	app.Get("/app", func(c *fiber.Ctx) error {
		return RespondWithError(c, fiber.StatusBadRequest, NewValidationError("bad tags"))
	})
	app.Get("/rl", func(c *fiber.Ctx) error {
		return RespondWithError(c, fiber.StatusTooManyRequests, fmt.Errorf("wrap: %w", &RateLimitError{Tier: TierFree, Limit: 5}))
	})
	app.Get("/internal", func(c *fiber.Ctx) error {
		return RespondWithError(c, fiber.StatusInternalServerError, NewInternalError(errors.New("pq: secret detail")))
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/app", nil))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.JSONEq(t, `{"error":"bad tags","code":"VALIDATION_ERROR"}`, string(body))

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/rl", nil))
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Contains(t, string(body), `"code":"RATE_LIMITED"`)
	assert.Contains(t, string(body), `"tier":"free"`)
	assert.Contains(t, string(body), `"limit":5`)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/internal", nil))
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	assert.NotContains(t, string(body), "secret detail")
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{NewNotFoundError("Asset", 3), http.StatusNotFound},
		{fmt.Errorf("load: %w", NewForbiddenError("creators only")), http.StatusForbidden},
		{NewConflictError("already reviewed"), http.StatusConflict},
		{NewRateLimitedError("slow down"), http.StatusTooManyRequests},
		{&RateLimitError{Tier: TierPro, Limit: 50}, http.StatusTooManyRequests},
		{&AppError{Code: "SOMETHING_NEW"}, http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HTTPStatus(tt.err), tt.err.Error())
	}
}
