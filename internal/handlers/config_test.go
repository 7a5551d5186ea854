package handlers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mindfulpath/practicesite/internal/handlers/testutil"
	"github.com/mindfulpath/practicesite/internal/siteconfig"
)

func TestConfigListReturnsSeededSections(t *testing.T) {
	env := testutil.NewEnv(t)

	var entries []siteconfig.Entry
	resp := testutil.MustData(env, http.MethodGet, "/api/config", nil, http.StatusOK, &entries)
	require.Equal(t, len(siteconfig.Seeds()), resp.Meta.Total)

	hero, err := siteconfig.Lookup[*siteconfig.Hero](entries, siteconfig.KeyHero)
	require.NoError(t, err)
	require.NotEmpty(t, hero.Title)
}

func TestConfigUpsertAndGet(t *testing.T) {
	env := testutil.NewEnv(t)

	var saved siteconfig.Entry
	testutil.MustData(env, http.MethodPost, "/api/admin/config", map[string]any{
		"key":   "hero_section",
		"value": map[string]any{"title": "Therapy for busy professionals"},
	}, http.StatusOK, &saved)
	require.Equal(t, "hero_section", saved.Key)

	var fetched siteconfig.Entry
	testutil.MustData(env, http.MethodGet, "/api/admin/config/hero_section", nil, http.StatusOK, &fetched)

	hero, err := siteconfig.Lookup[*siteconfig.Hero]([]siteconfig.Entry{fetched}, siteconfig.KeyHero)
	require.NoError(t, err)
	require.Equal(t, "Therapy for busy professionals", hero.Title)
	require.Equal(t, "Book a consultation", hero.CTALabel)
}

func TestConfigUpsertErrors(t *testing.T) {
	env := testutil.NewEnv(t)

	w := env.Request(http.MethodPost, "/api/admin/config", map[string]any{"key": "sidebar", "value": map[string]any{}})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "config.unknown_key", testutil.DecodeResponse(t, w).Error.Code)

	w = env.Request(http.MethodPost, "/api/admin/config", map[string]any{"key": "avatar", "value": map[string]any{"url": "nope"}})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, testutil.DecodeResponse(t, w).Error.Message, "url must be a valid URL")

	w = env.Request(http.MethodPost, "/api/admin/config", map[string]any{"value": map[string]any{}})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestConfigDelete(t *testing.T) {
	env := testutil.NewEnv(t)

	w := env.Request(http.MethodDelete, "/api/admin/config/hero_section", nil)
	require.Equal(t, http.StatusConflict, w.Code)

	w = env.Request(http.MethodDelete, "/api/admin/config/avatar", nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	testutil.MustData[siteconfig.Entry](env, http.MethodPost, "/api/admin/config", map[string]any{
		"key":   "avatar",
		"value": map[string]any{"url": "https://cdn.example.com/me.jpg"},
	}, http.StatusOK, nil)
	testutil.MustData[map[string]any](env, http.MethodDelete, "/api/admin/config/avatar", nil, http.StatusOK, nil)
}

func TestMaintenanceModeGatesPublicContent(t *testing.T) {
	env := testutil.NewEnv(t)

	require.Equal(t, http.StatusOK, env.Request(http.MethodGet, "/api/testimonials", nil).Code)

	testutil.MustData[siteconfig.Entry](env, http.MethodPost, "/api/admin/config", map[string]any{
		"key":   "maintenance_mode",
		"value": map[string]any{"enabled": true, "message": "Back on Monday"},
	}, http.StatusOK, nil)

	w := env.Request(http.MethodGet, "/api/testimonials", nil)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	require.Equal(t, "Back on Monday", testutil.DecodeResponse(t, w).Error.Message)

	require.Equal(t, http.StatusOK, env.Request(http.MethodGet, "/api/config", nil).Code)
	require.Equal(t, http.StatusOK, env.Request(http.MethodGet, "/api/admin/testimonials", nil).Code)
}
