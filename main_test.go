package main

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mager/species/auth"
	"github.com/mager/species/config"
	"github.com/mager/species/grader"
	"github.com/mager/species/handler/analyze"
	"github.com/mager/species/handler/health"
	"github.com/mager/species/handler/rules"
	"github.com/mager/species/logger"
	"github.com/mager/species/metrics"
	"github.com/mager/species/species"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouterGuardsPrivateRoutes(t *testing.T) {
	log, _ := logger.NewTestLogger()
	cfg := config.Config{DefaultSpecies: 1, MaxScoreBytes: 1 << 20}
	g := grader.New(log, nil, nil, nil, nil)
	verifier := auth.NewVerifier("secret", log)
	routes := []Route{
		health.NewHealthHandler(log, g),
		rules.NewRulesHandler(log),
		analyze.NewAnalyzeHandler(log, cfg, g),
	}
	router := NewRouter(verifier, metrics.New(prometheus.NewRegistry()), routes)

	do := func(method, path, token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader("{"))
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		return rr
	}

	rr := do(http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "application/json")
	assert.Equal(t, http.StatusOK, do(http.MethodGet, "/rules", "").Code)
	assert.Equal(t, http.StatusOK, do(http.MethodGet, "/metrics", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(http.MethodPost, "/analyze", "").Code)

	token, err := verifier.Issue("ada", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, do(http.MethodPost, "/analyze", token).Code)

	assert.Equal(t, http.StatusNotFound, do(http.MethodGet, "/nowhere", "").Code)
}

func TestProvideSettings(t *testing.T) {
	log, _ := logger.NewTestLogger()

	table, err := ProvideSettings(config.Config{}, log)
	require.NoError(t, err)
	assert.Equal(t, species.DefaultSettingsTable(), table)

	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("MAX_SAMEDIR: 5\n"), 0o644))
	table, err = ProvideSettings(config.Config{SettingsPath: path}, log)
	require.NoError(t, err)
	assert.Equal(t, species.AtMost(5), table[2].MaxSameDir)

	_, err = ProvideSettings(config.Config{SettingsPath: filepath.Join(t.TempDir(), "missing.yaml")}, log)
	assert.Error(t, err)
}
