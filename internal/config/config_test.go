package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("STORE_BACKEND", "")
	t.Setenv("AUTH_PROVIDER", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Store.Backend)
	assert.Equal(t, "local", cfg.Auth.Provider)
	assert.Equal(t, "conditional", cfg.Planner.Pushdown)
	assert.Equal(t, 0, cfg.Prediction.TimeoutSeconds)
	assert.False(t, cfg.UsesFirebase())
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("STORE_BACKEND", "cassandra")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRequiresJWTSecretForLocalAuth(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("AUTH_PROVIDER", "local")

	_, err := Load()
	assert.Error(t, err)
}

func TestGetEnvAsIntFallsBack(t *testing.T) {
	t.Setenv("SOME_INT", "not-a-number")
	assert.Equal(t, 7, getEnvAsInt("SOME_INT", 7))
}

func TestLoadPredictionProfiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "profiles.yaml")
	content := `
profiles:
  coworking:
    key_style: display
    envelope: data
    overrides:
      2_wheeler_parking: "2 wheeler parking"
  generic:
    endpoint: /v2/predict
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	profiles, err := LoadPredictionProfiles(path)
	require.NoError(t, err)

	cw := profiles["coworking"]
	assert.Equal(t, "/predict/coworking", cw.Endpoint)
	assert.Equal(t, KeyStyleDisplay, cw.KeyStyle)
	assert.Equal(t, EnvelopeData, cw.Envelope)
	assert.Equal(t, "2 wheeler parking", cw.Overrides["2_wheeler_parking"])

	assert.Equal(t, "/v2/predict", profiles["generic"].Endpoint)
	assert.Equal(t, "/predict/office_rent", profiles["office_rent"].Endpoint)
}

func TestLoadPredictionProfilesRejectsBadStyle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.yaml")
	require.NoError(t, os.WriteFile(path, []byte("profiles:\n  coworking:\n    key_style: camel\n"), 0o644))

	_, err := LoadPredictionProfiles(path)
	assert.Error(t, err)
}

func TestLoadPredictionProfilesEmptyPath(t *testing.T) {
	profiles, err := LoadPredictionProfiles("")
	require.NoError(t, err)
	assert.Len(t, profiles, 3)
}
