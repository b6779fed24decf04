package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	// Provide a path that definitely doesn't exist
	config, err := LoadConfig("non_existent_config.yml")
	require.NoError(t, err)

	assert.Equal(t, 0.8, config.ModelSettings.Temperature)
	assert.Equal(t, 1.0, config.ModelSettings.TopP)
	assert.True(t, config.Consent.RequireExplicitConsent)
	assert.Equal(t, 0.0, config.Consent.TTLHours)
	assert.Empty(t, config.Plans.RomanticAllowed)
	assert.Empty(t, config.Plans.IntimateAllowed)
	assert.Equal(t, ":8080", config.Server.Addr)
	assert.Equal(t, []string{"*"}, config.Server.CORSAllowOrigins)
	assert.False(t, config.Server.Debug)
	assert.Equal(t, 60.0, config.Server.GenerationTimeoutSeconds)
}

func TestLoadConfig_ValidFile(t *testing.T) {
	content := []byte(`
model_settings:
  temperature: 0.7
  top_p: 0.9
consent:
  require_explicit_consent: true
  ttl_hours: 720
plans:
  romantic_allowed: [companion, devoted]
  intimate_allowed: [devoted]
  upgrade_url: https://example.com/upgrade
server:
  addr: ":9090"
  cors_allow_origins: ["https://app.example.com"]
  debug: true
  generation_timeout_seconds: 30
`)
	tmpfile, err := os.CreateTemp("", "config_test_*.yml")
	require.NoError(t, err)
	defer os.Remove(tmpfile.Name()) // clean up

	if _, err := tmpfile.Write(content); err != nil {
		tmpfile.Close()
		t.Fatal(err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}

	config, err := LoadConfig(tmpfile.Name())
	require.NoError(t, err)

	assert.Equal(t, 0.7, config.ModelSettings.Temperature)
	assert.Equal(t, 0.9, config.ModelSettings.TopP)
	assert.Equal(t, 720.0, config.Consent.TTLHours)
	assert.Equal(t, []string{"companion", "devoted"}, config.Plans.RomanticAllowed)
	assert.Equal(t, []string{"devoted"}, config.Plans.IntimateAllowed)
	assert.Equal(t, "https://example.com/upgrade", config.Plans.UpgradeURL)
	assert.Equal(t, ":9090", config.Server.Addr)
	assert.True(t, config.Server.Debug)
	assert.Equal(t, 30.0, config.Server.GenerationTimeoutSeconds)
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	content := []byte(`
model_settings:
  temperature: "not a number"
  broken_yaml: [ unclosed bracket
`)
	tmpfile, err := os.CreateTemp("", "config_invalid_*.yml")
	require.NoError(t, err)
	defer os.Remove(tmpfile.Name())

	if _, err := tmpfile.Write(content); err != nil {
		tmpfile.Close()
		t.Fatal(err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}

	config, err := LoadConfig(tmpfile.Name())

	assert.Error(t, err)
	assert.Nil(t, config)
}
