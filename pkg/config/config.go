package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	ModelSettings struct {
		Temperature float64 `yaml:"temperature"`
		TopP        float64 `yaml:"top_p"`
	} `yaml:"model_settings"`
	Consent struct {
		RequireExplicitConsent bool    `yaml:"require_explicit_consent"`
		TTLHours               float64 `yaml:"ttl_hours"`
	} `yaml:"consent"`
	Plans struct {
		RomanticAllowed []string `yaml:"romantic_allowed"`
		IntimateAllowed []string `yaml:"intimate_allowed"`
		UpgradeURL      string   `yaml:"upgrade_url"`
	} `yaml:"plans"`
	Server struct {
		Addr                     string   `yaml:"addr"`
		CORSAllowOrigins         []string `yaml:"cors_allow_origins"`
		Debug                    bool     `yaml:"debug"`
		GenerationTimeoutSeconds float64  `yaml:"generation_timeout_seconds"`
	} `yaml:"server"`
}

func LoadConfig(path string) (*Config, error) {
	config := &Config{}
	config.setDefaults()

	_, err := os.Stat(path)
	if os.IsNotExist(err) {
		return config, nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	err = yaml.Unmarshal(file, config)
	if err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) setDefaults() {
	c.ModelSettings.Temperature = 0.8
	c.ModelSettings.TopP = 1
	c.Consent.RequireExplicitConsent = true
	c.Consent.TTLHours = 0 // no expiry
	c.Server.Addr = ":8080"
	c.Server.CORSAllowOrigins = []string{"*"}
	c.Server.GenerationTimeoutSeconds = 60
}
