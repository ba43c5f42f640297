package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the application's configuration.
type Config struct {
	Database struct {
		URL string `yaml:"url"`
	} `yaml:"database"`
	ModelService struct {
		URL            string `yaml:"url"`
		TimeoutSeconds int64  `yaml:"timeout_seconds"`
	} `yaml:"model_service"`
	Scoring ScoringConfig `yaml:"scoring"`
	Uploads struct {
		Dir     string `yaml:"dir"`
		BaseURL string `yaml:"base_url"`
	} `yaml:"uploads"`
	Auth struct {
		JWTSecret     string `yaml:"jwt_secret"`
		TokenTTLHours int64  `yaml:"token_ttl_hours"`
	} `yaml:"auth"`
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
}

// ScoringConfig exposes the heuristic policy constants. The history window
// and similarity limit are sampling bounds carried over from the reference
// deployment, not statistically validated values.
type ScoringConfig struct {
	FlatAmountCeiling float64 `yaml:"flat_amount_ceiling"`
	HistoryWindow     int     `yaml:"history_window"`
	MinSamples        int     `yaml:"min_samples"`
	StdDevMultiplier  float64 `yaml:"stddev_multiplier"`
	SimilarityLimit   int     `yaml:"similarity_limit"`
}

// LoadConfig reads configuration from the specified YAML file.
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}

	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(config); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	config.applyDefaults()

	return config, nil
}

func (c *Config) applyDefaults() {
	if c.ModelService.TimeoutSeconds == 0 {
		c.ModelService.TimeoutSeconds = 20
	}
	if c.Scoring.FlatAmountCeiling == 0 {
		c.Scoring.FlatAmountCeiling = 10000
	}
	if c.Scoring.HistoryWindow == 0 {
		c.Scoring.HistoryWindow = 100
	}
	if c.Scoring.MinSamples == 0 {
		c.Scoring.MinSamples = 3
	}
	if c.Scoring.StdDevMultiplier == 0 {
		c.Scoring.StdDevMultiplier = 3
	}
	if c.Scoring.SimilarityLimit == 0 {
		c.Scoring.SimilarityLimit = 5
	}
	if c.Auth.TokenTTLHours == 0 {
		c.Auth.TokenTTLHours = 24 * 7
	}
	if c.Uploads.Dir == "" {
		c.Uploads.Dir = "uploads"
	}
	if c.Server.Port == "" {
		c.Server.Port = ":4000"
	}
}
