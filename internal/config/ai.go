package config

import "time"

// AIConfig holds the answer-generation settings
type AIConfig struct {
	APIKey string `mapstructure:"api-key" json:"-"` // Never serialize
	Model  string `mapstructure:"model" json:"model"`

	// Timeout bounds one generation call; the turn aborts without recording when it elapses
	Timeout time.Duration `mapstructure:"timeout" json:"timeout"`

	// MaxAttempts bounds how often a generation is retried when the produced type is wrong
	MaxAttempts int `mapstructure:"max-attempts" json:"maxAttempts"`

	Temperature float64 `mapstructure:"temperature" json:"temperature"`
}

// IsEnabled returns true if the AI API is configured
func (c AIConfig) IsEnabled() bool {
	return c.APIKey != ""
}
