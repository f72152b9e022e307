package models

import "time"

// Provider is an AI completion provider from the registry
type Provider struct {
	ID                int       `json:"id"`
	Name              string    `json:"name"`
	BaseURL           string    `json:"base_url"`
	APIKey            string    `json:"-"`
	Enabled           bool      `json:"enabled"`
	DefaultModel      string    `json:"default_model,omitempty"`
	RequestsPerMinute int       `json:"requests_per_minute,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// ProviderConfig is one provider entry in providers.json
type ProviderConfig struct {
	Name              string `json:"name"`
	BaseURL           string `json:"base_url"`
	APIKey            string `json:"api_key"`
	Enabled           bool   `json:"enabled"`
	DefaultModel      string `json:"default_model,omitempty"`
	RequestsPerMinute int    `json:"requests_per_minute,omitempty"`
}

// ProvidersConfig is the providers.json file format
type ProvidersConfig struct {
	Providers []ProviderConfig `json:"providers"`
}
