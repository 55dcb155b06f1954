package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAssistantBaseURL(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{
			name: "development uses dev url",
			cfg:  Config{Env: EnvDevelopment, AssistantURLDev: "http://localhost:8000/", AssistantURLProd: "https://api.example.com"},
			want: "http://localhost:8000",
		},
		{
			name: "production uses prod url",
			cfg:  Config{Env: EnvProduction, AssistantURLDev: "http://localhost:8000", AssistantURLProd: "https://api.example.com/prod"},
			want: "https://api.example.com/prod",
		},
		{
			name: "explicit override wins",
			cfg:  Config{Env: EnvProduction, AssistantURL: "http://override:9000", AssistantURLProd: "https://api.example.com"},
			want: "http://override:9000",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cfg.AssistantBaseURL())
		})
	}
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("APP_ENV", "Production")
	t.Setenv("REVEAL_DELAY", "40")
	t.Setenv("FLIGHT_API_TIMEOUT", "5s")
	t.Setenv("SESSION_MAX_HISTORY", "not-a-number")
	t.Setenv("FLIGHT_API_URL", "http://flights.local/search")

	cfg := Load()

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 40*time.Millisecond, cfg.RevealDelay)
	assert.Equal(t, 5*time.Second, cfg.FlightAPITimeout)
	assert.Equal(t, 50, cfg.SessionMaxHistory)
	assert.Equal(t, "http://flights.local/search", cfg.FlightAPIURL)
	assert.Equal(t, 30*time.Minute, cfg.SessionIdleTTL)
}
