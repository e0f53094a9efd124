package config

import (
	"os"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Env:                 "development",
		Port:                "8375",
		DBDriver:            "postgres",
		DBSSLMode:           "disable",
		DBPassword:          "password",
		JWTSecret:           "secure-secret-at-least-32-chars-long",
		CursorSalt:          "salt",
		TracingSamplerRatio: 1,
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(c *Config)
		expectError bool
	}{
		{"development defaults", func(_ *Config) {}, false},
		{"missing port", func(c *Config) { c.Port = "" }, true},
		{"missing jwt secret", func(c *Config) { c.JWTSecret = "" }, true},
		{"missing cursor salt", func(c *Config) { c.CursorSalt = "" }, true},
		{"unknown driver", func(c *Config) { c.DBDriver = "oracle" }, true},
		{"sqlite driver", func(c *Config) { c.DBDriver = "sqlite" }, false},
		{"negative pool", func(c *Config) { c.DBMaxOpenConns = -1 }, true},
		{"sampler ratio out of range", func(c *Config) { c.TracingSamplerRatio = 1.5 }, true},
		{"production with default secret", func(c *Config) {
			c.Env = "production"
			c.JWTSecret = defaultJWTSecret
		}, true},
		{"production with short secret", func(c *Config) {
			c.Env = "prod"
			c.JWTSecret = "short"
		}, true},
		{"production with weak db password", func(c *Config) {
			c.Env = "production"
			c.DBSSLMode = "require"
		}, true},
		{"production with ssl disabled", func(c *Config) {
			c.Env = "production"
			c.DBPassword = "a-strong-password"
		}, true},
		{"production hardened", func(c *Config) {
			c.Env = "production"
			c.DBPassword = "a-strong-password"
			c.DBSSLMode = "verify-full"
		}, false},
		{"production sqlite skips db checks", func(c *Config) {
			c.Env = "production"
			c.DBDriver = "sqlite"
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)
			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadConfig_EnvOverridesAndNormalization(t *testing.T) {
	defer os.Unsetenv("APP_ENV")
	defer os.Unsetenv("DB_SSLMODE")
	defer os.Unsetenv("DB_DRIVER")
	defer os.Unsetenv("PUBLIC_BASE_URL")
	defer viper.Reset()

	os.Setenv("APP_ENV", "development")
	os.Setenv("DB_SSLMODE", "  DISABLE  ")
	os.Setenv("DB_DRIVER", "SQLite")
	os.Setenv("PUBLIC_BASE_URL", "https://beatbox.example.com/")

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "disable", c.DBSSLMode)
	assert.Equal(t, "sqlite", c.DBDriver)
	assert.Equal(t, "https://beatbox.example.com", c.PublicBaseURL)
	assert.Equal(t, "8375", c.Port)
	assert.False(t, c.IsProduction())
}
