package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Env:             "production",
		DBSSLMode:       "require",
		JWTSecret:       "secure-secret-at-least-32-chars-long",
		DBPassword:      "secure-password",
		Port:            "8080",
		MaxUploadSizeMB: 10,
		StorageBackend:  "local",
	}
}

func TestConfig_ValidateSSLMode(t *testing.T) {
	tests := []struct {
		name        string
		env         string
		sslMode     string
		expectError bool
	}{
		{"Production with empty SSL mode", "production", "", true},
		{"Production with disable SSL mode", "production", "disable", true},
		{"Production with require SSL mode", "production", "require", false},
		{"Prod with empty SSL mode", "prod", "", true},
		{"Prod with verify-full SSL mode", "prod", "verify-full", false},
		{"Development with disable SSL mode", "development", "disable", false},
		{"Test with empty SSL mode", "test", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			c.Env = tt.env
			c.DBSSLMode = tt.sslMode

			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_ValidateProductionSecrets(t *testing.T) {
	c := validConfig()
	c.JWTSecret = defaultJWTSecret
	assert.Error(t, c.Validate())

	c = validConfig()
	c.JWTSecret = "short"
	assert.Error(t, c.Validate())

	c = validConfig()
	c.DBPassword = "password"
	assert.Error(t, c.Validate())
}

func TestConfig_ValidateStorage(t *testing.T) {
	c := validConfig()
	c.StorageBackend = "gcs"
	assert.Error(t, c.Validate(), "gcs needs a bucket")

	c.GCSBucket = "viralpik-assets"
	assert.NoError(t, c.Validate())

	c.StorageBackend = "s3"
	assert.Error(t, c.Validate())

	c = validConfig()
	c.MaxUploadSizeMB = 0
	assert.Error(t, c.Validate())
}

func TestLoadConfig_DefaultsAndNormalization(t *testing.T) {
	defer viper.Reset()

	t.Setenv("APP_ENV", "development")
	t.Setenv("DB_SSLMODE", "  DISABLE  ")
	t.Setenv("DOWNLOAD_LIMIT_FREE", "3")

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "disable", c.DBSSLMode)
	assert.Equal(t, 3, c.DownloadLimitFree)
	assert.Equal(t, 50, c.DownloadLimitPro)
	assert.Equal(t, -1, c.DownloadLimitBusiness)
	assert.Equal(t, "local", c.StorageBackend)
	assert.Contains(t, c.FeatureFlags, "admin_self_approval")
	assert.False(t, c.SMTPEnabled())
}
