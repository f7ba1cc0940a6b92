package config

import (
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets every variable Load reads so the host environment cannot
// leak in. t.Setenv registers the restore before the unset.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"APP_ENV", "SERVER_PORT", "ALLOWED_ORIGINS", "JWT_SECRET", "TOKEN_TTL",
		"BCRYPT_COST", "MAX_MESSAGE_SIZE", "STORE_DRIVER", "DATABASE_URL",
		"BADGER_PATH", "LOG_LEVEL", "SHUTDOWN_TIMEOUT", "RATE_LIMIT_REQUESTS",
		"RATE_LIMIT_WINDOW",
	} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	c, err := Load()
	require.NoError(t, err)

	want := &Config{
		Env:               EnvDevelopment,
		Port:              ":3001",
		RawOrigins:        "*",
		JWTSecret:         DevSecret,
		TokenTTL:          7 * 24 * time.Hour,
		BcryptCost:        10,
		StoreDriver:       DriverMemory,
		BadgerPath:        "./data/badger",
		LogLevel:          "info",
		ShutdownTimeout:   10 * time.Second,
		RateLimitRequests: 100,
		RateLimitWindow:   15 * time.Minute,
		AllowedOrigins:    []string{"*"},
		UsingDevSecret:    true,
	}

	assert.Empty(t, cmp.Diff(want, c))
	require.NoError(t, c.Validate())
}

func TestLoad_FromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_ENV", "Production")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("ALLOWED_ORIGINS", " http://localhost:5173 , ,https://chat.example.com")
	t.Setenv("JWT_SECRET", "s3cr3t")
	t.Setenv("TOKEN_TTL", "1h")
	t.Setenv("BCRYPT_COST", "12")
	t.Setenv("STORE_DRIVER", "Badger")
	t.Setenv("BADGER_PATH", "/tmp/badger")
	t.Setenv("RATE_LIMIT_REQUESTS", "5")
	t.Setenv("RATE_LIMIT_WINDOW", "1m")

	c, err := Load()
	require.NoError(t, err)

	assert.True(t, c.IsProduction())
	assert.Equal(t, ":9090", c.Port)
	assert.Equal(t, []string{"http://localhost:5173", "https://chat.example.com"}, c.AllowedOrigins)
	assert.Equal(t, "s3cr3t", c.JWTSecret)
	assert.False(t, c.UsingDevSecret)
	assert.Equal(t, time.Hour, c.TokenTTL)
	assert.Equal(t, 12, c.BcryptCost)
	assert.Equal(t, DriverBadger, c.StoreDriver)
	assert.Equal(t, "/tmp/badger", c.BadgerPath)
	assert.Equal(t, 5, c.RateLimitRequests)
	assert.Equal(t, time.Minute, c.RateLimitWindow)
}

func TestLoad_ProductionRequiresSecret(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_ENV", "production")

	_, err := Load()
	require.ErrorIs(t, err, ErrMissingSecret)
}

func TestLoad_DevelopmentFallsBackToDevSecret(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_ENV", "development")

	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DevSecret, c.JWTSecret)
	assert.True(t, c.UsingDevSecret)
}

func TestValidate_StoreDrivers(t *testing.T) {
	tests := []struct {
		name    string
		driver  string
		dsn     string
		wantErr bool
	}{
		{"memory", DriverMemory, "", false},
		{"badger", DriverBadger, "", false},
		{"postgres with dsn", DriverPostgres, "postgres://localhost/chat", false},
		{"postgres without dsn", DriverPostgres, "", true},
		{"gorm without dsn", DriverGorm, "", true},
		{"unknown", "mongo", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Config{JWTSecret: "s3cr3t", StoreDriver: tt.driver, DatabaseURL: tt.dsn}

			if tt.wantErr {
				assert.Error(t, c.Validate())
			} else {
				assert.NoError(t, c.Validate())
			}
		})
	}
}

func TestSanitize_RepairsNonPositiveValues(t *testing.T) {
	c := &Config{
		TokenTTL:          -1,
		BcryptCost:        0,
		MaxMessageSize:    -5,
		RateLimitRequests: -1,
		RateLimitWindow:   0,
	}
	c.sanitize()

	assert.Equal(t, ":3001", c.Port)
	assert.Equal(t, 7*24*time.Hour, c.TokenTTL)
	assert.Equal(t, 10, c.BcryptCost)
	assert.Equal(t, int64(0), c.MaxMessageSize)
	assert.Equal(t, 100, c.RateLimitRequests)
	assert.Equal(t, 15*time.Minute, c.RateLimitWindow)
	assert.Equal(t, DriverMemory, c.StoreDriver)
	assert.Empty(t, c.AllowedOrigins)
}
