package config

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("HH_CLIENT_ID", "client-id")
	t.Setenv("HH_CLIENT_SECRET", "client-secret")
	t.Setenv("HH_REDIRECT_URI", "http://localhost:8080/auth/callback")
	t.Setenv("SESSION_SECRET", "test-secret-key-that-is-at-least-32-characters-long")
}

func TestLoad(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout.Duration)
	assert.Equal(t, "localhost", cfg.Postgres.Host)
	assert.True(t, cfg.Postgres.AutoMigrate)
	assert.Equal(t, "localhost", cfg.Redis.Host)

	assert.Equal(t, "https://hh.ru/oauth/authorize", cfg.HH.AuthURL)
	assert.Equal(t, "https://hh.ru/oauth/token", cfg.HH.TokenURL)
	assert.Equal(t, "https://api.hh.ru", cfg.HH.APIBaseURL)
	assert.Equal(t, 10*time.Second, cfg.HH.RequestTimeout.Duration)
	assert.NotEmpty(t, cfg.HH.UserAgent)

	assert.Equal(t, 7*24*time.Hour, cfg.Session.TTL.Duration)
	assert.Equal(t, time.Second, cfg.Apply.Delay.Duration)
	assert.Equal(t, 20, cfg.Apply.DailyLimit)
	assert.Equal(t, 35*time.Second, cfg.Apply.RunBudget.Duration)
	assert.Equal(t, 10, cfg.RateLimit.Requests)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window.Duration)
	assert.Equal(t, "development", cfg.Env)
	assert.NotEmpty(t, cfg.CORS.AllowedOrigins)
	assert.NotEmpty(t, cfg.CORS.AllowedMethods)
}

func TestLoadWithCustomValues(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("HH_REQUEST_TIMEOUT", "3s")
	t.Setenv("APPLY_DELAY", "2500ms")
	t.Setenv("APPLY_DAILY_LIMIT", "0")
	t.Setenv("SESSION_TTL", "30d")
	t.Setenv("ENV", "production")

	cfg, err := Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 3*time.Second, cfg.HH.RequestTimeout.Duration)
	assert.Equal(t, 2500*time.Millisecond, cfg.Apply.Delay.Duration)
	assert.Equal(t, 0, cfg.Apply.DailyLimit)
	assert.Equal(t, 30*24*time.Hour, cfg.Session.TTL.Duration)
	assert.Equal(t, "production", cfg.Env)
}

func TestLoadRequiresClientCredentials(t *testing.T) {
	t.Setenv("HH_REDIRECT_URI", "http://localhost:8080/auth/callback")
	t.Setenv("SESSION_SECRET", "test-secret-key-that-is-at-least-32-characters-long")

	_, err := Load(context.Background())
	assert.Error(t, err)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"short session secret", "SESSION_SECRET", "short"},
		{"relative redirect uri", "HH_REDIRECT_URI", "/auth/callback"},
		{"zero request timeout", "HH_REQUEST_TIMEOUT", "0s"},
		{"negative apply delay", "APPLY_DELAY", "-1s"},
		{"negative daily limit", "APPLY_DAILY_LIMIT", "-5"},
		{"zero run budget", "APPLY_RUN_BUDGET", "0s"},
		{"run budget past write timeout", "APPLY_RUN_BUDGET", "50s"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(tc.key, tc.value)

			_, err := Load(context.Background())
			assert.Error(t, err)
		})
	}
}

func TestDurationDecode(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"", 0, false},
		{"15m", 15 * time.Minute, false},
		{"2d", 48 * time.Hour, false},
		{" 1s ", time.Second, false},
		{"xd", 0, true},
		{"forever", 0, true},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			var d Duration
			err := d.EnvDecode(context.Background(), tc.in)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, d.Duration)
		})
	}
}

func TestPostgresDSN(t *testing.T) {
	pg := PostgresConfig{
		Host:     "localhost",
		Port:     "5432",
		User:     "test_user",
		Password: "test_password",
		DBName:   "test_db",
		SSLMode:  "disable",
	}

	expected := "host=localhost port=5432 user=test_user password=test_password dbname=test_db sslmode=disable"
	assert.Equal(t, expected, pg.DSN())
}

func TestRedisAddress(t *testing.T) {
	redis := RedisConfig{Host: "localhost", Port: "6379"}
	assert.Equal(t, "localhost:6379", redis.Address())
}
