package config

import (
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ap "github.com/panyam/authpage"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "config-*.json")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString(content); err != nil {
		t.Fatal(err)
	}
	f.Close()
	return f.Name()
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, `{}`))
	require.NoError(t, err)

	assert.Equal(t, ap.DefaultAppID, cfg.AppID)
	assert.Nil(t, cfg.Provider)
	assert.Equal(t, StoreMemory, cfg.Profiles.Kind)
	assert.Equal(t, StoreMemory, cfg.Accounts.Kind)
	assert.Equal(t, 5, cfg.RetryPolicy().MaxAttempts)
	assert.Equal(t, time.Second, cfg.RetryPolicy().BaseDelay)
	assert.Equal(t, time.Second, cfg.RetryPolicy().JitterMax)
	assert.Equal(t, time.Hour, cfg.TokenTTL())
	assert.Equal(t, slog.LevelInfo, cfg.Level())
}

func TestLoad_Full(t *testing.T) {
	cfg, err := Load(writeConfig(t, `{
		"app_id": "shop",
		"initial_auth_token": "tok",
		"provider": {"kind": "http", "endpoint": "http://localhost:8081", "timeout_ms": 2500},
		"profiles": {"kind": "fs", "path": "/var/lib/authpage"},
		"accounts": {"kind": "postgres", "dsn": "postgres://localhost/authpage"},
		"retry": {"max_attempts": 3, "base_delay_ms": 200, "jitter_max_ms": 50},
		"http": {"address": ":9000"},
		"log_level": "debug"
	}`))
	require.NoError(t, err)

	assert.Equal(t, "shop", cfg.AppID)
	assert.Equal(t, "tok", cfg.InitialAuthToken)
	require.NotNil(t, cfg.Provider)
	assert.Equal(t, ProviderHTTP, cfg.Provider.Kind)
	assert.Equal(t, 2500*time.Millisecond, cfg.Provider.Timeout())
	assert.Equal(t, "/var/lib/authpage", cfg.Profiles.Path)
	assert.Equal(t, 200*time.Millisecond, cfg.RetryPolicy().BaseDelay)
	assert.Equal(t, 50*time.Millisecond, cfg.RetryPolicy().JitterMax)
	assert.Equal(t, ":9000", cfg.HTTP.Address)
	assert.Equal(t, time.Hour, cfg.TokenTTL())
	assert.Equal(t, slog.LevelDebug, cfg.Level())
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("AUTHPAGE_TEST_SECRET", "s3cret")
	t.Setenv("AUTHPAGE_TEST_APP", "from-env")

	cfg, err := Load(writeConfig(t, `{"app_id": "${AUTHPAGE_TEST_APP}", "provider": {"secret": "$AUTHPAGE_TEST_SECRET"}}`))
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.AppID)
	require.NotNil(t, cfg.Provider)
	assert.Equal(t, "s3cret", cfg.Provider.Secret)
	assert.Equal(t, ProviderLocal, cfg.Provider.Kind)
}

func TestLoad_MissingProviderIsNotAnError(t *testing.T) {
	for _, body := range []string{`{"app_id": "x"}`, `{"provider": null}`} {
		cfg, err := Parse([]byte(body))
		require.NoError(t, err)
		assert.Nil(t, cfg.Provider)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "invalid json", body: `{not valid json}`},
		{name: "unknown provider", body: `{"provider": {"kind": "firebase"}}`},
		{name: "http provider without endpoint", body: `{"provider": {"kind": "http"}}`},
		{name: "unknown store", body: `{"profiles": {"kind": "redis"}}`},
		{name: "fs store without path", body: `{"profiles": {"kind": "fs"}}`},
		{name: "datastore without project", body: `{"profiles": {"kind": "datastore"}}`},
		{name: "postgres without dsn", body: `{"accounts": {"kind": "postgres"}}`},
		{name: "s3 without bucket", body: `{"profiles": {"kind": "s3", "region": "us-east-1"}}`},
		{name: "s3 accounts", body: `{"accounts": {"kind": "s3", "bucket": "b", "region": "r"}}`},
		{name: "negative delay", body: `{"retry": {"base_delay_ms": -1}}`},
		{name: "bad log level", body: `{"log_level": "verbose"}`},
		{name: "empty address", body: `{"http": {"address": ""}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.body))
			assert.Error(t, err)
		})
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load("/nonexistent/path/config.json")
	assert.Error(t, err)
}
