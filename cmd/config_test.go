package cmd_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"labtrack/cmd"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() cmd.Config {
	return cmd.Config{
		HTTPPort:                "8080",
		DBHost:                  "localhost",
		DBPort:                  "5432",
		DBName:                  "labtrack",
		PushTransport:           cmd.PushTransportLog,
		NotificationTimeout:     time.Second,
		NotificationConcurrency: 1,
		ScanPageSize:            100,
		MaxScanCalls:            20,
		StaleOrderThreshold:     time.Hour,
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := cmd.LoadConfig(filepath.Join(t.TempDir(), "missing.env"))

	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, cmd.PushTransportLog, cfg.PushTransport)
	assert.Equal(t, 10*time.Second, cfg.NotificationTimeout)
	assert.Equal(t, 48*time.Hour, cfg.StaleOrderThreshold)
	assert.Equal(t, 20, cfg.MaxScanCalls)
}

func TestLoadConfig_EnvironmentOverridesFile(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte(
		"HTTP_PORT=9000\nREPORT_MAX_SCAN_CALLS=5\nISSUER_API_KEYS=k1:clinic-a\n",
	), 0o600))
	// godotenv.Load exports the file's variables into the process.
	t.Cleanup(func() {
		_ = os.Unsetenv("REPORT_MAX_SCAN_CALLS")
		_ = os.Unsetenv("ISSUER_API_KEYS")
	})
	t.Setenv("HTTP_PORT", "9100")
	t.Setenv("NOTIFICATION_TIMEOUT", "750ms")
	t.Setenv("LAB_API_KEYS", "k2:lab-1, k3:lab-2")

	cfg, err := cmd.LoadConfig(envFile)

	require.NoError(t, err)
	assert.Equal(t, "9100", cfg.HTTPPort)
	assert.Equal(t, 5, cfg.MaxScanCalls)
	assert.Equal(t, 750*time.Millisecond, cfg.NotificationTimeout)

	keys, err := cfg.APIKeys()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"k1": "clinic-a"}, keys.Issuers)
	assert.Equal(t, map[string]string{"k2": "lab-1", "k3": "lab-2"}, keys.Labs)
	assert.Empty(t, keys.ReportClients)
}

func TestConfig_Validate(t *testing.T) {
	tests := map[string]func(*cmd.Config){
		"unknown push transport":  func(c *cmd.Config) { c.PushTransport = "sms" },
		"redis without address":   func(c *cmd.Config) { c.PushTransport = cmd.PushTransportRedis },
		"mqtt without broker":     func(c *cmd.Config) { c.PushTransport = cmd.PushTransportMQTT },
		"zero scan calls":         func(c *cmd.Config) { c.MaxScanCalls = 0 },
		"zero scan page size":     func(c *cmd.Config) { c.ScanPageSize = 0 },
		"zero timeout":            func(c *cmd.Config) { c.NotificationTimeout = 0 },
		"no stale threshold":      func(c *cmd.Config) { c.StaleOrderThreshold = 0 },
		"malformed key entry":     func(c *cmd.Config) { c.LabAPIKeys = "just-a-key" },
		"duplicate key":           func(c *cmd.Config) { c.ReportClientAPIKeys = "k:a,k:b" },
		"reserved issuer id":      func(c *cmd.Config) { c.IssuerAPIKeys = "k:labtrack" },
		"missing database host":   func(c *cmd.Config) { c.DBHost = "" },
		"negative retry count":    func(c *cmd.Config) { c.NotificationRetries = -1 },
		"no notification workers": func(c *cmd.Config) { c.NotificationConcurrency = 0 },
	}

	require.NoError(t, validConfig().Validate())
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := validConfig()
			mutate(&cfg)

			assert.Error(t, cfg.Validate())
		})
	}
}

func TestConfig_NotificationAttemptTimeout(t *testing.T) {
	tests := map[string]struct {
		budget  time.Duration
		retries int
		want    time.Duration
	}{
		"no retries":    {budget: 9 * time.Second, retries: 0, want: 9 * time.Second},
		"two retries":   {budget: 9 * time.Second, retries: 2, want: 3 * time.Second},
		"uneven budget": {budget: 10 * time.Second, retries: 2, want: 3333333333 * time.Nanosecond},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := validConfig()
			cfg.NotificationTimeout = tt.budget
			cfg.NotificationRetries = tt.retries

			got := cfg.NotificationAttemptTimeout()

			assert.Equal(t, tt.want, got)
			assert.LessOrEqual(t, got*time.Duration(tt.retries+1), tt.budget)
		})
	}
}

func TestConfig_DSN(t *testing.T) {
	cfg := validConfig()
	cfg.DBUser = "app"
	cfg.DBPassword = "secret"
	cfg.DBSslMode = "disable"

	assert.Equal(t, "host=localhost port=5432 user=app password=secret dbname=labtrack sslmode=disable", cfg.DSN())
}
