package config

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doodlesbykumbi/admin-transfer/pkg/ledger"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("TRANSFER_CONFIG_PATH", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, ledger.DefaultPolicy(), cfg.Policy())
	assert.False(t, cfg.AllowUnauthenticatedPropose)
	assert.Equal(t, 5*time.Minute, cfg.TokenMaxAge())
	assert.Equal(t, zerolog.InfoLevel, cfg.Level())
	for _, attr := range cfg.Attributes() {
		assert.Equal(t, SourceDefault, attr.Source, attr.Name)
	}
}

func TestLoad_FileThenEnvironment(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TRANSFER_CONFIG_PATH", dir)
	writeConfig(t, dir, `
protocol_address: custody-1
allow_unauthenticated_propose: false
transfer_ttl_days: 90
transfer_threshold_days: 60
log_level: debug
`)
	t.Setenv("TRANSFER_TRANSFER_TTL_DAYS", "100")
	t.Setenv("TRANSFER_ALLOW_UNAUTHENTICATED_PROPOSE", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "custody-1", cfg.ProtocolAddress)
	assert.Equal(t, SourceFile, cfg.Source("protocol_address"))

	assert.Equal(t, 100, cfg.TransferTTLDays)
	assert.Equal(t, SourceEnvironment, cfg.Source("transfer_ttl_days"))
	assert.Equal(t, 60, cfg.TransferThresholdDays)
	assert.Equal(t, SourceFile, cfg.Source("transfer_threshold_days"))

	assert.True(t, cfg.AllowUnauthenticatedPropose)
	assert.Equal(t, SourceEnvironment, cfg.Source("allow_unauthenticated_propose"))

	assert.Equal(t, zerolog.DebugLevel, cfg.Level())
	assert.Equal(t, SourceDefault, cfg.Source("instance_ttl_days"))
	assert.Equal(t, filepath.Join(dir, ConfigFileName), cfg.ConfigFilePath())
}

func TestLoad_ExplicitFalseInFileIsTracked(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "allow_unauthenticated_propose: false\n")

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, SourceFile, cfg.Source("allow_unauthenticated_propose"))
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "transfer_ttl_days: [1, 2\n")
	_, err := LoadFile(path)
	assert.ErrorContains(t, err, "failed to parse config file")

	t.Setenv("TRANSFER_INSTANCE_TTL_DAYS", "thirty")
	_, err = LoadFile(filepath.Join(dir, "missing.yml"))
	assert.ErrorContains(t, err, "TRANSFER_INSTANCE_TTL_DAYS")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"empty protocol address", func(c *Config) { c.ProtocolAddress = " " }, "protocol_address"},
		{"record shorter than allowance", func(c *Config) { c.TransferTTLDays = 20; c.TransferThresholdDays = 10 }, "must exceed instance ttl"},
		{"threshold above ttl", func(c *Config) { c.InstanceThresholdDays = 40 }, "instance threshold"},
		{"non-positive token age", func(c *Config) { c.TokenMaxAgeSeconds = 0 }, "token_max_age_seconds"},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, "log_level"},
		{"bad proxy", func(c *Config) { c.TrustedProxies = []string{"not-an-ip"} }, "trusted_proxies"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := newDefault()
			tt.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.wantErr)
		})
	}
}

func TestIsTrustedProxy(t *testing.T) {
	cfg := newDefault()
	cfg.TrustedProxies = []string{"10.0.0.0/8", "192.168.1.5"}

	assert.True(t, cfg.IsTrustedProxy("10.1.2.3"))
	assert.True(t, cfg.IsTrustedProxy("192.168.1.5"))
	assert.False(t, cfg.IsTrustedProxy("192.168.1.6"))
	assert.False(t, cfg.IsTrustedProxy("garbage"))
}

func TestFormat(t *testing.T) {
	cfg := newDefault()
	cfg.configFilePath = "/etc/admin-transfer/transfer.yml"

	text := cfg.FormatText()
	assert.Contains(t, text, "Config file: /etc/admin-transfer/transfer.yml")
	assert.Contains(t, text, "transfer_ttl_days")
	assert.Contains(t, text, "(not set)")

	js, err := cfg.FormatJSON()
	require.NoError(t, err)
	assert.Contains(t, js, `"name": "protocol_address"`)
}

func TestWatch(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "log_level: info\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		mu   sync.Mutex
		seen []*Config
	)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, func(c *Config) {
			mu.Lock()
			seen = append(seen, c)
			mu.Unlock()
		})
	}()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)
	writeConfig(t, dir, "log_level: warn\ntransfer_ttl_days: 200\n")

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) > 0 && seen[len(seen)-1].TransferTTLDays == 200
	}, 5*time.Second, 20*time.Millisecond)

	mu.Lock()
	assert.Equal(t, zerolog.WarnLevel, seen[len(seen)-1].Level())
	mu.Unlock()

	cancel()
	assert.NoError(t, <-done)
}
