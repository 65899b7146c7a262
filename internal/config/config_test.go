package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/amirphl/rsi-alert/internal/market"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Setenv("DB_CONN_STR", "")
	t.Setenv("TELEGRAM_TOKEN", "")
	t.Setenv("TELEGRAM_CHAT_ID", "")
}

func TestParseRules(t *testing.T) {
	rules, err := ParseRules("moutai:cn:600519:1d:6:80:20, aapl:nasdaq:AAPL,tencent:hk:00700:1h:9")
	require.NoError(t, err)
	require.Len(t, rules, 3)

	assert.Equal(t, "moutai", rules[0].Name)
	assert.Equal(t, market.CN, rules[0].Market)
	assert.Equal(t, "600519", rules[0].Symbol)
	assert.Equal(t, "1d", rules[0].Timeframe)
	assert.Equal(t, 6, rules[0].Period)
	assert.Equal(t, 80.0, rules[0].Overbought)
	assert.Equal(t, 20.0, rules[0].Oversold)

	assert.Equal(t, market.US, rules[1].Market)
	assert.Empty(t, rules[1].Timeframe)
	assert.Zero(t, rules[1].Period)

	assert.Equal(t, "1h", rules[2].Timeframe)
	assert.Equal(t, 9, rules[2].Period)

	for _, bad := range []string{
		"x:cn",
		"x:jp:AAPL",
		"x:us:AAPL:1d:six",
		"x:us:AAPL:1d:14:70",
		"x:us:AAPL:1d:14:high:30",
		"x:us:AAPL:1d:14:70:low",
		"x:us:AAPL:1d:14:70:30:extra",
	} {
		_, err := ParseRules(bad)
		assert.Error(t, err, bad)
	}

	rules, err = ParseRules("")
	require.NoError(t, err)
	assert.Empty(t, rules)
}

func TestLoad_Flags(t *testing.T) {
	clearEnv(t)
	cfg, err := Load([]string{
		"-mode", "watch",
		"-source", "postgres",
		"-db", "postgres://localhost/quotes",
		"-interval", "30s",
		"-market-hours-only",
		"-rules", "aapl:us:AAPL",
		"-notification-retries", "5",
		"-log-file", "",
	})
	require.NoError(t, err)
	assert.Equal(t, ModeWatch, cfg.Mode)
	assert.Equal(t, SourcePostgres, cfg.Source)
	assert.Equal(t, "postgres://localhost/quotes", cfg.DBConnStr)
	assert.Equal(t, 30*time.Second, cfg.Interval)
	assert.True(t, cfg.MarketHoursOnly)
	assert.Equal(t, 5, cfg.NotificationRetries)
	assert.Equal(t, 5*time.Second, cfg.NotificationDelay)
	assert.Empty(t, cfg.LogFile)
	require.Len(t, cfg.Rules, 1)
	assert.Equal(t, "AAPL", cfg.Rules[0].Symbol)
}

func TestLoad_Env(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_CONN_STR", "postgres://env/quotes")
	t.Setenv("TELEGRAM_TOKEN", "tok")
	t.Setenv("TELEGRAM_CHAT_ID", "42")

	cfg, err := Load([]string{"-source", "postgres", "-rules", "aapl:us:AAPL"})
	require.NoError(t, err)
	assert.Equal(t, "postgres://env/quotes", cfg.DBConnStr)
	assert.Equal(t, "tok", cfg.TelegramToken)
	assert.Equal(t, "42", cfg.TelegramChatID)

	cfg, err = Load([]string{"-source", "postgres", "-db", "postgres://flag/quotes", "-rules", "aapl:us:AAPL"})
	require.NoError(t, err)
	assert.Equal(t, "postgres://flag/quotes", cfg.DBConnStr)
}

func TestLoad_YAML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
mode: watch
source: postgres
db_conn_str: postgres://yaml/quotes
interval: 2m
rules:
  - name: moutai
    market: A-Share
    symbol: "600519"
    period: 6
    overbought: 80
    oversold: 20
  - market: us
    symbol: AAPL
    indicator: wilder-rsi
`), 0o644))

	cfg, err := Load([]string{"-config", path})
	require.NoError(t, err)
	assert.Equal(t, ModeWatch, cfg.Mode)
	assert.Equal(t, "postgres://yaml/quotes", cfg.DBConnStr)
	assert.Equal(t, 2*time.Minute, cfg.Interval)
	assert.Equal(t, 3, cfg.NotificationRetries)
	require.Len(t, cfg.Rules, 2)
	assert.Equal(t, market.CN, cfg.Rules[0].Market)
	assert.Equal(t, 6, cfg.Rules[0].Period)
	assert.Equal(t, "wilder-rsi", cfg.Rules[1].Indicator)

	// Flags set on the command line win over the file.
	cfg, err = Load([]string{"-config", path, "-mode", "check", "-interval", "1m"})
	require.NoError(t, err)
	assert.Equal(t, ModeCheck, cfg.Mode)
	assert.Equal(t, time.Minute, cfg.Interval)

	_, err = Load([]string{"-config", filepath.Join(t.TempDir(), "missing.yaml")})
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("rules:\n  - market: mars\n    symbol: X\n"), 0o644))
	_, err = Load([]string{"-config", bad})
	assert.ErrorIs(t, err, market.ErrUnknownMarket)
}

func TestLoad_Invalid(t *testing.T) {
	clearEnv(t)
	tests := []struct {
		name string
		args []string
	}{
		{"bad mode", []string{"-mode", "trade", "-csv", "a.csv", "-rules", "a:us:A"}},
		{"bad source", []string{"-source", "mongo", "-rules", "a:us:A"}},
		{"csv without path", []string{"-rules", "a:us:A"}},
		{"csv with two rules", []string{"-csv", "a.csv", "-rules", "a:us:A,b:us:B"}},
		{"postgres without dsn", []string{"-source", "postgres", "-rules", "a:us:A"}},
		{"no rules", []string{"-source", "postgres", "-db", "postgres://x"}},
		{"zero interval", []string{"-mode", "watch", "-interval", "0s", "-csv", "a.csv", "-rules", "a:us:A"}},
		{"half telegram", []string{"-csv", "a.csv", "-rules", "a:us:A", "-telegram-token", "tok"}},
		{"bad rule", []string{"-csv", "a.csv", "-rules", "a:jp:A"}},
		{"unknown flag", []string{"-nope"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.args)
			assert.Error(t, err)
		})
	}
}
