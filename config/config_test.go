package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pricebook/orderbook"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.Log.Pretty)
	assert.Equal(t, ModeQueued, cfg.Dispatcher.Mode)
	assert.Equal(t, orderbook.RedBlackType, cfg.IndexType())
	assert.False(t, cfg.Feed.Enabled)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.False(t, cfg.Kafka.Enabled)
	assert.Equal(t, "pricebook.diffs", cfg.Kafka.Topic)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pricebook.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log:
  level: debug
  pretty: true
dispatcher:
  mode: immediate
  index: tidwall
feed:
  enabled: true
  url: wss://example.test/ws
  symbols: [bnbbtc, ethbtc]
kafka:
  enabled: true
  brokers: [k1:9092, k2:9092]
  topic: books
shutdown_timeout: 3s
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Log.Pretty)
	assert.Equal(t, ModeImmediate, cfg.Dispatcher.Mode)
	assert.Equal(t, orderbook.TidwallBTreeType, cfg.IndexType())
	assert.Equal(t, "wss://example.test/ws", cfg.Feed.URL)
	assert.Equal(t, []string{"bnbbtc", "ethbtc"}, cfg.Feed.Symbols)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "books", cfg.Kafka.Topic)
	assert.Equal(t, 3*time.Second, cfg.ShutdownTimeout)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PRICEBOOK_LOG_LEVEL", "warn")
	t.Setenv("PRICEBOOK_DISPATCHER_INDEX", "btree")
	t.Setenv("PRICEBOOK_HTTP_ADDR", ":9999")
	t.Setenv("PRICEBOOK_SHUTDOWN_TIMEOUT", "1m")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, orderbook.BTreeType, cfg.IndexType())
	assert.Equal(t, ":9999", cfg.HTTP.Addr)
	assert.Equal(t, time.Minute, cfg.ShutdownTimeout)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Dispatcher:      DispatcherConfig{Mode: ModeQueued, Index: "redblack"},
			ShutdownTimeout: time.Second,
		}
	}

	tests := map[string]struct {
		mutate  func(c *Config)
		wantErr string
	}{
		"valid":         {mutate: func(*Config) {}},
		"unknown mode":  {mutate: func(c *Config) { c.Dispatcher.Mode = "batch" }, wantErr: "dispatcher.mode"},
		"unknown index": {mutate: func(c *Config) { c.Dispatcher.Index = "skiplist" }, wantErr: "dispatcher.index"},
		"feed without url": {
			mutate:  func(c *Config) { c.Feed.Enabled = true },
			wantErr: "feed.url",
		},
		"kafka without topic": {
			mutate:  func(c *Config) { c.Kafka = KafkaConfig{Enabled: true, Brokers: []string{"k:9092"}} },
			wantErr: "kafka.topic",
		},
		"zero timeout": {mutate: func(c *Config) { c.ShutdownTimeout = 0 }, wantErr: "shutdown_timeout"},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			c := valid()
			tc.mutate(c)
			err := c.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}

	_, err := Load("")
	require.NoError(t, err)

	t.Setenv("PRICEBOOK_DISPATCHER_MODE", "nope")
	_, err = Load("")
	assert.Error(t, err)
}
