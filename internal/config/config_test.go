package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
http:
  port: 8080
metrics:
  port: 9090
sequencer:
  buffer_size: 4096
logging:
  level: info
  encoding: console
ingest:
  enabled: true
  brokers: ["localhost:9092"]
  topic: quotes
  group_id: limitbook
  price_scale: 1000000
market_data:
  candle_interval_sec: 60
  csv_path: /tmp/tob.csv
  websocket_enabled: true
`

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadParsesValidConfig(t *testing.T) {
	path := writeTempConfig(t, sampleYAML)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, 9090, cfg.Metrics.Port)
	assert.Equal(t, 4096, cfg.Sequencer.BufferSize)
	assert.True(t, cfg.Ingest.Enabled)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Ingest.Brokers)
	assert.Equal(t, uint64(1000000), cfg.Ingest.PriceScale)
}

func TestLoadRejectsMissingIngestFieldsWhenEnabled(t *testing.T) {
	path := writeTempConfig(t, `
http:
  port: 8080
metrics:
  port: 9090
sequencer:
  buffer_size: 16
ingest:
  enabled: true
`)

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsNonPositivePort(t *testing.T) {
	path := writeTempConfig(t, `
http:
  port: 0
metrics:
  port: 9090
sequencer:
  buffer_size: 16
`)

	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverridesKafkaBrokers(t *testing.T) {
	path := writeTempConfig(t, sampleYAML)
	t.Setenv("LIMITBOOK_KAFKA_BROKERS", "broker-a:9092,broker-b:9092")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"broker-a:9092", "broker-b:9092"}, cfg.Ingest.Brokers)
}
