// Package config loads the YAML configuration file the server reads at
// startup, grounded on chycee-cryptoGo's infra.LoadConfig: parse the
// file, let environment variables override selected fields, then validate.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds every knob the server and its adapters need.
type Config struct {
	HTTP struct {
		Port int `yaml:"port"`
	} `yaml:"http"`

	Metrics struct {
		Port int `yaml:"port"`
	} `yaml:"metrics"`

	Sequencer struct {
		BufferSize int `yaml:"buffer_size"`
	} `yaml:"sequencer"`

	Logging struct {
		Level    string `yaml:"level"`
		Encoding string `yaml:"encoding"`
	} `yaml:"logging"`

	Ingest struct {
		Enabled bool     `yaml:"enabled"`
		Brokers []string `yaml:"brokers"`
		Topic   string   `yaml:"topic"`
		GroupID string   `yaml:"group_id"`
		// PriceScale converts upstream nano-precision prices into the
		// engine's integer ticks: tick = upstream_price / PriceScale.
		PriceScale uint64 `yaml:"price_scale"`
	} `yaml:"ingest"`

	MarketData struct {
		CandleIntervalSec int    `yaml:"candle_interval_sec"`
		CSVPath           string `yaml:"csv_path"`
		WebSocketEnabled  bool   `yaml:"websocket_enabled"`
	} `yaml:"market_data"`
}

// Load reads and parses the YAML file at path, applies environment
// overrides, validates, and returns the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	overrideWithEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks configuration invariants the server relies on.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 {
		return fmt.Errorf("http.port must be positive")
	}
	if c.Metrics.Port <= 0 {
		return fmt.Errorf("metrics.port must be positive")
	}
	if c.Sequencer.BufferSize <= 0 {
		return fmt.Errorf("sequencer.buffer_size must be positive")
	}
	if c.Ingest.Enabled {
		if len(c.Ingest.Brokers) == 0 {
			return fmt.Errorf("ingest.brokers is required when ingest.enabled is true")
		}
		if c.Ingest.Topic == "" {
			return fmt.Errorf("ingest.topic is required when ingest.enabled is true")
		}
		if c.Ingest.PriceScale == 0 {
			return fmt.Errorf("ingest.price_scale must be positive when ingest.enabled is true")
		}
	}
	return nil
}

// overrideWithEnv lets the Kafka broker list, the Kafka topic and the log
// level be supplied outside the checked-in YAML file.
func overrideWithEnv(cfg *Config) {
	if brokers := os.Getenv("LIMITBOOK_KAFKA_BROKERS"); brokers != "" {
		cfg.Ingest.Brokers = strings.Split(brokers, ",")
	}
	if topic := os.Getenv("LIMITBOOK_KAFKA_TOPIC"); topic != "" {
		cfg.Ingest.Topic = topic
	}
	if level := os.Getenv("LIMITBOOK_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
}
