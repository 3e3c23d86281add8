// Package config loads service configuration from environment variables and
// an optional YAML (or JSON) file. Environment variables win over the file,
// the file wins over defaults.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"sensorbus/sensor"
)

// SensorSpec describes one simulator in the fleet.
type SensorSpec struct {
	Kind        string `json:"kind" yaml:"kind"`
	IntervalSec int    `json:"interval_sec" yaml:"interval_sec"`
	Count       int    `json:"count" yaml:"count"`
}

// Interval returns the publish interval for this spec.
func (s SensorSpec) Interval() time.Duration {
	return time.Duration(s.IntervalSec) * time.Second
}

// Config holds service configuration.
type Config struct {
	HTTPPort         string
	DBPath           string
	ConfigPath       string
	RunSeconds       int // 0 means run until signalled
	FlushIntervalSec int
	ChartPoints      int
	EnableWatcher    bool
	EnableHTTP       bool
	Seed             uint32
	Sensors          []SensorSpec
	StrictConfig     bool
}

type fileConfig struct {
	HTTPPort         string       `json:"http_port" yaml:"http_port"`
	DBPath           string       `json:"db_path" yaml:"db_path"`
	RunSeconds       *int         `json:"run_seconds" yaml:"run_seconds"`
	FlushIntervalSec *int         `json:"flush_interval_sec" yaml:"flush_interval_sec"`
	ChartPoints      *int         `json:"chart_points" yaml:"chart_points"`
	Seed             *uint32      `json:"seed" yaml:"seed"`
	Sensors          []SensorSpec `json:"sensors" yaml:"sensors"`
}

const (
	defaultPort          = ":8000"
	defaultDBFile        = "sensorbus.db"
	defaultFlushInterval = 10
	defaultChartPoints   = 120
	minIntervalSec       = 1
	maxIntervalSec       = 3600
	maxFleetSize         = 256
)

func defaultSensors() []SensorSpec {
	return []SensorSpec{
		{Kind: string(sensor.KindCO), IntervalSec: 1, Count: 1},
		{Kind: string(sensor.KindTemperature), IntervalSec: 3, Count: 1},
		{Kind: string(sensor.KindPressure), IntervalSec: 5, Count: 1},
	}
}

// Load reads configuration and applies sane defaults. Invalid settings are
// logged and replaced with defaults unless STRICT_CONFIG is set, in which
// case they are returned as errors.
func Load() (Config, error) {
	cfg := Config{
		FlushIntervalSec: defaultFlushInterval,
		ChartPoints:      defaultChartPoints,
		EnableWatcher:    parseBoolEnvDefault("ENABLE_WATCHER", true),
		EnableHTTP:       parseBoolEnvDefault("ENABLE_HTTP", true),
		StrictConfig:     parseBoolEnv("STRICT_CONFIG"),
	}

	cfg.ConfigPath = getEnv("CONFIG_PATH", "config.yaml")
	fileCfg, fileErr := loadFileConfig(cfg.ConfigPath)
	if fileErr != nil {
		if cfg.StrictConfig {
			return cfg, fmt.Errorf("config load failed (%s): %w", cfg.ConfigPath, fileErr)
		}
		log.Printf("config load failed (%s): %v (using defaults)", cfg.ConfigPath, fileErr)
	}

	cfg.HTTPPort = firstNonEmpty(os.Getenv("HTTP_PORT"), fileCfg.HTTPPort, defaultPort)
	if !strings.HasPrefix(cfg.HTTPPort, ":") {
		cfg.HTTPPort = ":" + cfg.HTTPPort
	}
	cfg.DBPath = firstNonEmpty(os.Getenv("DB_PATH"), fileCfg.DBPath, defaultDBFile)

	if fileCfg.RunSeconds != nil && *fileCfg.RunSeconds >= 0 {
		cfg.RunSeconds = *fileCfg.RunSeconds
	}
	if v, ok, err := parseIntEnv("RUN_SECONDS"); err != nil {
		if cfg.StrictConfig {
			return cfg, fmt.Errorf("invalid RUN_SECONDS: %w", err)
		}
		log.Printf("invalid RUN_SECONDS: %v (using default)", err)
	} else if ok && v >= 0 {
		cfg.RunSeconds = v
	}

	if fileCfg.FlushIntervalSec != nil && *fileCfg.FlushIntervalSec > 0 {
		cfg.FlushIntervalSec = *fileCfg.FlushIntervalSec
	}
	if v, ok, err := parseIntEnv("FLUSH_INTERVAL_SEC"); err != nil {
		if cfg.StrictConfig {
			return cfg, fmt.Errorf("invalid FLUSH_INTERVAL_SEC: %w", err)
		}
		log.Printf("invalid FLUSH_INTERVAL_SEC: %v (using default)", err)
	} else if ok && v > 0 {
		cfg.FlushIntervalSec = v
	}

	if fileCfg.ChartPoints != nil && *fileCfg.ChartPoints > 0 {
		cfg.ChartPoints = *fileCfg.ChartPoints
	}

	if fileCfg.Seed != nil {
		cfg.Seed = *fileCfg.Seed
	}
	if v, ok, err := parseIntEnv("SEED"); err != nil {
		if cfg.StrictConfig {
			return cfg, fmt.Errorf("invalid SEED: %w", err)
		}
		log.Printf("invalid SEED: %v (using default)", err)
	} else if ok && v >= 0 {
		cfg.Seed = uint32(v)
	}

	cfg.Sensors = fileCfg.Sensors
	if len(cfg.Sensors) == 0 {
		cfg.Sensors = defaultSensors()
	}

	if err := validateConfig(&cfg); err != nil {
		if cfg.StrictConfig {
			return cfg, err
		}
		log.Printf("config validation failed: %v (continuing)", err)
	}

	return cfg, nil
}

func loadFileConfig(path string) (fileConfig, error) {
	var cfg fileConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if len(data) == 0 {
		return cfg, errors.New("empty config file")
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}

func validateConfig(cfg *Config) error {
	if strings.TrimSpace(cfg.HTTPPort) == "" {
		return errors.New("HTTP_PORT is required")
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		return errors.New("DB_PATH is required")
	}
	total := 0
	for i := range cfg.Sensors {
		spec := &cfg.Sensors[i]
		if _, err := sensor.ParseKind(spec.Kind); err != nil {
			return err
		}
		if spec.IntervalSec < minIntervalSec {
			log.Printf("sensor %s interval raised to minimum %d (was %d)", spec.Kind, minIntervalSec, spec.IntervalSec)
			spec.IntervalSec = minIntervalSec
		}
		if spec.IntervalSec > maxIntervalSec {
			log.Printf("sensor %s interval capped at %d (was %d)", spec.Kind, maxIntervalSec, spec.IntervalSec)
			spec.IntervalSec = maxIntervalSec
		}
		if spec.Count <= 0 {
			spec.Count = 1
		}
		total += spec.Count
	}
	if total > maxFleetSize {
		return fmt.Errorf("fleet size %d exceeds maximum %d", total, maxFleetSize)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, val := range values {
		if strings.TrimSpace(val) != "" {
			return val
		}
	}
	return ""
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseBoolEnv(key string) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	return v == "1" || v == "true" || v == "yes" || v == "on"
}

func parseBoolEnvDefault(key string, defaultVal bool) bool {
	if strings.TrimSpace(os.Getenv(key)) == "" {
		return defaultVal
	}
	return parseBoolEnv(key)
}

func parseIntEnv(key string) (int, bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return 0, false, nil
	}
	val, err := strconv.Atoi(raw)
	return val, true, err
}
