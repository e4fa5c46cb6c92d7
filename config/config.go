// Package config holds the settings of the bmp280 cli, read from a YAML file
// and overridden by command line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mklimuk/barometer/environment"
)

// Build metadata, injected at link time.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

const (
	AdapterMCP2221 = "mcp2221"
	AdapterGeneric = "generic"
	AdapterNanoPi  = "nanopi"
	AdapterRaw     = "raw"
	AdapterSim     = "sim"
)

var ErrInvalid = errors.New("invalid configuration")

type Config struct {
	Adapter string       `yaml:"adapter"`
	Device  string       `yaml:"device,omitempty"`
	Bus     int          `yaml:"bus"`
	Sensor  SensorConfig `yaml:"sensor"`
	Watch   WatchConfig  `yaml:"watch"`
	MQTT    MQTTConfig   `yaml:"mqtt"`
}

type SensorConfig struct {
	Address          uint8         `yaml:"address"`
	Mode             string        `yaml:"mode"`
	MeasureTimeout   time.Duration `yaml:"measure_timeout"`
	AutoCalibrate    bool          `yaml:"auto_calibrate"`
	BurstCalibration bool          `yaml:"burst_calibration"`
}

type WatchConfig struct {
	Schedule    string `yaml:"schedule"`
	MetricsAddr string `yaml:"metrics_addr"`
}

type MQTTConfig struct {
	Broker   string `yaml:"broker,omitempty"`
	Topic    string `yaml:"topic"`
	ClientID string `yaml:"client_id"`
}

func Default() Config {
	return Config{
		Adapter: AdapterMCP2221,
		Bus:     1,
		Sensor: SensorConfig{
			Address:        environment.BMP280AddrLow,
			Mode:           "forced",
			MeasureTimeout: 50 * time.Millisecond,
			AutoCalibrate:  true,
		},
		Watch: WatchConfig{
			Schedule:    "@every 1m",
			MetricsAddr: ":7777",
		},
		MQTT: MQTTConfig{
			Topic:    "sensors/bmp280",
			ClientID: "bmp280",
		},
	}
}

// Load reads path on top of the defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("could not open config file: %w", err)
	}
	defer f.Close()
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	err = dec.Decode(&cfg)
	if err != nil {
		return cfg, fmt.Errorf("could not decode config file %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	switch c.Adapter {
	case AdapterMCP2221, AdapterGeneric, AdapterNanoPi, AdapterRaw, AdapterSim:
	default:
		return fmt.Errorf("%w: unknown adapter %q", ErrInvalid, c.Adapter)
	}
	if c.Sensor.Address != environment.BMP280AddrLow && c.Sensor.Address != environment.BMP280AddrHigh {
		return fmt.Errorf("%w: address %#02x is not a BMP280 address", ErrInvalid, c.Sensor.Address)
	}
	if _, ok := environment.ParseMode(c.Sensor.Mode); !ok {
		return fmt.Errorf("%w: unknown mode %q", ErrInvalid, c.Sensor.Mode)
	}
	return nil
}

// SensorOptions translates the sensor section into BMP280 options.
func (c Config) SensorOptions() []environment.BMP280ConfigOption {
	mode, _ := environment.ParseMode(c.Sensor.Mode)
	opts := []environment.BMP280ConfigOption{
		environment.WithAddress(c.Sensor.Address),
		environment.WithMode(mode),
		environment.WithAutoCalibrate(c.Sensor.AutoCalibrate),
		environment.WithBurstCalibration(c.Sensor.BurstCalibration),
	}
	if c.Sensor.MeasureTimeout > 0 {
		opts = append(opts, environment.WithMeasureTimeout(c.Sensor.MeasureTimeout))
	}
	return opts
}
