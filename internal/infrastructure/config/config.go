package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for Gray Logic Display.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Site     SiteConfig      `yaml:"site"`
	Displays []DisplayConfig `yaml:"displays"`
	Journal  JournalConfig   `yaml:"journal"`
	MQTT     MQTTConfig      `yaml:"mqtt"`
	InfluxDB InfluxDBConfig  `yaml:"influxdb"`
	API      APIConfig       `yaml:"api"`
	Logging  LoggingConfig   `yaml:"logging"`
}

// SiteConfig contains site-specific information.
type SiteConfig struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Timezone string `yaml:"timezone"`
}

// DisplayConfig describes one display coprocessor attached to the host.
type DisplayConfig struct {
	// Name identifies the display in MQTT topics and the event journal.
	Name string `yaml:"name"`

	// Variant is the chip variant: "ft800" or "ft801".
	Variant string `yaml:"variant"`

	// Profile selects the panel timing profile: "wqvga" or "qvga".
	Profile string `yaml:"profile"`

	// Bus selects the transport: "spi", "i2c", or "simulate".
	Bus string `yaml:"bus"`

	SPI SPIConfig `yaml:"spi"`
	I2C I2CConfig `yaml:"i2c"`

	// InitHz and OpHz override the default bus clock rates. Zero means
	// use the chip limits (11 MHz during bring-up, 30 MHz after).
	InitHz uint32 `yaml:"init_hz"`
	OpHz   uint32 `yaml:"op_hz"`
}

// SPIConfig contains spidev transport settings.
type SPIConfig struct {
	Path          string `yaml:"path"`
	Mode          uint8  `yaml:"mode"`
	PowerDownGPIO string `yaml:"powerdown_gpio"`
}

// I2CConfig contains i2c-dev transport settings.
type I2CConfig struct {
	Path          string `yaml:"path"`
	Addr          uint16 `yaml:"addr"`
	PowerDownGPIO string `yaml:"powerdown_gpio"`
}

// JournalConfig contains SQLite event journal settings.
type JournalConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
	MaxEvents   int    `yaml:"max_events"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// InfluxDBConfig contains InfluxDB connection settings for bus telemetry.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
}

// APITimeoutConfig contains HTTP timeout settings.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: GRAYDISPLAY_SECTION_KEY
// For example: GRAYDISPLAY_JOURNAL_PATH, GRAYDISPLAY_MQTT_HOST
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	// Start with defaults
	cfg := defaultConfig()

	// Read and parse YAML file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Site: SiteConfig{
			ID:       "site-001",
			Name:     "Gray Logic",
			Timezone: "UTC",
		},
		Displays: []DisplayConfig{
			{
				Name:    "panel-main",
				Variant: "ft800",
				Profile: "wqvga",
				Bus:     "simulate",
			},
		},
		Journal: JournalConfig{
			Path:        "./data/graydisplay.db",
			WALMode:     true,
			BusyTimeout: 5,
			MaxEvents:   10000,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "graylogic-display",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
				MaxAttempts:  0,
			},
		},
		InfluxDB: InfluxDBConfig{
			BatchSize:     100,
			FlushInterval: 10,
		},
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 8081,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: GRAYDISPLAY_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Journal
	if v := os.Getenv("GRAYDISPLAY_JOURNAL_PATH"); v != "" {
		cfg.Journal.Path = v
	}

	// MQTT
	if v := os.Getenv("GRAYDISPLAY_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("GRAYDISPLAY_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("GRAYDISPLAY_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// API
	if v := os.Getenv("GRAYDISPLAY_API_HOST"); v != "" {
		cfg.API.Host = v
	}
	if v := os.Getenv("GRAYDISPLAY_API_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.API.Port = port
		}
	}

	// InfluxDB
	if v := os.Getenv("GRAYDISPLAY_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// Site validation
	if c.Site.ID == "" {
		errs = append(errs, "site.id is required")
	}

	// Display validation
	if len(c.Displays) == 0 {
		errs = append(errs, "at least one display is required")
	}
	seen := make(map[string]bool)
	for i, d := range c.Displays {
		prefix := fmt.Sprintf("displays[%d]", i)
		if d.Name == "" {
			errs = append(errs, prefix+".name is required")
		} else if seen[d.Name] {
			errs = append(errs, prefix+".name duplicates "+d.Name)
		}
		seen[d.Name] = true

		switch d.Variant {
		case "ft800", "ft801":
		default:
			errs = append(errs, prefix+".variant must be ft800 or ft801")
		}
		switch d.Profile {
		case "wqvga", "qvga":
		default:
			errs = append(errs, prefix+".profile must be wqvga or qvga")
		}
		switch d.Bus {
		case "spi":
			if d.SPI.Path == "" {
				errs = append(errs, prefix+".spi.path is required for bus: spi")
			}
		case "i2c":
			if d.I2C.Path == "" {
				errs = append(errs, prefix+".i2c.path is required for bus: i2c")
			}
		case "simulate":
		default:
			errs = append(errs, prefix+".bus must be spi, i2c, or simulate")
		}
	}

	// Journal validation
	if c.Journal.Path == "" {
		errs = append(errs, "journal.path is required")
	}

	// MQTT validation
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	// API validation
	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}
