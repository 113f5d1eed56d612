package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for NoiseWatch Core.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Site    SiteConfig    `yaml:"site"`
	Monitor MonitorConfig `yaml:"monitor"`
	Ingest  IngestConfig  `yaml:"ingest"`
	API     APIConfig     `yaml:"api"`
	MQTT    MQTTConfig    `yaml:"mqtt"`
	Logging LoggingConfig `yaml:"logging"`
}

// SiteConfig contains deployment-specific information.
type SiteConfig struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// MonitorConfig contains the alerting and sweep parameters.
type MonitorConfig struct {
	// NoiseThreshold is the noise level at or above which a reading is
	// considered "exceeding" (threshold rule and peer-consistency rule).
	NoiseThreshold float64 `yaml:"noise_threshold"`

	// InactivityWindowMS is how long a device may stay silent before the
	// inactivity sweep reports it offline (milliseconds).
	InactivityWindowMS int `yaml:"inactivity_window_ms"`

	// SweepIntervalMS is the period of both the connection liveness sweep
	// and the registry inactivity sweep (milliseconds).
	SweepIntervalMS int `yaml:"sweep_interval_ms"`
}

// IngestConfig contains the producer-facing WebSocket server settings.
type IngestConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`

	// MaxPortAttempts bounds how many successive ports are tried when the
	// configured port is already in use. Exhausting the attempts is a fatal
	// startup error.
	MaxPortAttempts int `yaml:"max_port_attempts"`

	Path           string `yaml:"path"`
	MaxMessageSize int    `yaml:"max_message_size"`
}

// APIConfig contains the consumer-facing HTTP/WebSocket server settings.
type APIConfig struct {
	Host      string           `yaml:"host"`
	Port      int              `yaml:"port"`
	Timeouts  APITimeoutConfig `yaml:"timeouts"`
	CORS      CORSConfig       `yaml:"cors"`
	WebSocket WebSocketConfig  `yaml:"websocket"`
}

// APITimeoutConfig contains HTTP timeout settings in seconds.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
}

// WebSocketConfig contains consumer WebSocket settings.
type WebSocketConfig struct {
	Path           string `yaml:"path"`
	MaxMessageSize int    `yaml:"max_message_size"`
	PingInterval   int    `yaml:"ping_interval"`
	PongTimeout    int    `yaml:"pong_timeout"`
}

// MQTTConfig contains the optional MQTT ingest bridge settings.
type MQTTConfig struct {
	Enabled   bool                `yaml:"enabled"`
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

// MQTTReconnectConfig contains MQTT reconnection settings in seconds.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
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
// Environment variables follow the pattern: NOISEWATCH_SECTION_KEY
// For example: NOISEWATCH_API_PORT, NOISEWATCH_MONITOR_NOISE_THRESHOLD
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Default returns a Config with sensible defaults. It is also used directly
// by tests and by callers that run without a config file.
func Default() *Config {
	return &Config{
		Site: SiteConfig{
			ID:   "site-001",
			Name: "NoiseWatch",
		},
		Monitor: MonitorConfig{
			NoiseThreshold:     65,
			InactivityWindowMS: 15000,
			SweepIntervalMS:    5000,
		},
		Ingest: IngestConfig{
			Host:            "0.0.0.0",
			Port:            4100,
			MaxPortAttempts: 10,
			Path:            "/ingest",
			MaxMessageSize:  8192,
		},
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 4000,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
			WebSocket: WebSocketConfig{
				Path:           "/ws",
				MaxMessageSize: 8192,
				PingInterval:   30,
				PongTimeout:    10,
			},
		},
		MQTT: MQTTConfig{
			Enabled: false,
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "noisewatch-core",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
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
// Environment variables follow the pattern: NOISEWATCH_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("NOISEWATCH_API_HOST"); v != "" {
		cfg.API.Host = v
	}
	if v := os.Getenv("NOISEWATCH_API_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.API.Port = port
		}
	}
	if v := os.Getenv("NOISEWATCH_INGEST_HOST"); v != "" {
		cfg.Ingest.Host = v
	}
	if v := os.Getenv("NOISEWATCH_INGEST_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Ingest.Port = port
		}
	}
	if v := os.Getenv("NOISEWATCH_MONITOR_NOISE_THRESHOLD"); v != "" {
		if threshold, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Monitor.NoiseThreshold = threshold
		}
	}
	if v := os.Getenv("NOISEWATCH_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("NOISEWATCH_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("NOISEWATCH_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}
	if v := os.Getenv("NOISEWATCH_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.Site.ID == "" {
		errs = append(errs, "site.id is required")
	}

	if c.Monitor.NoiseThreshold <= 0 {
		errs = append(errs, "monitor.noise_threshold must be positive")
	}
	if c.Monitor.InactivityWindowMS <= 0 {
		errs = append(errs, "monitor.inactivity_window_ms must be positive")
	}
	if c.Monitor.SweepIntervalMS <= 0 {
		errs = append(errs, "monitor.sweep_interval_ms must be positive")
	}

	if c.Ingest.Port < 1 || c.Ingest.Port > 65535 {
		errs = append(errs, "ingest.port must be between 1 and 65535")
	}
	if c.Ingest.MaxPortAttempts < 1 {
		errs = append(errs, "ingest.max_port_attempts must be at least 1")
	}

	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// InactivityWindow returns the inactivity window as a Duration.
func (c *MonitorConfig) InactivityWindow() time.Duration {
	return time.Duration(c.InactivityWindowMS) * time.Millisecond
}

// SweepInterval returns the sweep interval as a Duration.
func (c *MonitorConfig) SweepInterval() time.Duration {
	return time.Duration(c.SweepIntervalMS) * time.Millisecond
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
