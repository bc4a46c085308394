package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config mirrors config.yaml.
type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	Bridge    BridgeConfig    `yaml:"bridge"`
	Topology  TopologyConfig  `yaml:"topology"`
	API       APIConfig       `yaml:"api"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	Security  SecurityConfig  `yaml:"security"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// DatabaseConfig locates and tunes the SQLite file.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig configures the broker connection used by the bridge.
type MQTTConfig struct {
	Enabled   bool                `yaml:"enabled"`
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`

	// TopicPrefix is the root of every homegraph topic.
	TopicPrefix string `yaml:"topic_prefix"`
}

type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig bounds paho's reconnect backoff (seconds).
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// BridgeConfig contains settings for the MQTT device bridge.
type BridgeConfig struct {
	// AckTimeout is how long a characteristic write waits for the device
	// side to acknowledge (seconds).
	AckTimeout int `yaml:"ack_timeout"`
}

// TopologyConfig points at the home topology document.
type TopologyConfig struct {
	// File is a YAML topology imported into the database on startup.
	// When empty, the topology already stored in the database is used.
	File string `yaml:"file"`
}

// APIConfig configures the HTTP and WebSocket listener.
type APIConfig struct {
	Enabled  bool             `yaml:"enabled"`
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	TLS      TLSConfig        `yaml:"tls"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig       `yaml:"cors"`
}

type TLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// APITimeoutConfig holds http.Server timeouts in seconds.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig feeds the CORS middleware. Empty lists use its defaults.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
}

// WebSocketConfig sizes and paces event connections.
type WebSocketConfig struct {
	MaxMessageSize int `yaml:"max_message_size"`
	PingInterval   int `yaml:"ping_interval"`
	PongTimeout    int `yaml:"pong_timeout"`
}

type SecurityConfig struct {
	JWT JWTConfig `yaml:"jwt"`
}

// JWTConfig contains JWT settings. Tokens are HS256-signed with Secret.
type JWTConfig struct {
	Secret string `yaml:"secret"`

	// AccessTokenTTL bounds the lifetime of accepted tokens (minutes).
	AccessTokenTTL int `yaml:"access_token_ttl"`
}

// minJWTSecretLength is the shortest accepted HS256 secret.
const minJWTSecretLength = 32

// LoggingConfig selects slog level, format and output.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads config.yaml at path over the built-in defaults, applies
// HOMEGRAPH_* overrides from the environment (see envBindings) and
// validates the result.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := defaultConfig()
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	if err := applyEnv(cfg, os.Getenv); err != nil {
		return nil, fmt.Errorf("applying environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func defaultConfig() *Config {
	var c Config

	c.Database.Path = "./data/homegraph.db"
	c.Database.WALMode = true
	c.Database.BusyTimeout = 5

	c.MQTT.Enabled = true
	c.MQTT.Broker.Host = "localhost"
	c.MQTT.Broker.Port = 1883
	c.MQTT.Broker.ClientID = "homegraph"
	c.MQTT.QoS = 1
	c.MQTT.Reconnect.InitialDelay = 1
	c.MQTT.Reconnect.MaxDelay = 60
	c.MQTT.TopicPrefix = "homegraph"

	c.Bridge.AckTimeout = 10

	c.API.Host = "127.0.0.1"
	c.API.Port = 8080
	c.API.Timeouts = APITimeoutConfig{Read: 30, Write: 30, Idle: 60}

	c.WebSocket = WebSocketConfig{MaxMessageSize: 8192, PingInterval: 30, PongTimeout: 10}
	c.Security.JWT.AccessTokenTTL = 15
	c.Logging = LoggingConfig{Level: "info", Format: "json", Output: "stdout"}

	return &c
}

// problems collects validation failures keyed by config path.
type problems []string

func (p *problems) check(ok bool, field, msg string) {
	if !ok {
		*p = append(*p, field+" "+msg)
	}
}

func validPort(port int) bool { return port >= 1 && port <= 65535 }

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var p problems

	p.check(c.Database.Path != "", "database.path", "is required")
	p.check(c.MQTT.QoS >= 0 && c.MQTT.QoS <= 2, "mqtt.qos", "must be 0, 1 or 2")
	if c.MQTT.Enabled {
		p.check(c.MQTT.Broker.Host != "", "mqtt.broker.host", "is required when mqtt is enabled")
		p.check(validPort(c.MQTT.Broker.Port), "mqtt.broker.port", "is out of range")
		p.check(c.MQTT.TopicPrefix != "" && !strings.ContainsAny(c.MQTT.TopicPrefix, "+#"),
			"mqtt.topic_prefix", "must be non-empty and free of wildcards")
	}
	p.check(c.Bridge.AckTimeout >= 1, "bridge.ack_timeout", "must be at least 1 second")

	// A forged token could switch any light, so the secret is mandatory
	// once the API listens.
	if c.API.Enabled {
		p.check(validPort(c.API.Port), "api.port", "is out of range")
		p.check(!c.API.TLS.Enabled || (c.API.TLS.CertFile != "" && c.API.TLS.KeyFile != ""),
			"api.tls", "needs cert_file and key_file")
		p.check(len(c.Security.JWT.Secret) >= minJWTSecretLength,
			"security.jwt.secret", fmt.Sprintf("must be at least %d characters", minJWTSecretLength))
		p.check(c.Security.JWT.AccessTokenTTL >= 1, "security.jwt.access_token_ttl", "must be at least 1 minute")
		ws := c.WebSocket
		p.check(ws.PingInterval >= 1 && ws.PongTimeout >= 1 && ws.MaxMessageSize >= 1,
			"websocket", "ping_interval, pong_timeout and max_message_size must be positive")
	}

	if len(p) > 0 {
		return fmt.Errorf("%d problem(s): %s", len(p), strings.Join(p, "; "))
	}
	return nil
}

// GetAckTimeout returns the bridge acknowledgement timeout as a Duration.
func (c *Config) GetAckTimeout() time.Duration {
	return time.Duration(c.Bridge.AckTimeout) * time.Second
}
