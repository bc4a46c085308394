package config

import (
	"errors"
	"fmt"
	"strconv"
)

// envBinding maps one HOMEGRAPH_* variable onto a config field.
type envBinding struct {
	name string
	set  func(c *Config, v string) error
}

func stringVar(field func(c *Config) *string) func(*Config, string) error {
	return func(c *Config, v string) error {
		*field(c) = v
		return nil
	}
}

func boolVar(field func(c *Config) *bool) func(*Config, string) error {
	return func(c *Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%q is not a boolean", v)
		}
		*field(c) = b
		return nil
	}
}

func intVar(field func(c *Config) *int) func(*Config, string) error {
	return func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%q is not an integer", v)
		}
		*field(c) = n
		return nil
	}
}

var envBindings = []envBinding{
	{"HOMEGRAPH_DATABASE_PATH", stringVar(func(c *Config) *string { return &c.Database.Path })},

	{"HOMEGRAPH_MQTT_ENABLED", boolVar(func(c *Config) *bool { return &c.MQTT.Enabled })},
	{"HOMEGRAPH_MQTT_HOST", stringVar(func(c *Config) *string { return &c.MQTT.Broker.Host })},
	{"HOMEGRAPH_MQTT_PORT", intVar(func(c *Config) *int { return &c.MQTT.Broker.Port })},
	{"HOMEGRAPH_MQTT_USERNAME", stringVar(func(c *Config) *string { return &c.MQTT.Auth.Username })},
	{"HOMEGRAPH_MQTT_PASSWORD", stringVar(func(c *Config) *string { return &c.MQTT.Auth.Password })},
	{"HOMEGRAPH_MQTT_TOPIC_PREFIX", stringVar(func(c *Config) *string { return &c.MQTT.TopicPrefix })},

	{"HOMEGRAPH_BRIDGE_ACK_TIMEOUT", intVar(func(c *Config) *int { return &c.Bridge.AckTimeout })},
	{"HOMEGRAPH_TOPOLOGY_FILE", stringVar(func(c *Config) *string { return &c.Topology.File })},

	{"HOMEGRAPH_API_ENABLED", boolVar(func(c *Config) *bool { return &c.API.Enabled })},
	{"HOMEGRAPH_API_HOST", stringVar(func(c *Config) *string { return &c.API.Host })},
	{"HOMEGRAPH_API_PORT", intVar(func(c *Config) *int { return &c.API.Port })},
	{"HOMEGRAPH_JWT_SECRET", stringVar(func(c *Config) *string { return &c.Security.JWT.Secret })},

	{"HOMEGRAPH_LOG_LEVEL", stringVar(func(c *Config) *string { return &c.Logging.Level })},
	{"HOMEGRAPH_LOG_FORMAT", stringVar(func(c *Config) *string { return &c.Logging.Format })},
}

// applyEnv overrides cfg from the environment. Unset and empty variables
// are skipped; malformed values are all reported together.
func applyEnv(cfg *Config, getenv func(string) string) error {
	var errs []error
	for _, b := range envBindings {
		v := getenv(b.name)
		if v == "" {
			continue
		}
		if err := b.set(cfg, v); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", b.name, err))
		}
	}
	return errors.Join(errs...)
}
