// Package config handles loading and validating homegraph configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with environment variables (HOMEGRAPH_*)
//   - Validation of required fields
//   - Default value handling
//
// Sensitive values (MQTT credentials) should be set via environment
// variables rather than committed to the config file.
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    return err
//	}
//	fmt.Println(cfg.Topology.File)
package config
