// Package config handles loading and validating the inventory service configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with environment variables (INVENTORY_*)
//   - Validation of required fields
//   - Default value handling
//
// Sensitive values (MQTT password, InfluxDB token) should be set via
// environment variables rather than committed to the config file.
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    return err
//	}
//	fmt.Println(cfg.API.Port)
package config
