// Package config handles loading and validating Gray Logic Display configuration.
//
// A single YAML file describes the whole service: the display panels to
// register (bus, variant, timing profile, frequencies), the MQTT broker,
// the journal database, optional InfluxDB telemetry, the HTTP API, and
// logging.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with environment variables
//   - Validation of required fields
//   - Default value handling
//
// Security Considerations:
//   - Sensitive values (passwords, tokens) should be set via environment variables
//   - The config file should have restricted permissions (0600)
//
// Performance Characteristics:
//   - Configuration is loaded once at startup
//   - No runtime overhead after initial load
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Displays[0].Name)
package config
