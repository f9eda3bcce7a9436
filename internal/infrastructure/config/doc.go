// Package config handles loading and validating pulse configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with environment variables
//   - Validation of required fields
//   - Default value handling
//
// The four values the reconnecting roles depend on (broker host, broker port,
// channel, retry delay) are each independently overridable:
//
//	PULSE_BROKER_HOST=10.0.0.5 PULSE_RETRY_DELAY=3 pulse
//
// Security Considerations:
//   - Broker credentials should be set via PULSE_BROKER_USERNAME / PULSE_BROKER_PASSWORD
//   - The config file should have restricted permissions (0600)
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.PubSub.Channel)
package config
