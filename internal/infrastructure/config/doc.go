// Package config loads and validates NoiseWatch Core configuration.
//
// Configuration is layered: hardcoded defaults, then the YAML file, then
// NOISEWATCH_* environment variable overrides. Validation runs once at load
// time so the rest of the application can treat the Config as trusted.
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    return err
//	}
//	threshold := cfg.Monitor.NoiseThreshold
package config
