// NoiseWatch Core - Ambient Noise Monitoring Engine
//
// This is the main entry point for the NoiseWatch Core application.
// NoiseWatch ingests real-time noise telemetry from ephemeral producer
// devices, classifies sound categories, evaluates alert rules (threshold,
// peer consistency, inactivity) and streams events to consumer UIs.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/noisewatch/noisewatch-core/internal/alert"
	"github.com/noisewatch/noisewatch-core/internal/api"
	"github.com/noisewatch/noisewatch-core/internal/device"
	"github.com/noisewatch/noisewatch-core/internal/infrastructure/config"
	"github.com/noisewatch/noisewatch-core/internal/infrastructure/logging"
	"github.com/noisewatch/noisewatch-core/internal/infrastructure/mqtt"
	"github.com/noisewatch/noisewatch-core/internal/ingest"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting NoiseWatch Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Initialise device registry
	registry := device.NewRegistry()
	registry.SetLogger(log)
	log.Info("device registry initialised")

	// Create the API server and its WebSocket hub. The hub is the event
	// boundary every other component emits through, so it has to exist
	// before the alert engine and the ingest pipeline.
	apiServer, err := api.New(api.Deps{
		Config:   cfg.API,
		Monitor:  cfg.Monitor,
		Logger:   log,
		Registry: registry,
		Version:  version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	hub := apiServer.Hub()

	// Alert engine: threshold + peer-consistency rules per message, plus
	// the periodic inactivity sweep.
	engine := alert.NewEngine(alert.Config{
		NoiseThreshold:   cfg.Monitor.NoiseThreshold,
		InactivityWindow: cfg.Monitor.InactivityWindow(),
		SweepInterval:    cfg.Monitor.SweepInterval(),
	}, registry, hub, log)

	// Shared ingest pipeline: decode, classify, upsert, emit, evaluate.
	pipeline := ingest.NewPipeline(registry, engine, hub, log)

	// Start the consumer-facing API server
	if err := apiServer.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		log.Info("stopping API server")
		if closeErr := apiServer.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	// Start the producer-facing ingest server
	ingestServer := ingest.NewServer(cfg.Ingest, cfg.Monitor.SweepInterval(), pipeline, log)
	if err := ingestServer.Start(ctx); err != nil {
		return fmt.Errorf("starting ingest server: %w", err)
	}
	defer func() {
		log.Info("stopping ingest server")
		if closeErr := ingestServer.Close(); closeErr != nil {
			log.Error("error closing ingest server", "error", closeErr)
		}
	}()
	log.Info("ingest server listening", "port", ingestServer.Port())

	// Start the inactivity sweep
	go engine.Run(ctx)

	// Connect to MQTT broker and start the ingest bridge (optional)
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)

		mqttClient.SetLogger(log)
		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})

		if bridgeErr := ingest.StartBridge(mqttClient, byte(cfg.MQTT.QoS), pipeline, log); bridgeErr != nil {
			return fmt.Errorf("starting MQTT ingest bridge: %w", bridgeErr)
		}
	} else {
		log.Info("MQTT ingest bridge disabled")
	}

	// Verify all components are healthy
	if err := healthCheck(ctx, apiServer, mqttClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls will run in reverse order:
	// 1. MQTT (if enabled)
	// 2. Ingest server
	// 3. API server

	log.Info("NoiseWatch Core stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses NOISEWATCH_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("NOISEWATCH_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies all running components are healthy.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - apiServer: API server to check
//   - mqttClient: MQTT client to check (may be nil if disabled)
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func healthCheck(ctx context.Context, apiServer *api.Server, mqttClient *mqtt.Client) error {
	if err := apiServer.HealthCheck(ctx); err != nil {
		return fmt.Errorf("api: %w", err)
	}

	if mqttClient != nil {
		if err := mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}

	// Ingest server health is verified during Start() - it binds its
	// listener before returning successfully.

	return nil
}
