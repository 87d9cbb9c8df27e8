// noolite-mqtt bridges a NooLite MTRF64 USB adapter to an MQTT broker.
//
// It reads 17-byte frames from the adapter's serial port, publishes them as
// MQTT events under a configurable prefix, and turns messages on the command
// topics into frames for the adapter. Optional components record channels in
// SQLite, sensor readings in InfluxDB, publish Home Assistant discovery
// configs and serve a read-only status API.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/nerrad567/noolite-mqtt/migrations"

	"github.com/nerrad567/noolite-mqtt/internal/api"
	"github.com/nerrad567/noolite-mqtt/internal/bridges/noolite"
	"github.com/nerrad567/noolite-mqtt/internal/discovery"
	"github.com/nerrad567/noolite-mqtt/internal/infrastructure/config"
	"github.com/nerrad567/noolite-mqtt/internal/infrastructure/database"
	"github.com/nerrad567/noolite-mqtt/internal/infrastructure/influxdb"
	"github.com/nerrad567/noolite-mqtt/internal/infrastructure/logging"
	"github.com/nerrad567/noolite-mqtt/internal/infrastructure/mqtt"
	"github.com/nerrad567/noolite-mqtt/internal/infrastructure/serialport"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

const (
	defaultConfigPath = "configs/config.yaml"
	configPathEnv     = "NOOLITE_CONFIG"

	startupCheckTimeout = 10 * time.Second
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run wires the components and blocks until ctx is cancelled.
// Deferred closes run in reverse start order.
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting noolite-mqtt",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log = logging.New(cfg.Logging, version)
	log.Info("configuration loaded", "path", configPath, "level", cfg.Logging.Level)

	checks := make(map[string]api.HealthChecker)

	// Channel ledger (optional)
	var recorder *noolite.ChannelRecorder
	if cfg.Database.Enabled {
		db, dbErr := openDatabase(ctx, cfg.Database)
		if dbErr != nil {
			return dbErr
		}
		defer func() {
			log.Info("closing database")
			if closeErr := db.Close(); closeErr != nil {
				log.Error("error closing database", "error", closeErr)
			}
		}()
		checks["database"] = db
		log.Info("database ready", "path", db.Path())

		recorder = noolite.NewChannelRecorder(db.DB)
		recorder.SetLogger(log)
		if startErr := recorder.Start(); startErr != nil {
			return fmt.Errorf("starting channel recorder: %w", startErr)
		}
		defer recorder.Stop()
	}

	mqttClient, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	mqttClient.SetLogger(log)
	checks["mqtt"] = mqttClient
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", mqttClient.ClientID(),
		"availability_topic", mqtt.AvailabilityTopic(cfg.MQTT.Prefix),
	)

	// Telemetry (optional)
	var telemetry noolite.Telemetry
	if cfg.InfluxDB.Enabled {
		influxClient, influxErr := influxdb.Connect(cfg.InfluxDB)
		if influxErr != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", influxErr)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		checks["influxdb"] = influxClient
		telemetry = influxClient
		log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
	} else {
		log.Info("InfluxDB disabled")
	}

	port, err := serialport.Open(cfg.Serial)
	if err != nil {
		return fmt.Errorf("opening adapter: %w", err)
	}
	defer func() {
		log.Info("closing serial port")
		if closeErr := port.Close(); closeErr != nil {
			log.Error("error closing serial port", "error", closeErr)
		}
	}()
	port.SetLogger(log)
	log.Info("adapter opened", "device", port.Name(), "baud", cfg.Serial.Baud)

	opts := noolite.BridgeOptions{
		Config:     bridgeConfig(cfg),
		MQTTClient: &mqttBridgeAdapter{client: mqttClient},
		Transport:  port,
		Logger:     log,
		Telemetry:  telemetry,
	}
	if recorder != nil {
		opts.Recorder = recorder
	}
	bridge, err := noolite.NewBridge(opts)
	if err != nil {
		return fmt.Errorf("creating bridge: %w", err)
	}
	if err := bridge.Start(ctx); err != nil {
		return fmt.Errorf("starting bridge: %w", err)
	}
	defer bridge.Stop()

	if cfg.Discovery.Enabled {
		announce := discoveryAnnouncer(cfg, mqttClient, log)
		announce()
		// Brokers without persistence forget retained configs on restart.
		mqttClient.SetOnConnect(announce)
	}

	if cfg.API.Enabled {
		srv, apiErr := startAPI(ctx, cfg, log, bridge, recorder, checks)
		if apiErr != nil {
			return apiErr
		}
		defer func() {
			if closeErr := srv.Close(); closeErr != nil {
				log.Error("error closing API server", "error", closeErr)
			}
		}()
	}

	checkCtx, cancel := context.WithTimeout(ctx, startupCheckTimeout)
	defer cancel()
	if err := healthCheck(checkCtx, checks); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")
	<-ctx.Done()
	log.Info("shutdown signal received, cleaning up")

	return nil
}

// getConfigPath returns NOOLITE_CONFIG if set, otherwise the default path.
func getConfigPath() string {
	if path := os.Getenv(configPathEnv); path != "" {
		return path
	}
	return defaultConfigPath
}

func openDatabase(ctx context.Context, cfg config.DatabaseConfig) (*database.DB, error) {
	db, err := database.Open(database.Config{
		Path:        cfg.Path,
		WALMode:     cfg.WALMode,
		BusyTimeout: cfg.BusyTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return db, nil
}

// bridgeConfig maps the application configuration onto the bridge's settings.
func bridgeConfig(cfg *config.Config) noolite.Config {
	bc := noolite.DefaultConfig()
	bc.Prefix = cfg.MQTT.Prefix
	bc.QoS = byte(cfg.MQTT.QoS) //nolint:gosec // validated to 0..2
	bc.StrictChecksum = cfg.NooLite.StrictChecksum
	bc.SendSpacing = cfg.SendSpacing()
	if cfg.NooLite.MaxFramesPerPoll > 0 {
		bc.MaxFramesPerPoll = cfg.NooLite.MaxFramesPerPoll
	}
	if cfg.NooLite.CommandQueueSize > 0 {
		bc.QueueSize = cfg.NooLite.CommandQueueSize
	}
	return bc
}

// discoveryAnnouncer returns a func that (re)publishes discovery configs.
func discoveryAnnouncer(cfg *config.Config, client *mqtt.Client, log *logging.Logger) func() {
	announcer := discovery.NewAnnouncer(client, cfg.Discovery.Prefix, cfg.MQTT.Prefix)
	return func() {
		n, err := announcer.Announce(cfg.Discovery.Devices)
		if err != nil {
			log.Error("publishing discovery configs", "error", err, "published", n)
			return
		}
		log.Info("discovery configs published", "count", n, "prefix", cfg.Discovery.Prefix)
	}
}

func startAPI(ctx context.Context, cfg *config.Config, log *logging.Logger, bridge *noolite.Bridge,
	recorder *noolite.ChannelRecorder, checks map[string]api.HealthChecker) (*api.Server, error) {
	deps := api.Deps{
		Config:  cfg.API,
		Logger:  log,
		Bridge:  bridge,
		Version: version,
		Health:  checks,
	}
	if recorder != nil {
		deps.Channels = recorder
	}

	srv, err := api.New(deps)
	if err != nil {
		return nil, fmt.Errorf("creating API server: %w", err)
	}
	if err := srv.Start(ctx); err != nil {
		return nil, fmt.Errorf("starting API server: %w", err)
	}
	return srv, nil
}

// healthCheck verifies every started component, returning the first failure.
func healthCheck(ctx context.Context, checks map[string]api.HealthChecker) error {
	for _, name := range []string{"database", "mqtt", "influxdb"} {
		c, ok := checks[name]
		if !ok {
			continue
		}
		if err := c.HealthCheck(ctx); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

// mqttBridgeAdapter adapts the infrastructure MQTT client to the bridge's
// MQTTClient interface. The handler signatures differ:
//   - infrastructure mqtt: func(topic string, payload []byte) error
//   - bridge: func(topic string, payload []byte)
type mqttBridgeAdapter struct {
	client *mqtt.Client
}

// Publish implements noolite.MQTTClient.
func (a *mqttBridgeAdapter) Publish(topic string, payload []byte, qos byte, retained bool) error {
	return a.client.Publish(topic, payload, qos, retained)
}

// Subscribe implements noolite.MQTTClient.
func (a *mqttBridgeAdapter) Subscribe(topic string, qos byte, handler func(topic string, payload []byte)) error {
	return a.client.Subscribe(topic, qos, func(t string, p []byte) error {
		handler(t, p)
		return nil
	})
}

// IsConnected implements noolite.MQTTClient.
func (a *mqttBridgeAdapter) IsConnected() bool {
	return a.client.IsConnected()
}
