// Gray Logic Display - FT80x display coprocessor service
//
// This is the main entry point for the Gray Logic display service. It
// drives FT800/FT801 EVE display coprocessors over SPI or I2C, publishes
// them as nodes, and bridges them onto the Gray Logic MQTT bus:
//   - Display-list loads and coprocessor reads via bridge commands
//   - Lifecycle event journalling to SQLite
//   - Bus telemetry to InfluxDB
//   - REST API for display enumeration and diagnostics
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	_ "github.com/nerrad567/gray-logic-display/migrations"

	"github.com/nerrad567/gray-logic-display/internal/api"
	"github.com/nerrad567/gray-logic-display/internal/bridges/display"
	"github.com/nerrad567/gray-logic-display/internal/eve"
	"github.com/nerrad567/gray-logic-display/internal/eve/evesim"
	"github.com/nerrad567/gray-logic-display/internal/eve/i2cdev"
	"github.com/nerrad567/gray-logic-display/internal/eve/spidev"
	"github.com/nerrad567/gray-logic-display/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-display/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-display/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-display/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-display/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-display/internal/journal"
	"github.com/nerrad567/gray-logic-display/internal/node"
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

// telemetryInterval is how often bus counters are written to InfluxDB.
const telemetryInterval = 30 * time.Second

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
func run(ctx context.Context) error { //nolint:gocognit,gocyclo // startup sequence: each component wired in order
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Gray Logic Display",
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

	// Open the journal database
	db, err := database.Open(database.Config{
		Path:        cfg.Journal.Path,
		WALMode:     cfg.Journal.WALMode,
		BusyTimeout: cfg.Journal.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening journal database: %w", err)
	}
	defer func() {
		log.Info("closing journal database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing journal database", "error", closeErr)
		}
	}()
	log.Info("journal database connected", "path", cfg.Journal.Path)

	// Run migrations
	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	eventJournal := journal.New(db.DB, cfg.Journal.MaxEvents, log)

	// Lifecycle events fan out to the journal now and to the MQTT bridge
	// once it is running.
	events := &eventFanout{}
	events.Attach(eventJournal)

	// Connect to MQTT broker
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
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	mqttClient.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
	} else {
		log.Info("InfluxDB disabled")
	}

	// Register displays and publish their nodes
	registry := node.NewRegistry()
	displays, err := registerDisplays(cfg, registry, events, log)
	if err != nil {
		return fmt.Errorf("registering displays: %w", err)
	}
	defer func() {
		for name, path := range displays {
			if unlinkErr := registry.Unlink(path); unlinkErr != nil {
				log.Error("error unlinking display", "display", name, "error", unlinkErr)
			}
		}
	}()
	log.Info("displays registered", "count", len(displays))

	// Start the MQTT bridge
	bridge, err := display.NewBridge(display.Options{
		Version:    version,
		MQTTClient: &mqttBridgeAdapter{client: mqttClient},
		Registry:   registry,
		Displays:   displays,
		Logger:     log,
	})
	if err != nil {
		return fmt.Errorf("creating display bridge: %w", err)
	}
	if err := bridge.Start(); err != nil {
		return fmt.Errorf("starting display bridge: %w", err)
	}
	defer func() {
		log.Info("stopping display bridge")
		bridge.Stop()
	}()
	log.Info("display bridge started")

	// With the bridge up, mirror subsequent lifecycle events onto the bus.
	events.Attach(newBridgeEventSink(bridge, displays))

	// Start periodic bus telemetry (if InfluxDB is enabled)
	var telemetryWG sync.WaitGroup
	if influxClient != nil {
		telemetryWG.Add(1)
		go func() {
			defer telemetryWG.Done()
			runTelemetry(ctx, influxClient, registry, displays)
		}()
		defer telemetryWG.Wait()
	}

	// Start the REST API
	apiServer, err := api.New(api.Deps{
		Config:   cfg.API,
		Logger:   log,
		Registry: registry,
		Journal:  eventJournal,
		MQTT:     mqttClient,
		DB:       db,
		Displays: displays,
		Version:  version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := apiServer.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := apiServer.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	// Verify all connections are healthy
	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls will run in reverse order:
	// 1. API server
	// 2. Telemetry loop
	// 3. Display bridge
	// 4. Display nodes (unlink -> destroy)
	// 5. InfluxDB (if enabled)
	// 6. MQTT
	// 7. Journal database

	log.Info("Gray Logic Display stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses GRAYDISPLAY_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("GRAYDISPLAY_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// registerDisplays opens a transport for each configured display, runs
// the bring-up sequence, and publishes the device as a node.
//
// Returns the display name to node path mapping used by the bridge and
// the API. On any failure, displays registered so far are unlinked.
func registerDisplays(cfg *config.Config, registry *node.Registry, events eve.EventSink, log *logging.Logger) (map[string]string, error) {
	displays := make(map[string]string, len(cfg.Displays))

	cleanup := func() {
		for _, path := range displays {
			_ = registry.Unlink(path)
		}
	}

	for _, dc := range cfg.Displays {
		variant := eve.Variant(dc.Variant)

		profile, err := eve.ProfileByName(dc.Profile)
		if err != nil {
			cleanup()
			return nil, fmt.Errorf("display %s: %w", dc.Name, err)
		}

		transport, err := openTransport(dc, variant)
		if err != nil {
			cleanup()
			return nil, fmt.Errorf("display %s: %w", dc.Name, err)
		}

		dev, err := eve.Register(transport, eve.Config{
			Variant: variant,
			Profile: profile,
			InitHz:  dc.InitHz,
			OpHz:    dc.OpHz,
			Logger:  log.With("display", dc.Name),
			Events:  events,
		})
		if err != nil {
			cleanup()
			return nil, fmt.Errorf("display %s: %w", dc.Name, err)
		}

		path, minor, err := publishNode(registry, variant, dev)
		if err != nil {
			dev.Unlink()
			cleanup()
			return nil, fmt.Errorf("display %s: %w", dc.Name, err)
		}

		displays[dc.Name] = path
		log.Info("display published",
			"display", dc.Name,
			"path", path,
			"minor", minor,
			"bus", dc.Bus,
		)
	}

	return displays, nil
}

// publishNode publishes a device under its variant's node path, adding a
// numeric suffix when multiple displays of the same variant are attached.
func publishNode(registry *node.Registry, variant eve.Variant, dev *eve.Device) (string, int, error) {
	base := variant.NodePath()

	path := base
	for i := 1; ; i++ {
		minor, err := registry.Publish(path, dev)
		if err == nil {
			return path, minor, nil
		}
		if !errors.Is(err, node.ErrExists) {
			return "", 0, err
		}
		path = base + strconv.Itoa(i)
	}
}

// openTransport opens the bus transport selected for a display.
func openTransport(dc config.DisplayConfig, variant eve.Variant) (eve.Transport, error) {
	switch dc.Bus {
	case "spi":
		return spidev.Open(spidev.Config{
			Path:          dc.SPI.Path,
			Mode:          dc.SPI.Mode,
			PowerDownGPIO: dc.SPI.PowerDownGPIO,
		})
	case "i2c":
		return i2cdev.Open(i2cdev.Config{
			Path:          dc.I2C.Path,
			Addr:          dc.I2C.Addr,
			PowerDownGPIO: dc.I2C.PowerDownGPIO,
		})
	case "simulate":
		return evesim.New(variant), nil
	default:
		return nil, fmt.Errorf("unknown bus type: %s", dc.Bus)
	}
}

// runTelemetry periodically writes every display's bus counters to
// InfluxDB until the context is cancelled.
func runTelemetry(ctx context.Context, influx *influxdb.Client, registry *node.Registry, displays map[string]string) {
	ticker := time.NewTicker(telemetryInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for name, path := range displays {
				dev, err := registry.Device(path)
				if err != nil {
					continue
				}
				influx.WriteBusStats(name, dev.GetStats())
			}
		}
	}
}

// healthCheck verifies all infrastructure connections are healthy.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - db: Database connection to check
//   - mqttClient: MQTT client to check
//   - influxClient: InfluxDB client to check (may be nil if disabled)
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if err := mqttClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}

// eventFanout forwards device lifecycle events to every attached sink.
// Sinks can be attached after devices are registered; they receive only
// events raised after attachment.
type eventFanout struct {
	mu    sync.RWMutex
	sinks []eve.EventSink
}

// Attach adds a sink to the fan-out.
func (f *eventFanout) Attach(sink eve.EventSink) {
	f.mu.Lock()
	f.sinks = append(f.sinks, sink)
	f.mu.Unlock()
}

// DeviceEvent implements eve.EventSink.
func (f *eventFanout) DeviceEvent(node, event string) {
	f.mu.RLock()
	sinks := make([]eve.EventSink, len(f.sinks))
	copy(sinks, f.sinks)
	f.mu.RUnlock()

	for _, sink := range sinks {
		sink.DeviceEvent(node, event)
	}
}

// eventPublisher is the slice of the display bridge the event sink needs.
type eventPublisher interface {
	PublishEvent(name, event string)
}

// bridgeEventSink adapts the display bridge to eve.EventSink. Devices
// report events by node path; the bridge publishes by display name, so
// the sink carries the reverse of the name-to-path mapping.
type bridgeEventSink struct {
	publisher eventPublisher
	names     map[string]string // node path -> display name
}

func newBridgeEventSink(publisher eventPublisher, displays map[string]string) *bridgeEventSink {
	names := make(map[string]string, len(displays))
	for name, path := range displays {
		names[path] = name
	}
	return &bridgeEventSink{publisher: publisher, names: names}
}

// DeviceEvent implements eve.EventSink. Events for unknown node paths are
// dropped rather than published under an empty display name.
func (s *bridgeEventSink) DeviceEvent(node, event string) {
	name, ok := s.names[node]
	if !ok {
		return
	}
	s.publisher.PublishEvent(name, event)
}

// mqttBridgeAdapter adapts the infrastructure MQTT client to the display
// bridge's MQTTClient interface. The difference is the Subscribe handler
// signature:
//   - Infrastructure mqtt: func(topic string, payload []byte) error
//   - Display bridge expects: func(topic string, payload []byte)
type mqttBridgeAdapter struct {
	client *mqtt.Client
}

// Publish implements display.MQTTClient.
func (a *mqttBridgeAdapter) Publish(topic string, payload []byte, qos byte, retained bool) error {
	return a.client.Publish(topic, payload, qos, retained)
}

// Subscribe implements display.MQTTClient.
func (a *mqttBridgeAdapter) Subscribe(topic string, qos byte, handler func(topic string, payload []byte)) error {
	// Wrap the void handler to return nil error (bridge handlers don't return errors)
	return a.client.Subscribe(topic, qos, func(t string, p []byte) error {
		handler(t, p)
		return nil
	})
}

// IsConnected implements display.MQTTClient.
func (a *mqttBridgeAdapter) IsConnected() bool {
	return a.client.IsConnected()
}
