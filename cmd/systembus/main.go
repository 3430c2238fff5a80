// System Bus - in-memory device bus with optional event sinks.
//
// The process registers the devices listed in the configuration manifest,
// then runs the reference scenario, opens an interactive console or serves
// the REST API until a shutdown signal. Every bus operation is logged and,
// when enabled, recorded in SQLite, published to MQTT, sampled into
// InfluxDB and streamed to WebSocket subscribers.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/nerrad567/gray-logic-systembus/migrations"

	"github.com/nerrad567/gray-logic-systembus/internal/api"
	"github.com/nerrad567/gray-logic-systembus/internal/audit"
	"github.com/nerrad567/gray-logic-systembus/internal/auth"
	"github.com/nerrad567/gray-logic-systembus/internal/bus"
	"github.com/nerrad567/gray-logic-systembus/internal/busevent"
	"github.com/nerrad567/gray-logic-systembus/internal/console"
	"github.com/nerrad567/gray-logic-systembus/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-systembus/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-systembus/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-systembus/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-systembus/internal/infrastructure/mqtt"
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

// configEnvVar names the environment variable that overrides the config path.
const configEnvVar = "SYSTEMBUS_CONFIG"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// options holds the parsed command-line flags.
type options struct {
	configPath     string
	configExplicit bool
	interactive    bool
	demo           bool
	tokenRole      string
}

func parseFlags(args []string) (options, error) {
	var opts options

	fset := flag.NewFlagSet("systembus", flag.ContinueOnError)
	fset.StringVar(&opts.configPath, "config", "", "path to config.yaml (default "+defaultConfigPath+")")
	fset.BoolVar(&opts.interactive, "interactive", false, "open the interactive console")
	fset.BoolVar(&opts.demo, "demo", false, "run the reference scenario (default without console or API)")
	fset.StringVar(&opts.tokenRole, "token", "", "print an API token for the role (viewer, operator, admin) and exit")
	if err := fset.Parse(args); err != nil {
		return options{}, err
	}

	switch {
	case opts.configPath != "":
		opts.configExplicit = true
	case os.Getenv(configEnvVar) != "":
		opts.configPath = os.Getenv(configEnvVar)
		opts.configExplicit = true
	default:
		opts.configPath = defaultConfigPath
	}

	return opts, nil
}

// loadConfig reads the config file. A missing default file falls back to
// built-in defaults; a missing file the operator named is an error.
func loadConfig(opts options) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err == nil {
		return cfg, nil
	}
	if !opts.configExplicit && errors.Is(err, fs.ErrNotExist) {
		return config.LoadDefaults()
	}
	return nil, err
}

// run is the actual application logic, separated from main for testability.
func run(ctx context.Context, args []string, stdout io.Writer) error {
	opts, err := parseFlags(args)
	if err != nil {
		return fmt.Errorf("parsing flags: %w", err)
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Token output must stay clean for shell capture, so it precedes logging.
	if opts.tokenRole != "" {
		return printToken(cfg.API.Auth, opts.tokenRole, stdout)
	}

	log := logging.New(cfg.Logging, version)
	log.Info("starting System Bus",
		"version", version,
		"commit", commit,
		"build_date", date,
		"config", opts.configPath,
		"max_devices", cfg.Bus.MaxDevices,
	)

	observers := bus.MultiObserver{bus.NewLogObserver(log.With("component", "bus"))}

	var auditRepo audit.Repository
	db, err := openAuditLog(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	if db != nil {
		defer func() {
			log.Info("closing database")
			if closeErr := db.Close(); closeErr != nil {
				log.Error("error closing database", "error", closeErr)
			}
		}()
		auditRepo = audit.NewSQLiteRepository(db.DB)
		recorder := audit.NewRecorder(auditRepo)
		recorder.SetLogger(log)
		observers = append(observers, recorder)
	}

	mqttClient, err := connectMQTT(cfg.MQTT, log)
	if err != nil {
		return err
	}
	if mqttClient != nil {
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		codec, codecErr := busevent.NewCodec(cfg.Events.Encoding)
		if codecErr != nil {
			return fmt.Errorf("creating event codec: %w", codecErr)
		}
		publisher := busevent.NewPublisher(mqttClient, codec, mqttClient.QoS())
		publisher.SetLogger(log)
		observers = append(observers, publisher)
	}

	influxClient, err := connectInfluxDB(ctx, cfg.InfluxDB, log)
	if err != nil {
		return err
	}
	if influxClient != nil {
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		observers = append(observers, busevent.NewTelemetry(influxClient))
	}

	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		log.Warn("sink health check failed", "error", err)
	}

	var hub *api.Hub
	if cfg.API.Enabled {
		hub = api.NewHub(cfg.API.WebSocket, log.With("component", "websocket"))
		observers = append(observers, hub)
	}

	b := bus.NewSynced(bus.New(
		bus.WithCapacity(cfg.Bus.MaxDevices),
		bus.WithObserver(observers),
	))

	registered := registerManifest(b, cfg.Bus.Devices)
	log.Info("bus initialised",
		"devices", registered,
		"rejected", len(cfg.Bus.Devices)-registered,
		"capacity", b.Capacity(),
	)

	if cfg.API.Enabled {
		server, serverErr := api.New(api.Deps{
			Config:  cfg.API,
			Logger:  log.With("component", "api"),
			Bus:     b,
			Hub:     hub,
			Audit:   auditRepo,
			Version: version,
		})
		if serverErr != nil {
			return fmt.Errorf("creating API server: %w", serverErr)
		}
		if startErr := server.Start(ctx); startErr != nil {
			return fmt.Errorf("starting API server: %w", startErr)
		}
		defer func() {
			if closeErr := server.Close(); closeErr != nil {
				log.Error("error closing API server", "error", closeErr)
			}
		}()
	}

	if opts.demo || (!opts.interactive && !cfg.API.Enabled) {
		runDemo(b, stdout)
	}

	switch {
	case opts.interactive:
		if err := console.New(b, console.WithLogLevel(log.SetLevel)).Run(ctx); err != nil {
			return fmt.Errorf("console: %w", err)
		}
	case cfg.API.Enabled:
		log.Info("serving API until shutdown signal")
		<-ctx.Done()
	}

	log.Info("System Bus stopped")
	return nil
}

// openAuditLog opens and migrates the SQLite audit log when enabled.
// It returns nil when the audit log is disabled.
func openAuditLog(ctx context.Context, cfg config.DatabaseConfig, log *logging.Logger) (*database.DB, error) {
	if !cfg.Enabled {
		log.Info("audit log disabled")
		return nil, nil
	}

	db, err := database.Open(database.Config{
		Path:        cfg.Path,
		WALMode:     cfg.WALMode,
		BusyTimeout: cfg.BusyTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	log.Info("audit log ready", "path", cfg.Path)
	return db, nil
}

// connectMQTT connects to the broker when enabled.
// It returns nil when MQTT is disabled.
func connectMQTT(cfg config.MQTTConfig, log *logging.Logger) (*mqtt.Client, error) {
	if !cfg.Enabled {
		log.Info("MQTT disabled")
		return nil, nil
	}

	client, err := mqtt.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to MQTT: %w", err)
	}
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.Broker.Host, cfg.Broker.Port),
		"client_id", cfg.Broker.ClientID,
	)

	client.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	client.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})
	return client, nil
}

// connectInfluxDB connects to InfluxDB when enabled.
// It returns nil when InfluxDB is disabled.
func connectInfluxDB(ctx context.Context, cfg config.InfluxDBConfig, log *logging.Logger) (*influxdb.Client, error) {
	if !cfg.Enabled {
		log.Info("InfluxDB disabled")
		return nil, nil
	}

	client, err := influxdb.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to InfluxDB: %w", err)
	}
	log.Info("InfluxDB connected",
		"url", cfg.URL,
		"org", cfg.Org,
		"bucket", cfg.Bucket,
	)

	client.SetOnError(func(err error) {
		log.Error("InfluxDB write error", "error", err)
	})
	return client, nil
}

// healthCheck verifies the enabled sinks. Nil clients are skipped.
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if db != nil {
		if err := db.HealthCheck(ctx); err != nil {
			return fmt.Errorf("database: %w", err)
		}
	}
	if mqttClient != nil {
		if err := mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}
	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}
	return nil
}

// registerManifest adds the configured devices in order and returns how
// many were accepted. Rejections are reported through the bus observer.
func registerManifest(b *bus.Synced, devices []config.DeviceConfig) int {
	registered := 0
	for _, d := range devices {
		if err := b.AddDevice(d.ID, d.Address); err == nil {
			registered++
		}
	}
	return registered
}

// printToken signs an API access token for role and writes it to out.
func printToken(cfg config.APIAuthConfig, roleName string, out io.Writer) error {
	role, err := auth.ParseRole(roleName)
	if err != nil {
		return err
	}
	token, err := auth.GenerateToken("cli", role, cfg.JWTSecret, time.Duration(cfg.TokenTTL)*time.Minute)
	if err != nil {
		return fmt.Errorf("generating token: %w", err)
	}
	fmt.Fprintln(out, token)
	return nil
}

// runDemo initialises the bus and runs the reference scenario: two
// devices, two writes, two reads, then clearing device 1.
func runDemo(b *bus.Synced, out io.Writer) {
	b.Reset()

	_ = b.AddDevice(1, 0x10)
	_ = b.AddDevice(2, 0x20)

	_ = b.WriteData(1, 0x10, 42)
	_ = b.WriteData(2, 0x20, 123)

	_, _ = b.ReadData(1, 0x10)
	data2, _ := b.ReadData(2, 0x20)

	data1, _ := b.RemoveData(1, 0x10)

	fmt.Fprintf(out, "Data read from device 1: %d\n", data1)
	fmt.Fprintf(out, "Data read from device 2: %d\n", data2)
}
