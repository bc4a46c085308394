// homegraph serves a home automation topology as Homes, Rooms and Lights.
//
// On start it loads the configuration, imports the topology file into
// SQLite, builds the in-memory host graph and, when MQTT is enabled,
// bridges characteristic writes and device state over the broker. The
// optional HTTP API serves the directory and pushes value changes over
// WebSocket.
//
// Usage:
//
//	homegraph                   run the service
//	homegraph token <subject>   print an API bearer token
//	homegraph migrate [status]  list applied and pending migrations
//	homegraph migrate down      revert the latest migration
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nerrad567/homegraph/internal/api"
	"github.com/nerrad567/homegraph/internal/audit"
	"github.com/nerrad567/homegraph/internal/bridge"
	"github.com/nerrad567/homegraph/internal/home"
	"github.com/nerrad567/homegraph/internal/host/memhost"
	"github.com/nerrad567/homegraph/internal/infrastructure/config"
	"github.com/nerrad567/homegraph/internal/infrastructure/database"
	"github.com/nerrad567/homegraph/internal/infrastructure/logging"
	"github.com/nerrad567/homegraph/internal/infrastructure/mqtt"
	"github.com/nerrad567/homegraph/internal/topology"
	"github.com/nerrad567/homegraph/migrations"
)

// Version information, set at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

const defaultConfigPath = "configs/config.yaml"

// apiWriteSlack lets the bridge's own ack timeout fire before the API gives
// up on a write.
const apiWriteSlack = 2 * time.Second

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var err error
	switch {
	case len(os.Args) > 1 && os.Args[1] == "token":
		err = runToken(os.Args[2:], os.Stdout)
	case len(os.Args) > 1 && os.Args[1] == "migrate":
		err = runMigrate(ctx, os.Args[2:], os.Stdout)
	default:
		err = run(ctx)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		cancel()
		os.Exit(1) //nolint:gocritic // cancel called above
	}
}

// run is the application body, separated from main for testability. It
// returns nil on a clean shutdown.
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting homegraph",
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
	log.Info("configuration loaded",
		"path", configPath,
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	db, err := database.Open(ctx, database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()

	if migrateErr := db.Migrate(ctx, migrations.FS); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database ready", "path", cfg.Database.Path)

	doc, err := topology.Sync(ctx, topology.NewSQLiteRepository(db.DB), cfg.Topology.File)
	if err != nil {
		return fmt.Errorf("syncing topology: %w", err)
	}
	stats := doc.Stats()
	log.Info("topology loaded",
		"file", cfg.Topology.File,
		"homes", stats.Homes,
		"rooms", stats.Rooms,
		"accessories", stats.Accessories,
	)

	graph, err := topology.Build(doc, nil)
	if err != nil {
		return fmt.Errorf("building host graph: %w", err)
	}

	if cfg.MQTT.Enabled {
		mqttClient, b, startErr := startBridge(ctx, cfg, graph, log)
		if startErr != nil {
			return startErr
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		defer func() {
			log.Info("stopping bridge", "stats", b.Stats())
			b.Stop()
		}()
	} else {
		log.Info("MQTT disabled, writes are applied locally")
	}

	dir := home.NewDirectory(graph, home.WithLogger(log.Component("directory")))
	logInventory(dir, log)

	if cfg.API.Enabled {
		apiServer, apiErr := api.New(api.Deps{
			Config:       cfg.API,
			WS:           cfg.WebSocket,
			Security:     cfg.Security,
			Logger:       log.Component("api"),
			Directory:    dir,
			Changes:      graph,
			Audit:        audit.NewSQLiteRepository(db.DB),
			WriteTimeout: cfg.GetAckTimeout() + apiWriteSlack,
			Version:      version,
		})
		if apiErr != nil {
			return fmt.Errorf("creating API server: %w", apiErr)
		}
		if startErr := apiServer.Start(ctx); startErr != nil {
			return fmt.Errorf("starting API server: %w", startErr)
		}
		defer func() {
			if closeErr := apiServer.Close(); closeErr != nil {
				log.Error("error closing API server", "error", closeErr)
			}
		}()
		log.Info("API listening", "address", apiServer.Addr())
	}

	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("health check failed: database: %w", err)
	}

	log.Info("initialisation complete, waiting for shutdown signal")
	<-ctx.Done()
	log.Info("shutdown signal received, cleaning up")

	return nil
}

// runToken prints a bearer token for the subject named in args, signed with
// the configured secret.
func runToken(args []string, out io.Writer) error {
	if len(args) != 1 || args[0] == "" {
		return errors.New("usage: homegraph token <subject>")
	}

	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	token, err := api.IssueToken(cfg.Security.JWT, args[0], time.Now())
	if err != nil {
		return fmt.Errorf("issuing token: %w", err)
	}
	_, err = fmt.Fprintln(out, token)
	return err
}

// runMigrate reports or reverts schema migrations on the configured
// database without starting the service.
func runMigrate(ctx context.Context, args []string, out io.Writer) error {
	action := "status"
	if len(args) > 0 {
		action = args[0]
	}
	if len(args) > 1 || (action != "status" && action != "down") {
		return errors.New("usage: homegraph migrate [status|down]")
	}

	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	db, err := database.Open(ctx, database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close() //nolint:errcheck // read-mostly command

	if action == "down" {
		if err := db.MigrateDown(ctx, migrations.FS); err != nil {
			return fmt.Errorf("reverting migration: %w", err)
		}
	}

	applied, pending, err := db.MigrationStatus(ctx, migrations.FS)
	if err != nil {
		return fmt.Errorf("reading migration status: %w", err)
	}
	for _, r := range applied {
		fmt.Fprintf(out, "applied  %s %s (%s)\n", r.Version, r.Name, r.AppliedAt.Format(time.RFC3339))
	}
	for _, m := range pending {
		fmt.Fprintf(out, "pending  %s %s\n", m.Version, m.Name)
	}
	return nil
}

// getConfigPath returns HOMEGRAPH_CONFIG if set, otherwise the default path.
func getConfigPath() string {
	if path := os.Getenv("HOMEGRAPH_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// startBridge connects to the broker and routes graph writes through a
// started bridge. The caller owns both returned values.
func startBridge(ctx context.Context, cfg *config.Config, graph *memhost.Graph, log *logging.Logger) (*mqtt.Client, *bridge.Bridge, error) {
	mqttClient, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to MQTT: %w", err)
	}
	mqttClient.SetLogger(log.Component("mqtt"))
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})
	mqttClient.SetOnConnect(func() {
		if n := mqttClient.Reconnects(); n > 0 {
			log.Info("MQTT reconnected", "attempts", n)
		}
	})
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	b, err := bridge.New(bridge.Options{
		Client:     mqttClient,
		Sink:       graph,
		Topics:     mqttClient.Topics(),
		QoS:        byte(cfg.MQTT.QoS), //nolint:gosec // Validated to 0-2 by config
		AckTimeout: cfg.GetAckTimeout(),
		Logger:     log.Component("bridge"),
	})
	if err != nil {
		_ = mqttClient.Close()
		return nil, nil, fmt.Errorf("creating bridge: %w", err)
	}
	if err := b.Start(ctx); err != nil {
		_ = mqttClient.Close()
		return nil, nil, fmt.Errorf("starting bridge: %w", err)
	}
	graph.SetWriter(b)

	log.Info("bridge started",
		"topic_prefix", mqttClient.Topics().Prefix,
		"ack_timeout", cfg.GetAckTimeout(),
	)
	return mqttClient, b, nil
}

// inventory summarises one home for the startup log.
type inventory struct {
	Home   home.Home
	Rooms  int
	Lights int
	// Unassigned counts lights with no room.
	Unassigned int
}

func collectInventory(dir *home.Directory) []inventory {
	var out []inventory
	for _, h := range dir.Homes() {
		lights := dir.Lights(h)
		inv := inventory{Home: h, Rooms: len(dir.Rooms(h)), Lights: len(lights)}
		for _, l := range lights {
			if l.RoomID == "" {
				inv.Unassigned++
			}
		}
		out = append(out, inv)
	}
	return out
}

func logInventory(dir *home.Directory, log *logging.Logger) {
	for _, inv := range collectInventory(dir) {
		log.Info("home",
			"id", inv.Home.ID,
			"name", inv.Home.Name,
			"rooms", inv.Rooms,
			"lights", inv.Lights,
			"unassigned_lights", inv.Unassigned,
		)
	}
}
