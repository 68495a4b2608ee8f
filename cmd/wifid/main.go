// wifid - Wi-Fi interface lifecycle daemon
//
// wifid claims physical wireless interfaces in station or access-point
// mode, manages the wpa_supplicant and hostapd processes bound to them,
// and fans interface events out to the journal, the broker, and
// connected control clients.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/wavelan/wifid/migrations"

	"github.com/wavelan/wifid/internal/api"
	"github.com/wavelan/wifid/internal/event"
	"github.com/wavelan/wifid/internal/history"
	"github.com/wavelan/wifid/internal/hostapd"
	"github.com/wavelan/wifid/internal/iftool"
	"github.com/wavelan/wifid/internal/infrastructure/config"
	"github.com/wavelan/wifid/internal/infrastructure/database"
	"github.com/wavelan/wifid/internal/infrastructure/influxdb"
	"github.com/wavelan/wifid/internal/infrastructure/logging"
	"github.com/wavelan/wifid/internal/infrastructure/mqtt"
	"github.com/wavelan/wifid/internal/nl80211"
	"github.com/wavelan/wifid/internal/server"
	"github.com/wavelan/wifid/internal/softap"
	"github.com/wavelan/wifid/internal/supplicant"
)

// Version information - set at build time via ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

// defaultConfigPath is used when WIFID_CONFIG is not set.
const defaultConfigPath = "/etc/wifid/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the application logic, separated from main for testability.
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting wifid", "version", version, "commit", commit)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised", "level", cfg.Logging.Level, "format", cfg.Logging.Format)

	// Open database and run migrations.
	db, err := database.Open(database.Config{
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

	if err := db.Migrate(ctx); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	log.Info("database ready", "path", cfg.Database.Path)

	// Event fan-out: journal first, then optional notifiers.
	registry := event.NewRegistry()
	registry.SetLogger(log.With("component", "event"))
	registry.Register(history.NewJournal(db.DB))

	if cfg.MQTT.Enabled {
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
		registry.Register(mqtt.NewNotifier(mqttClient, byte(cfg.MQTT.QoS))) //nolint:gosec // QoS validated to 0..2
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Host, cfg.MQTT.Port),
			"client_id", cfg.MQTT.ClientID,
		)
	} else {
		log.Info("MQTT disabled")
	}

	if cfg.InfluxDB.Enabled {
		influxClient, err := influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
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
		registry.Register(influxdb.NewNotifier(influxClient))
		log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
	} else {
		log.Info("InfluxDB disabled")
	}

	// Daemon managers.
	supplicantMgr := supplicant.NewManager(supplicant.Config{
		Binary:          cfg.Supplicant.Binary,
		ConfigFile:      cfg.Supplicant.ConfigFile,
		ControlDir:      cfg.Supplicant.ControlDir,
		GracefulTimeout: time.Duration(cfg.Supplicant.GracefulTimeout) * time.Second,
	})
	supplicantMgr.SetLogger(log.With("component", "supplicant"))

	hostapdMgr := hostapd.NewManager(hostapd.Config{
		Binary:          cfg.Hostapd.Binary,
		ConfigPath:      cfg.Hostapd.ConfigPath,
		ControlDir:      cfg.Hostapd.ControlDir,
		GracefulTimeout: time.Duration(cfg.Hostapd.GracefulTimeout) * time.Second,
	})
	hostapdMgr.SetLogger(log.With("component", "hostapd"))

	// Interface lifecycle manager.
	mgr := server.New(
		cfg.Wifi.BaseIfname,
		nl80211.NewIWClient(),
		iftool.NewIPTool(),
		supplicantMgr,
		hostapdMgr,
		registry,
	)
	mgr.SetLogger(log.With("component", "server"))

	// Clear any state a previous instance left behind.
	mgr.CleanUpSystemState()
	log.Info("system state cleaned", "base_ifname", cfg.Wifi.BaseIfname)

	var softapTool softap.Tool = softap.Disabled{}
	if cfg.Softap.Enabled {
		softapTool = softap.NewExecTool(cfg.Softap.Binary)
	}
	dispatcher := server.NewCommandDispatcher(mgr, softapTool)
	dispatcher.SetLogger(log.With("component", "dispatcher"))

	// HTTP control surface + WebSocket event stream.
	apiServer, err := api.New(api.Deps{
		Config:     cfg.API,
		WS:         cfg.WebSocket,
		Logger:     log.With("component", "api"),
		Manager:    mgr,
		Dispatcher: dispatcher,
		History:    history.NewJournal(db.DB),
		Version:    version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	registry.Register(apiServer.Hub())

	if err := apiServer.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := apiServer.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	log.Info("initialisation complete, waiting for shutdown signal")
	<-ctx.Done()

	log.Info("shutdown signal received, tearing down interfaces")
	mgr.TearDownAll()

	log.Info("wifid stopped")
	return nil
}

// getConfigPath returns the configuration file path. Uses the
// WIFID_CONFIG environment variable if set, otherwise the default.
func getConfigPath() string {
	if path := os.Getenv("WIFID_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
