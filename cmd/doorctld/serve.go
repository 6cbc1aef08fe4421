package main

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"regexp"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/muurk/doorctl/internal/bus"
	"github.com/muurk/doorctl/internal/conf"
	"github.com/muurk/doorctl/internal/config"
	"github.com/muurk/doorctl/internal/discovery"
	"github.com/muurk/doorctl/internal/door"
	"github.com/muurk/doorctl/internal/hal"
	"github.com/muurk/doorctl/internal/hass"
	"github.com/muurk/doorctl/internal/logging"
	"github.com/muurk/doorctl/internal/state"
	"github.com/muurk/doorctl/internal/web"
)

// sessionBackoff is the pause before restarting a failed session loop.
const sessionBackoff = 5 * time.Second

var deviceIDPattern = regexp.MustCompile(`^[0-9a-f]{12}$`)

var (
	settingsPath string
	listenAddr   string
	logLevel     string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the device daemon",
	Long: `Run the doorctl daemon.

Runtime settings come from defaults, the optional settings file, and
DOORCTL_* environment variables (a .env file in the working directory
is honored). Device configuration (Wi-Fi, MQTT, TLS) is persisted on
the flash image; a device without one starts in setup mode and only
serves the web interface until it is configured.`,
	Example: `  # Run with defaults (simulated pins, flash image in the working directory)
  doorctld serve

  # Custom listen address and verbose logging
  doorctld serve --listen :9090 --log-level debug

  # Settings file
  doorctld serve --settings /etc/doorctl/doorctld.yaml`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&settingsPath, "settings", "doorctld.yaml", "Path to the settings file (optional)")
	serveCmd.Flags().StringVar(&listenAddr, "listen", "", "Web interface listen address (overrides settings)")
	serveCmd.Flags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides settings)")
}

func runServe(cmd *cobra.Command, args []string) error {
	// A .env in the working directory feeds the DOORCTL_* variables.
	_ = godotenv.Load()

	settings, err := config.LoadSettings(settingsPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("listen") {
		settings.ListenAddr = listenAddr
	}
	if cmd.Flags().Changed("log-level") {
		settings.LogLevel = logLevel
	}

	if err := logging.Initialize(settings.LogLevel); err != nil {
		return err
	}
	defer logging.Sync()

	webPort, err := settings.WebPort()
	if err != nil {
		return err
	}

	deviceID := settings.DeviceID
	if deviceID == "" {
		deviceID, err = deviceIDFromMAC()
		if err != nil {
			return err
		}
	}
	if !deviceIDPattern.MatchString(deviceID) {
		return fmt.Errorf("device id %q must be 12 lowercase hex digits", deviceID)
	}

	flash, err := hal.OpenFileFlash(settings.FlashPath, int64(settings.FlashSectors)*hal.SectorSize)
	if err != nil {
		return err
	}
	defer flash.Close()

	store := conf.NewStore(flash)
	switch rec, err := store.Load(); {
	case err == nil:
		logging.Info("Configuration loaded",
			zap.String("device_name", rec.DeviceName),
			zap.String("mqtt_host", rec.MQTTHost),
		)
	case errors.Is(err, conf.ErrAbsent):
		logging.Warn("No configuration found, starting in setup mode")
	case errors.Is(err, conf.ErrCorrupt):
		logging.Error("Configuration record corrupt, starting in setup mode")
	default:
		return err
	}

	if !settings.Simulate {
		return errors.New("no real GPIO driver is built in; enable simulate mode")
	}
	lockPin := hal.NewSimOutput(false)
	reedPin := hal.NewSimInput(true)

	b := bus.New()
	cmds := make(chan state.Lock, 2)

	// A configuration save queues one connectivity restart; duplicates
	// collapse.
	restartCh := make(chan struct{}, 1)
	restart := func() {
		select {
		case restartCh <- struct{}{}:
		default:
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logging.Info("Daemon starting",
		zap.String("device_id", deviceID),
		zap.String("listen", settings.ListenAddr),
		zap.String("flash", settings.FlashPath),
	)

	svc := web.NewService(b, store, cmds, restart)
	doorSession := door.New(lockPin, reedPin, cmds, b)
	listener := web.NewListener(svc, settings.ListenAddr)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return supervise(gctx, "door", sessionBackoff, doorSession.Run)
	})
	g.Go(func() error {
		return svc.Track(gctx)
	})
	g.Go(func() error {
		return supervise(gctx, "web", sessionBackoff, listener.Run)
	})
	g.Go(func() error {
		return runConnectivity(gctx, settings, store, deviceID, webPort, b, cmds, restartCh)
	})

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		logging.Info("Daemon stopped")
		return nil
	}
	return err
}

// supervise keeps a session loop alive: any return before ctx ends is
// logged and the loop restarts after a fixed pause, so one failing
// service never takes the daemon down with it.
func supervise(ctx context.Context, name string, backoff time.Duration, run func(context.Context) error) error {
	for {
		err := run(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		logging.Error("Session ended, restarting",
			zap.String("session", name),
			zap.Duration("backoff", backoff),
			zap.Error(err),
		)
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// runConnectivity owns the config-dependent services (mDNS and MQTT).
// Each configuration save tears the current generation down and starts
// a fresh one against the new record. Both members carry their own
// supervision, so a failure inside a generation restarts that service
// rather than silently ending the generation.
func runConnectivity(ctx context.Context, settings *config.Settings, store *conf.Store,
	deviceID string, webPort int, b *bus.Bus, cmds chan state.Lock, restartCh <-chan struct{}) error {

	for {
		genCtx, cancel := context.WithCancel(ctx)
		gen, genGctx := errgroup.WithContext(genCtx)

		if settings.MDNS {
			deviceName := ""
			if rec := store.Current(); rec != nil {
				deviceName = rec.DeviceName
			}
			gen.Go(func() error {
				return supervise(genGctx, "mdns", sessionBackoff, func(c context.Context) error {
					return discovery.Advertise(c, deviceID, deviceName, webPort)
				})
			})
		}
		gen.Go(func() error {
			return superviseMQTT(genGctx, store, deviceID, b, cmds)
		})

		select {
		case <-ctx.Done():
			cancel()
			_ = gen.Wait()
			return ctx.Err()
		case <-restartCh:
			logging.Info("Configuration changed, restarting connectivity")
			cancel()
			_ = gen.Wait()
		}
	}
}

// superviseMQTT restarts the broker session like any other loop, except
// that an unconfigured device parks until a save restarts connectivity.
func superviseMQTT(ctx context.Context, store *conf.Store, deviceID string, b *bus.Bus, cmds chan state.Lock) error {
	return supervise(ctx, "mqtt", sessionBackoff, func(c context.Context) error {
		err := hass.New(store, deviceID, b, cmds).Run(c)
		if errors.Is(err, hass.ErrNotConfigured) {
			logging.Warn("MQTT disabled until the device is configured")
			<-c.Done()
			return c.Err()
		}
		return err
	})
}

// deviceIDFromMAC derives the device identifier from the first
// non-loopback interface's MAC address.
func deviceIDFromMAC() (string, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return "", fmt.Errorf("list network interfaces: %w", err)
	}
	for _, ifc := range ifaces {
		if ifc.Flags&net.FlagLoopback != 0 {
			continue
		}
		if len(ifc.HardwareAddr) != 6 {
			continue
		}
		return hex.EncodeToString(ifc.HardwareAddr), nil
	}
	return "", errors.New("no usable network interface to derive a device id; set device_id in settings")
}
