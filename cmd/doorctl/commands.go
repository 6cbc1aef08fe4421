package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/muurk/doorctl/internal/cli"
	"github.com/muurk/doorctl/internal/conf"
	"github.com/muurk/doorctl/internal/config"
	"github.com/muurk/doorctl/internal/discovery"
	"github.com/muurk/doorctl/internal/state"
)

// Target flags shared by the device-facing commands.
var (
	targetAddr   string
	targetDevice string
)

func addTargetFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&targetAddr, "addr", "", "Device address (host:port)")
	cmd.Flags().StringVar(&targetDevice, "device", "", "Device ID to locate via mDNS or the registry")
}

// resolveWSURL turns the target flags into a WebSocket URL, consulting
// the registry's last-seen address before falling back to mDNS.
func resolveWSURL(ctx context.Context) (string, error) {
	if targetAddr != "" {
		return "ws://" + targetAddr + "/ws", nil
	}
	if targetDevice == "" {
		return "", errors.New("specify a device with --addr or --device")
	}

	registry, err := config.LoadRegistry()
	if err != nil {
		return "", err
	}
	if known := registry.GetDevice(targetDevice); known != nil && known.LastIP != "" {
		return fmt.Sprintf("ws://%s:%d/ws", known.LastIP, known.LastPort), nil
	}

	scanner := discovery.NewScanner()
	if registry.Preferences != nil && registry.Preferences.DiscoverTimeout > 0 {
		scanner.Timeout = time.Duration(registry.Preferences.DiscoverTimeout) * time.Second
	}
	device, err := scanner.Find(ctx, targetDevice)
	if err != nil {
		return "", err
	}

	registry.UpdateDeviceLastSeen(device.ID, device.IP, device.Port)
	if err := registry.Save(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not save registry: %v\n", err)
	}
	return device.WSURL(), nil
}

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Find doorctl devices on the local network",
	RunE: func(cmd *cobra.Command, args []string) error {
		registry, err := config.LoadRegistry()
		if err != nil {
			return err
		}

		timeout := discovery.DefaultScanTimeout
		if registry.Preferences != nil && registry.Preferences.DiscoverTimeout > 0 {
			timeout = time.Duration(registry.Preferences.DiscoverTimeout) * time.Second
		}

		fmt.Printf("Scanning for devices (%s)...\n", timeout)
		devices, err := discovery.Scan(cmd.Context(), timeout)
		if err != nil {
			return err
		}
		if len(devices) == 0 {
			fmt.Println("No devices found.")
			return nil
		}

		for _, device := range devices {
			nickname := ""
			if known := registry.GetDevice(device.ID); known != nil && known.Nickname != "" {
				nickname = " (" + known.Nickname + ")"
			}
			fmt.Printf("  %s%s\n", device, nickname)
			registry.UpdateDeviceLastSeen(device.ID, device.IP, device.Port)
		}
		return registry.Save()
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch live lock and door state",
	Long: `Open an interactive monitor showing the device's lock and door
state as it changes. Press 'l' to lock, 'u' to unlock, 'q' to quit.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		url, err := resolveWSURL(cmd.Context())
		if err != nil {
			return err
		}
		return cli.Monitor(cmd.Context(), url)
	},
}

var lockCmd = &cobra.Command{
	Use:   "lock",
	Short: "Lock the door",
	RunE: func(cmd *cobra.Command, args []string) error {
		return sendLockCommand(cmd.Context(), state.Locked)
	},
}

var unlockCmd = &cobra.Command{
	Use:   "unlock",
	Short: "Unlock the door",
	RunE: func(cmd *cobra.Command, args []string) error {
		return sendLockCommand(cmd.Context(), state.Unlocked)
	},
}

// sendLockCommand issues a command and waits for the device to confirm
// the transition on its state channel.
func sendLockCommand(ctx context.Context, target state.Lock) error {
	url, err := resolveWSURL(ctx)
	if err != nil {
		return err
	}

	client, err := cli.Dial(ctx, url)
	if err != nil {
		return err
	}
	defer client.Close()

	if target == state.Locked {
		err = client.Lock()
	} else {
		err = client.Unlock()
	}
	if err != nil {
		return err
	}

	deadline := time.After(10 * time.Second)
	confirmed := make(chan error, 1)
	go func() {
		for {
			ev, err := client.Next()
			if err != nil {
				confirmed <- err
				return
			}
			if ev.Kind == cli.EventLock && ev.Lock == target {
				confirmed <- nil
				return
			}
		}
	}()

	select {
	case err := <-confirmed:
		if err != nil {
			return fmt.Errorf("waiting for confirmation: %w", err)
		}
		fmt.Printf("Door %s.\n", target)
		return nil
	case <-deadline:
		return errors.New("device did not confirm the command within 10s")
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Configure flags.
var (
	cfgName      string
	cfgWifiSSID  string
	cfgWifiPass  string
	cfgMQTTHost  string
	cfgMQTTPort  uint16
	cfgMQTTUser  string
	cfgMQTTPass  string
	cfgTLS       bool
	cfgTLSVerify bool
)

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Push a configuration update to a device",
	Long: `Send a partial configuration update over the device's WebSocket
channel. Only the flags you set are changed; everything else keeps its
stored value. On first-time setup every mandatory field must be
provided: name, Wi-Fi SSID and password, MQTT host, port and password.

Passwords can be given with flags for scripting, or omitted to be
prompted for without echo when their matching identity flag is set.`,
	Example: `  # First-time setup (prompts for the passwords)
  doorctl configure --addr 192.168.4.1:8080 --name front-door \
      --wifi-ssid HomeNet --mqtt-host broker.local --mqtt-port 1883

  # Point an already configured device at a new broker
  doorctl configure --device a1b2c3d4e5f6 --mqtt-host new-broker.local`,
	RunE: runConfigure,
}

func init() {
	addTargetFlags(watchCmd)
	addTargetFlags(lockCmd)
	addTargetFlags(unlockCmd)
	addTargetFlags(configureCmd)

	configureCmd.Flags().StringVar(&cfgName, "name", "", "Device name")
	configureCmd.Flags().StringVar(&cfgWifiSSID, "wifi-ssid", "", "Wi-Fi network name")
	configureCmd.Flags().StringVar(&cfgWifiPass, "wifi-pass", "", "Wi-Fi password (prompted if --wifi-ssid is set and this is not)")
	configureCmd.Flags().StringVar(&cfgMQTTHost, "mqtt-host", "", "MQTT broker host")
	configureCmd.Flags().Uint16Var(&cfgMQTTPort, "mqtt-port", 0, "MQTT broker port")
	configureCmd.Flags().StringVar(&cfgMQTTUser, "mqtt-user", "", "MQTT username")
	configureCmd.Flags().StringVar(&cfgMQTTPass, "mqtt-pass", "", "MQTT password (prompted if --mqtt-host is set and this is not)")
	configureCmd.Flags().BoolVar(&cfgTLS, "tls", false, "Connect to the broker over TLS")
	configureCmd.Flags().BoolVar(&cfgTLSVerify, "tls-verify", false, "Verify the broker certificate")
}

func runConfigure(cmd *cobra.Command, args []string) error {
	update := &conf.Update{}
	setString := func(dst **string, value string) {
		if value != "" {
			*dst = &value
		}
	}
	setString(&update.DeviceName, cfgName)
	setString(&update.WifiSSID, cfgWifiSSID)
	setString(&update.WifiPass, cfgWifiPass)
	setString(&update.MQTTHost, cfgMQTTHost)
	setString(&update.MQTTUser, cfgMQTTUser)
	setString(&update.MQTTPass, cfgMQTTPass)
	if cfgMQTTPort != 0 {
		update.MQTTPort = &cfgMQTTPort
	}
	if cmd.Flags().Changed("tls") {
		update.TLSEnabled = &cfgTLS
	}
	if cmd.Flags().Changed("tls-verify") {
		update.TLSVerify = &cfgTLSVerify
	}

	// Prompt for secrets that go with a newly given identity.
	if cfgWifiSSID != "" && update.WifiPass == nil {
		pass, err := promptPassword("Wi-Fi password: ")
		if err != nil {
			return err
		}
		update.WifiPass = &pass
	}
	if cfgMQTTHost != "" && update.MQTTPass == nil {
		pass, err := promptPassword("MQTT password: ")
		if err != nil {
			return err
		}
		update.MQTTPass = &pass
	}

	url, err := resolveWSURL(cmd.Context())
	if err != nil {
		return err
	}
	client, err := cli.Dial(cmd.Context(), url)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.SendConfig(update); err != nil {
		return err
	}

	// The device acknowledges with a notice frame; state and snapshot
	// frames may arrive first.
	deadline := time.After(10 * time.Second)
	notice := make(chan cli.Event, 1)
	readErr := make(chan error, 1)
	go func() {
		for {
			ev, err := client.Next()
			if err != nil {
				readErr <- err
				return
			}
			if ev.Kind == cli.EventNotice {
				notice <- ev
				return
			}
		}
	}()

	select {
	case ev := <-notice:
		fmt.Println(ev.Notice)
		return nil
	case err := <-readErr:
		return fmt.Errorf("waiting for acknowledgement: %w", err)
	case <-deadline:
		return errors.New("device did not acknowledge the update within 10s")
	case <-cmd.Context().Done():
		return cmd.Context().Err()
	}
}

func promptPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	pass, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(pass), nil
}
