package config

import (
	"fmt"
	"net"
	"os"
	"strconv"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Settings is the daemon's runtime configuration: where to listen, where
// the flash image lives, and how the process behaves. Device
// configuration (Wi-Fi, MQTT, TLS) is not here; that lives in the flash
// record and is managed through the web interface.
//
// Precedence: defaults, then the YAML file, then DOORCTL_* environment
// variables.
type Settings struct {
	// ListenAddr is the web interface listen address.
	ListenAddr string `yaml:"listen_addr" env:"DOORCTL_LISTEN_ADDR"`

	// FlashPath is the file backing the flash image.
	FlashPath string `yaml:"flash_path" env:"DOORCTL_FLASH_PATH"`

	// FlashSectors is the image size in 4KiB sectors.
	FlashSectors int `yaml:"flash_sectors" env:"DOORCTL_FLASH_SECTORS"`

	// DeviceID overrides the MAC-derived device identifier. Must be 12
	// lowercase hex digits when set.
	DeviceID string `yaml:"device_id" env:"DOORCTL_DEVICE_ID"`

	// LogLevel is debug, info, warn or error; empty disables logging.
	LogLevel string `yaml:"log_level" env:"DOORCTL_LOG_LEVEL"`

	// Simulate replaces the GPIO lines with in-memory pins.
	Simulate bool `yaml:"simulate" env:"DOORCTL_SIMULATE"`

	// MDNS controls the mDNS advertisement.
	MDNS bool `yaml:"mdns" env:"DOORCTL_MDNS"`
}

// DefaultSettings returns the built-in defaults.
func DefaultSettings() *Settings {
	return &Settings{
		ListenAddr:   ":8080",
		FlashPath:    "doorctl-flash.bin",
		FlashSectors: 4,
		Simulate:     true,
		MDNS:         true,
	}
}

// LoadSettings builds Settings from the optional YAML file at path and
// the environment. A missing file is not an error; a malformed one is.
func LoadSettings(path string) (*Settings, error) {
	s := DefaultSettings()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, s); err != nil {
				return nil, fmt.Errorf("config: parse %s: %w", path, err)
			}
		case os.IsNotExist(err):
		default:
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	if err := env.Parse(s); err != nil {
		return nil, fmt.Errorf("config: environment: %w", err)
	}

	return s, nil
}

// WebPort extracts the numeric port from ListenAddr, for the mDNS
// advertisement.
func (s *Settings) WebPort() (int, error) {
	_, portStr, err := net.SplitHostPort(s.ListenAddr)
	if err != nil {
		return 0, fmt.Errorf("config: listen address %q: %w", s.ListenAddr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return 0, fmt.Errorf("config: listen port %q: %w", portStr, err)
	}
	return port, nil
}
