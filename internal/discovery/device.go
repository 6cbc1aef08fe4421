package discovery

import (
	"fmt"
	"time"
)

// Device is a doorctl appliance found on the local network.
type Device struct {
	// ID is the 12-hex-digit device identifier from the TXT record.
	ID string

	// Name is the configured device name, empty in setup mode.
	Name string

	// Instance is the mDNS instance name (e.g. "doorctl-a1b2c3d4e5f6").
	Instance string

	// IP is the address to reach the web interface on (IPv4 preferred).
	IP string

	// Port is the web interface port.
	Port int

	// Metadata holds the remaining TXT record pairs.
	Metadata map[string]string

	// DiscoveredAt is when the advertisement was seen.
	DiscoveredAt time.Time
}

func (d *Device) String() string {
	name := d.Name
	if name == "" {
		name = "(unconfigured)"
	}
	return fmt.Sprintf("doorctl %s %s at %s:%d", d.ID, name, d.IP, d.Port)
}

// BaseURL returns the device's web interface URL.
func (d *Device) BaseURL() string {
	return fmt.Sprintf("http://%s:%d", d.IP, d.Port)
}

// WSURL returns the device's WebSocket endpoint.
func (d *Device) WSURL() string {
	return fmt.Sprintf("ws://%s:%d/ws", d.IP, d.Port)
}
