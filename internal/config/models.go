package config

import "time"

// Registry is the operator-side configuration file. It stores
// user-defined metadata for known doorctl devices and CLI preferences;
// the devices themselves keep their own configuration on flash.
type Registry struct {
	Version     int                `yaml:"version"`
	Devices     map[string]*Device `yaml:"devices,omitempty"` // keyed by device ID
	Preferences *Preferences       `yaml:"preferences,omitempty"`
}

// Device is user-side metadata for one doorctl device, keyed by its
// 12-hex-digit device ID in the Registry.
type Device struct {
	Nickname string    `yaml:"nickname,omitempty"`  // user-friendly name
	LastIP   string    `yaml:"last_ip,omitempty"`   // last known IP address
	LastPort int       `yaml:"last_port,omitempty"` // last known web port
	LastSeen time.Time `yaml:"last_seen,omitempty"` // last discovery/connection time
}

// Preferences are application-wide CLI preferences.
type Preferences struct {
	AutoDiscover    bool `yaml:"auto_discover"`    // run mDNS discovery when no address is given
	DiscoverTimeout int  `yaml:"discover_timeout"` // mDNS discovery timeout in seconds
}

// NewRegistry creates a Registry with default values.
func NewRegistry() *Registry {
	return &Registry{
		Version: 1,
		Devices: make(map[string]*Device),
		Preferences: &Preferences{
			AutoDiscover:    true,
			DiscoverTimeout: 10,
		},
	}
}

// GetDevice retrieves device metadata by ID. Returns nil if the device
// is not in the registry.
func (r *Registry) GetDevice(id string) *Device {
	return r.Devices[id]
}

// EnsureDevice returns the entry for id, creating it if needed.
func (r *Registry) EnsureDevice(id string) *Device {
	if r.Devices == nil {
		r.Devices = make(map[string]*Device)
	}

	if device, exists := r.Devices[id]; exists {
		return device
	}

	device := &Device{}
	r.Devices[id] = device
	return device
}

// UpdateDeviceLastSeen records where and when a device was last reached.
func (r *Registry) UpdateDeviceLastSeen(id, ip string, port int) {
	device := r.EnsureDevice(id)
	device.LastSeen = time.Now()
	device.LastIP = ip
	device.LastPort = port
}

// SetDeviceNickname sets a user-friendly nickname for a device.
func (r *Registry) SetDeviceNickname(id, nickname string) {
	device := r.EnsureDevice(id)
	device.Nickname = nickname
}
