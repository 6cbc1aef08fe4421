package hass

import (
	"github.com/muurk/doorctl/internal/version"
)

// MQTT payload vocabulary shared with the discovery document. Home
// Assistant matches these strings verbatim.
const (
	payloadAvailable    = "online"
	payloadNotAvailable = "offline"
	payloadLock         = "LOCK"
	payloadUnlock       = "UNLOCK"
	stateLocked         = "LOCKED"
	stateUnlocked       = "UNLOCKED"
	stateOn             = "ON"
	stateOff            = "OFF"

	availabilityMode  = "latest"
	platformLock      = "lock"
	platformBinSensor = "binary_sensor"
	deviceClassDoor   = "door"

	originName       = "doorctl"
	originSupportURL = "https://github.com/muurk/doorctl"
)

// Discovery is the device-level discovery document published on
// connect, per the Home Assistant MQTT integration.
type Discovery struct {
	Device            DiscoveryDevice     `json:"device"`
	Origin            DiscoveryOrigin     `json:"origin"`
	Components        DiscoveryComponents `json:"components"`
	AvailabilityTopic string              `json:"availability_topic"`
	AvailabilityMode  string              `json:"availability_mode"`
	QoS               uint8               `json:"qos"`
}

type DiscoveryDevice struct {
	Identifiers string `json:"identifiers"`
	Name        string `json:"name"`
}

type DiscoveryOrigin struct {
	Name       string `json:"name"`
	SWVersion  string `json:"sw_version"`
	SupportURL string `json:"support_url"`
}

type DiscoveryComponents struct {
	Lock ComponentLock         `json:"lock"`
	Reed ComponentBinarySensor `json:"reed"`
}

type ComponentLock struct {
	UniqueID         string `json:"unique_id"`
	Platform         string `json:"platform"`
	Name             string `json:"name"`
	EnabledByDefault bool   `json:"enabled_by_default"`
	StateTopic       string `json:"state_topic"`
	CommandTopic     string `json:"command_topic"`
	PayloadLock      string `json:"payload_lock"`
	PayloadUnlock    string `json:"payload_unlock"`
	StateLocked      string `json:"state_locked"`
	StateUnlocked    string `json:"state_unlocked"`
	Optimistic       bool   `json:"optimistic"`
	Retain           bool   `json:"retain"`
}

type ComponentBinarySensor struct {
	UniqueID         string `json:"unique_id"`
	DeviceClass      string `json:"device_class"`
	Name             string `json:"name"`
	Platform         string `json:"platform"`
	EnabledByDefault bool   `json:"enabled_by_default"`
	StateTopic       string `json:"state_topic"`
	PayloadOn        string `json:"payload_on"`
	PayloadOff       string `json:"payload_off"`
	Optimistic       bool   `json:"optimistic"`
	Retain           bool   `json:"retain"`
}

// NewDiscovery builds the discovery document for a device.
func NewDiscovery(deviceID, deviceName string, topics Topics) Discovery {
	return Discovery{
		Device: DiscoveryDevice{
			Identifiers: deviceID,
			Name:        deviceName,
		},
		Origin: DiscoveryOrigin{
			Name:       originName,
			SWVersion:  version.Version,
			SupportURL: originSupportURL,
		},
		Components: DiscoveryComponents{
			Lock: ComponentLock{
				UniqueID:         deviceID + "-lock",
				Platform:         platformLock,
				Name:             "Lock",
				EnabledByDefault: true,
				StateTopic:       topics.LockState,
				CommandTopic:     topics.LockCommand,
				PayloadLock:      payloadLock,
				PayloadUnlock:    payloadUnlock,
				StateLocked:      stateLocked,
				StateUnlocked:    stateUnlocked,
			},
			Reed: ComponentBinarySensor{
				UniqueID:         deviceID + "-reed",
				DeviceClass:      deviceClassDoor,
				Name:             "Door",
				Platform:         platformBinSensor,
				EnabledByDefault: true,
				StateTopic:       topics.SensorState,
				PayloadOn:        stateOn,
				PayloadOff:       stateOff,
			},
		},
		AvailabilityTopic: topics.Availability,
		AvailabilityMode:  availabilityMode,
		QoS:               1,
	}
}
