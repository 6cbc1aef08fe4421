package hass

// Topic layout under the device prefix. The command topic keeps its
// trailing slash; Home Assistant publishes to it exactly as written in
// the discovery payload, so the two must match byte for byte.
const (
	topicPrefix = "doorctl/"

	suffixAvailability = "/avail"
	suffixLockCommand  = "/lock/cmd/"
	suffixLockState    = "/lock/state"
	suffixSensorState  = "/reed/state"

	discoveryPrefix = "homeassistant/device/"
	discoverySuffix = "/config"
)

// Topics holds the full topic strings for one device.
type Topics struct {
	Availability string
	LockCommand  string
	LockState    string
	SensorState  string
	Discovery    string
}

// TopicsFor builds the topic set for a device ID (12 lowercase hex
// characters derived from the MAC address).
func TopicsFor(deviceID string) Topics {
	return Topics{
		Availability: topicPrefix + deviceID + suffixAvailability,
		LockCommand:  topicPrefix + deviceID + suffixLockCommand,
		LockState:    topicPrefix + deviceID + suffixLockState,
		SensorState:  topicPrefix + deviceID + suffixSensorState,
		Discovery:    discoveryPrefix + deviceID + discoverySuffix,
	}
}
