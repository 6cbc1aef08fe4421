package conf

// Snapshot is the redacted JSON view of a record pushed to web sessions.
// Secrets never leave the device.
type Snapshot struct {
	DeviceName string `json:"device_name"`
	WifiSSID   string `json:"wifi_ssid"`
	MQTTHost   string `json:"mqtt_host"`
	MQTTUser   string `json:"mqtt_user"`
	MQTTPort   uint16 `json:"mqtt_port"`
	TLSEnabled bool   `json:"tls_enabled"`
	TLSVerify  bool   `json:"tls_verify"`
}

// Snapshot returns the record with secret fields omitted.
func (r *Record) Snapshot() Snapshot {
	return Snapshot{
		DeviceName: r.DeviceName,
		WifiSSID:   r.WifiSSID,
		MQTTHost:   r.MQTTHost,
		MQTTUser:   r.MQTTUser,
		MQTTPort:   r.MQTTPort,
		TLSEnabled: r.TLSEnabled,
		TLSVerify:  r.TLSVerify,
	}
}

// Update is a partial configuration change, as received from a web
// session or the operator CLI. Absent fields leave the stored value
// untouched.
type Update struct {
	DeviceName *string `json:"device_name,omitempty"`
	WifiSSID   *string `json:"wifi_ssid,omitempty"`
	WifiPass   *string `json:"wifi_pass,omitempty"`
	MQTTHost   *string `json:"mqtt_host,omitempty"`
	MQTTUser   *string `json:"mqtt_user,omitempty"`
	MQTTPass   *string `json:"mqtt_pass,omitempty"`
	MQTTPort   *uint16 `json:"mqtt_port,omitempty"`
	TLSEnabled *bool   `json:"tls_enabled,omitempty"`
	TLSVerify  *bool   `json:"tls_verify,omitempty"`
}
