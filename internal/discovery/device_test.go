package discovery

import (
	"testing"
)

func TestDevice_String(t *testing.T) {
	device := &Device{
		ID:       "a1b2c3d4e5f6",
		Name:     "Front Door",
		Instance: "doorctl-a1b2c3d4e5f6",
		IP:       "192.168.4.16",
		Port:     80,
	}

	expected := "doorctl a1b2c3d4e5f6 Front Door at 192.168.4.16:80"
	if device.String() != expected {
		t.Errorf("Device.String() = %v, want %v", device.String(), expected)
	}

	device.Name = ""
	expected = "doorctl a1b2c3d4e5f6 (unconfigured) at 192.168.4.16:80"
	if device.String() != expected {
		t.Errorf("Device.String() = %v, want %v", device.String(), expected)
	}
}

func TestDevice_URLs(t *testing.T) {
	tests := []struct {
		name     string
		device   *Device
		wantBase string
		wantWS   string
	}{
		{
			name:     "standard HTTP port",
			device:   &Device{IP: "192.168.4.16", Port: 80},
			wantBase: "http://192.168.4.16:80",
			wantWS:   "ws://192.168.4.16:80/ws",
		},
		{
			name:     "custom port",
			device:   &Device{IP: "10.0.0.5", Port: 8080},
			wantBase: "http://10.0.0.5:8080",
			wantWS:   "ws://10.0.0.5:8080/ws",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.device.BaseURL(); got != tt.wantBase {
				t.Errorf("BaseURL() = %v, want %v", got, tt.wantBase)
			}
			if got := tt.device.WSURL(); got != tt.wantWS {
				t.Errorf("WSURL() = %v, want %v", got, tt.wantWS)
			}
		})
	}
}
