package discovery

import (
	"context"
	"fmt"

	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"

	"github.com/muurk/doorctl/internal/logging"
	"github.com/muurk/doorctl/internal/version"
)

// Advertise announces the device's web interface over mDNS until ctx
// ends. deviceName may be empty in setup mode; the advertisement still
// goes out so the device can be found and configured.
func Advertise(ctx context.Context, deviceID, deviceName string, port int) error {
	instance := InstancePrefix + deviceID
	txt := []string{
		"id=" + deviceID,
		"name=" + deviceName,
		"ver=" + version.Version,
		"path=/",
	}

	server, err := zeroconf.Register(instance, ServiceType, ServiceDomain, port, txt, nil)
	if err != nil {
		return fmt.Errorf("discovery: register mDNS service: %w", err)
	}
	defer server.Shutdown()

	logging.Info("mDNS advertisement active",
		zap.String("instance", instance),
		zap.Int("port", port),
	)

	<-ctx.Done()
	return ctx.Err()
}
