// Package discovery provides mDNS advertisement and discovery for
// doorctl devices.
//
// The daemon advertises its web interface as an "_http._tcp" service
// with a "doorctl-<id>" instance name and TXT records carrying the
// device ID and configured name. The operator CLI browses for those
// advertisements to locate devices without knowing their addresses.
//
// # Network Requirements
//
// - Requires multicast support on the network interface
// - Devices must be on the same local network segment
// - Firewall must allow mDNS (UDP port 5353)
package discovery
