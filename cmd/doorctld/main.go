// Doorctld is the control daemon for a doorctl door-lock appliance.
//
// It drives the lock actuator and reed switch, serves the embedded web
// interface with its live WebSocket channel, announces itself over
// mDNS, and integrates with Home Assistant over MQTT. Device
// configuration is persisted in a flash image and managed through the
// web interface or the 'doorctl' CLI.
//
// Usage:
//
//	doorctld serve [flags]
//
// See 'doorctld serve --help' for available options.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/muurk/doorctl/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "doorctld",
	Short: "doorctl device daemon",
	Long: `The control daemon for a doorctl door-lock appliance.

Runs the hardware session, the embedded web interface, mDNS
advertisement and the Home Assistant MQTT integration in one process.

Note: for operating a device from your terminal, use the separate
'doorctl' utility.`,
	Version: version.Version,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("doorctld %s\n", version.Full())
	},
}
