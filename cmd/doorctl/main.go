// Doorctl is the operator utility for doorctl door-lock appliances.
//
// It discovers devices over mDNS, watches live lock and door state,
// sends lock and unlock commands, and pushes configuration updates over
// the device's WebSocket protocol.
//
// Usage:
//
//	doorctl [command] [flags]
//
// See 'doorctl --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/muurk/doorctl/internal/logging"
	"github.com/muurk/doorctl/internal/version"
)

func main() {
	// Silent unless DOORCTL_LOG_LEVEL asks for diagnostics.
	_ = logging.InitializeFromEnv()
	defer logging.Sync()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "doorctl",
	Short: "doorctl device utility",
	Long: `Operate doorctl door-lock appliances from your terminal.

Devices are addressed directly with --addr, or found on the local
network by device ID with --device (mDNS). Known devices and their
last seen addresses are remembered in the CLI configuration file.`,
	Version: version.Version,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(discoverCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(lockCmd)
	rootCmd.AddCommand(unlockCmd)
	rootCmd.AddCommand(configureCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("doorctl %s\n", version.Full())
	},
}
