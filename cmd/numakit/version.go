package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// Set at build time with -ldflags "-X main.version=...".
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runVersion()
	},
}

func init() {
	rootCmd.Version = version
	rootCmd.SetVersionTemplate(versionString())
	rootCmd.AddCommand(versionCmd)
}

// versionString is printed by both "numakit version" and "numakit --version".
func versionString() string {
	return fmt.Sprintf("numakit %s\n  commit: %s\n  built: %s\n  go: %s\n",
		version, commit, date, runtime.Version())
}

func runVersion() error {
	_, err := fmt.Print(versionString())
	return err
}
