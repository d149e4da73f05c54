package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "vasasync",
		Short: "Offline calf marking records synced between nearby devices",
		Long: `vasasync keeps calf marking records of a group in sync between devices
that meet in the field. One device hosts the group, the others join it,
queue entries while offline and hand them over once a link is up.

Settings come from a .env file and VASASYNC_* variables; flags win.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetVersionTemplate(versionInfo())

	root.PersistentFlags().String("env-file", ".env", "file with VASASYNC_* settings")

	root.AddCommand(newHostCmd(), newJoinCmd(), newDistanceCmd())
	return root
}

func versionInfo() string {
	return fmt.Sprintf("vasasync\nVersion:    %s\nBuild Date: %s\nGit Commit: %s\n", Version, BuildDate, GitCommit)
}
