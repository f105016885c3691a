package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mohammed-shakir/safemap/internal/mapview/platform"
)

var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "mapview",
	Short: "Safety map component demo",
	Long: `Mounts the map component for the platform this binary was built for
(native terminal map by default, web bridge with -tags mapweb) and plays the
screen role with a scene loaded from JSON.`,
	SilenceUsage: true,
}

var platformCmd = &cobra.Command{
	Use:   "platform",
	Short: "Print the renderer this binary resolves to",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintln(cmd.OutOrStdout(), platform.Name)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "mapview %s (%s)\n", Version, platform.Name)
	},
}

func init() {
	rootCmd.AddCommand(newRunCmd(), platformCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
