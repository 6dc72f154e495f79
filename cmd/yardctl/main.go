package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"yardops/cmd/yardctl/commands"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "yardctl",
		Short:         "Yard operations toolkit",
		Long:          "yardctl imports job history and prints schedule and business reports from the command line.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(commands.NewImportCommand())
	rootCmd.AddCommand(commands.NewInsightsCommand())
	rootCmd.AddCommand(commands.NewCalendarCommand())

	if err := rootCmd.Execute(); err != nil {
		log.Printf("command failed: %v", err)
		os.Exit(1)
	}
}
