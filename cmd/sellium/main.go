package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/FlexpointLLC/sellium-sub001/internal/interfaces/cli/migrate"
	"github.com/FlexpointLLC/sellium-sub001/internal/interfaces/cli/server"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "sellium",
		Short: "Sellium payment core",
		Long:  `Sellium payment core - storefront checkout payments through bKash and Nagad.`,
	}

	rootCmd.AddCommand(
		server.NewCommand(),
		migrate.NewCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
