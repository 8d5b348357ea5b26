// Command astrochart serves the natal chart and coin economy API and can
// compute a single chart from the command line.
//
// @title       Astro Chart API
// @version     1.0
// @description Natal charts with true solar time, premium interpretations and a virtual coin economy.
// @BasePath    /api/v1
package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	_ "time/tzdata"
)

const serviceName = "astro-chart-backend"

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:           "astrochart",
		Short:         "Natal chart service with a virtual coin economy",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return loadEnvFile(envFile, cmd.Flags().Changed("env-file"))
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading configuration")

	root.AddCommand(serveCmd())
	root.AddCommand(chartCmd())
	return root
}

// loadEnvFile loads a dotenv file without overriding variables already set.
// A missing default file is not an error; a missing explicit one is.
func loadEnvFile(path string, explicit bool) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if explicit || !os.IsNotExist(err) {
			return err
		}
		log.Debug().Str("file", path).Msg("no env file")
	}
	return nil
}
