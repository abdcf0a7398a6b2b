package cmd

import (
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var Version = "0.1.0"

var (
	backendURL     string
	timeoutSeconds int
	configFilePath string
	verbose        bool
	vConfig        = viper.New()
)

const configFileFlag = "config"

var rootCmd = &cobra.Command{
	Use:   "devguard",
	Short: "DevGuard scanning client",
	Long: `A command-line client for the DevGuard scanning service: submit an app
export, a pasted OpenAPI spec, or a live URL and review the security score
and the prioritized findings.`,
}

func Execute() error {
	vConfig.SetEnvPrefix("DevGuard")
	vConfig.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	vConfig.AutomaticEnv()

	cobra.OnInitialize(initialize)

	rootCmd.PersistentFlags().StringVar(&configFilePath, configFileFlag, "", "Path to the config file")
	cobra.CheckErr(rootCmd.MarkPersistentFlagFilename(configFileFlag, "yaml", "yml", "json"))
	rootCmd.PersistentFlags().StringVar(&backendURL, "backend-url", "http://localhost:8000", "Base URL of the DevGuard backend")
	rootCmd.PersistentFlags().IntVar(&timeoutSeconds, "timeout", 90, "Backend request timeout in seconds")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable debug logging")

	rootCmd.AddCommand(scanCmd())
	rootCmd.AddCommand(demoCmd())

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("Error executing root command")
		return err
	}
	return nil
}
