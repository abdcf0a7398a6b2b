package cmd

import (
	"time"

	"github.com/devguard-labs/devguard/internal/backend"
	"github.com/devguard-labs/devguard/internal/session"
	"github.com/devguard-labs/devguard/internal/store"
	"github.com/devguard-labs/devguard/utils"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func initialize() {
	if configFilePath != "" {
		vConfig.SetConfigFile(configFilePath)
		cobra.CheckErr(vConfig.ReadInConfig())
		log.Info().Str("config", configFilePath).Msg("Loaded configuration file")
	}

	envPrefix := ""
	cobra.CheckErr(utils.BindFlags(rootCmd, vConfig, envPrefix))

	logLevel := zerolog.InfoLevel
	if verbose {
		logLevel = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(logLevel)
	log.Logger = log.Logger.Level(logLevel)
}

// newSession builds the session controller for one command invocation. The
// store lives in memory for exactly that long; the cleanup closes it.
func newSession() (*session.Controller, func(), error) {
	st, err := store.New()
	if err != nil {
		return nil, nil, err
	}
	st.SetBackendURL(backendURL)

	client := backend.New(st.BackendURL(), time.Duration(timeoutSeconds)*time.Second)
	ctrl := session.New(st, client)

	return ctrl, func() { st.Close() }, nil
}
