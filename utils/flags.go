package utils

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// BindFlags binds every flag of cmd to its viper key so values can come from
// flags, environment, or the config file, with flags taking precedence.
func BindFlags(cmd *cobra.Command, v *viper.Viper, envPrefix string) error {
	var outer error

	bind := func(f *pflag.Flag) {
		if outer != nil {
			return
		}
		if err := v.BindPFlag(f.Name, f); err != nil {
			outer = err
			return
		}
		if envPrefix != "" {
			envName := strings.ToUpper(envPrefix + "_" + strings.ReplaceAll(f.Name, "-", "_"))
			if err := v.BindEnv(f.Name, envName); err != nil {
				outer = err
				return
			}
		}
		if !f.Changed && v.IsSet(f.Name) {
			if err := f.Value.Set(fmt.Sprintf("%v", v.Get(f.Name))); err != nil {
				outer = err
			}
		}
	}

	cmd.PersistentFlags().VisitAll(bind)
	cmd.Flags().VisitAll(bind)
	return outer
}
