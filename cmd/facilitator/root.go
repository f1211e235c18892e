package main

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	flagHome      = "home"
	flagLogLevel  = "log-level"
	flagLogFormat = "log-format"

	envPrefix = "FACILITATOR"
)

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

func NewRootCmd() *cobra.Command {
	v := newViper()

	rootCmd := &cobra.Command{
		Use:           "facilitator",
		Short:         "Bridge facilitator state engine",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return bindFlags(v, cmd.Flags())
		},
	}

	rootCmd.PersistentFlags().String(flagHome, "", "facilitator home directory (default ~/.facilitator)")
	rootCmd.PersistentFlags().Int(flagLogLevel, 1, "log level, 0 = debug ... 5 = panic")
	rootCmd.PersistentFlags().String(flagLogFormat, "console", "log format: json or console")

	InitRootCmd(rootCmd, v) // add subcommands like `start` and `version`

	return rootCmd
}

// bindFlags exposes every flag to viper under its snake_case config key, so
// `--query-server-port` and FACILITATOR_QUERY_SERVER_PORT set the same value.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	var err error
	flags.VisitAll(func(f *pflag.Flag) {
		if err == nil {
			err = v.BindPFlag(strings.ReplaceAll(f.Name, "-", "_"), f)
		}
	})
	return err
}
