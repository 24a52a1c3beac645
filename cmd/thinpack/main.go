// thinpack packs, unpacks and inspects device-mapper thin-provisioning
// metadata. Only blocks that checksum as metadata are carried in a pack
// stream; the rest of the device is reconstructed as zeroes.
package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dmtools/thinpack/internal/pack"
)

var rootCmd = &cobra.Command{
	Use:           "thinpack",
	Short:         "pack, unpack and inspect thin-provisioning metadata",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return setup(cmd)
	}

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default ./thinpack.yaml)")
	pf.IntP("jobs", "j", 0, "number of workers (0 = one per CPU)")
	pf.Int64("rate-limit", 0, "device read limit in bytes per second (0 = unlimited)")
	pf.BoolP("debug", "d", false, "enable debug logging")

	_ = viper.BindPFlag("jobs", pf.Lookup("jobs"))
	_ = viper.BindPFlag("rate-limit", pf.Lookup("rate-limit"))
	_ = viper.BindPFlag("debug", pf.Lookup("debug"))
}

func setup(cmd *cobra.Command) error {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if cfg, _ := cmd.Flags().GetString("config"); cfg != "" {
		viper.SetConfigFile(cfg)
	} else {
		viper.SetConfigName("thinpack")
		viper.AddConfigPath(".")
	}
	viper.SetEnvPrefix("thinpack")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return err
		}
	}

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if viper.GetBool("debug") {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	return nil
}

func options() pack.Options {
	return pack.Options{
		Jobs:      viper.GetInt("jobs"),
		RateLimit: viper.GetInt64("rate-limit"),
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("thinpack failed")
		os.Exit(1)
	}
}
