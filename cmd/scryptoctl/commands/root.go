package commands

import (
	"os"

	"github.com/spf13/cobra"
	flag "github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/reyzin/scrypto/log"
)

// Config mirrors the teacher's cmd/*-level config structs: flags are
// bound once on RootCmd and read back through viper so a config file
// or environment variables can supply the same values.
type Config struct {
	DBPath      string `mapstructure:"dbpath"`
	KeyLength   int    `mapstructure:"keylength"`
	ValueLength int    `mapstructure:"valuelength"`
	HashFunc    string `mapstructure:"hash"`
	LogLevel    string `mapstructure:"loglevel"`
}

var cfg Config

// RootCmd is the entry point cobra command.
var RootCmd = &cobra.Command{
	Use:   "scryptoctl",
	Short: "Operate a batched authenticated AVL dictionary",
}

func init() {
	RootCmd.CompletionOptions.DisableDefaultCmd = true

	var flags *flag.FlagSet = RootCmd.PersistentFlags()
	flags.String("dbpath", "./scrypto-data", "directory holding the Badger-backed versioned store")
	flags.Int("keylength", 20, "fixed key length in bytes")
	flags.Int("valuelength", 8, "fixed value length in bytes")
	flags.String("hash", "blake3", "label hash function: blake3 or sha256")
	flags.String("loglevel", "info", "log level: debug, info, warn, error")

	_ = viper.BindPFlag("dbpath", flags.Lookup("dbpath"))
	_ = viper.BindPFlag("keylength", flags.Lookup("keylength"))
	_ = viper.BindPFlag("valuelength", flags.Lookup("valuelength"))
	_ = viper.BindPFlag("hash", flags.Lookup("hash"))
	_ = viper.BindPFlag("loglevel", flags.Lookup("loglevel"))

	viper.SetConfigName("scryptoctl")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.SetEnvPrefix("SCRYPTOCTL")
	viper.AutomaticEnv()

	cobra.OnInitialize(func() {
		if err := viper.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				log.Warnf("could not read config file: %v", err)
			}
		}
		if err := viper.Unmarshal(&cfg); err != nil {
			log.Fatalf("could not parse config: %v", err)
		}
		log.Init(cfg.LogLevel, "stderr")
	})
}

// Execute runs RootCmd, exiting the process on error.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
