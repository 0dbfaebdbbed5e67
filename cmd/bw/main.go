// bw is a terminal watcher for CI builds.
//
// It polls a CI server for build and step state, renders the step list
// with logs inline, and keeps open and focused steps stable across
// refreshes.
//
// Usage:
//
//	bw watch octocat/hello              # pick a build from the list
//	bw watch octocat/hello 42           # watch one build
//	bw watch octocat/hello 42 --focus 3:14-20
//	bw watch                            # resume the last watched repo
//	bw builds octocat/hello --json      # list recent builds and exit
//	bw recent                           # builds watched before, newest first
//	bw version                          # print version and exit
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bmuenzenmeyer/buildwatch/internal/config"
)

var version = "dev" // Will be set during build

var rootCmd = &cobra.Command{
	Use:   "bw",
	Short: "Terminal watcher for CI builds",
	Long: `bw is a terminal UI for watching CI builds as they run.

It polls the server for build and step state, shows step logs inline and
keeps open and focused steps stable across refreshes.`,
	Version: version,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().String("server", "", "CI server base URL, e.g. https://ci.example.com")
	rootCmd.PersistentFlags().String("token", "", "API bearer token")
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is ~/.config/buildwatch/config.yaml)")
	_ = viper.BindPFlag("server", rootCmd.PersistentFlags().Lookup("server"))
	_ = viper.BindPFlag("token", rootCmd.PersistentFlags().Lookup("token"))
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))

	// Register subcommands
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(buildsCmd)
	rootCmd.AddCommand(recentCmd)
	rootCmd.AddCommand(versionCmd)
}

func initConfig() {
	// Set defaults first so they're available even without a config file
	config.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.Dir())
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("BUILDWATCH")
	// Replace dots with underscores for nested keys in env vars,
	// e.g. BUILDWATCH_FOLLOW_AUTO_EXPAND for follow.auto_expand.
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists (ignore error if not found)
	_ = viper.ReadInConfig()
}
