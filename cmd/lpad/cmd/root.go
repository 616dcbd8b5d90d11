// Package cmd provides the CLI commands for lpad.
package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/aardel/launchpad/internal/config"
	"github.com/aardel/launchpad/internal/launcher"
)

var (
	cfgFile    string
	dataDir    string
	jsonOutput bool
	verbose    bool
)

// rootCmd represents the base command.
var rootCmd = &cobra.Command{
	Use:   "lpad",
	Short: "LaunchPad - open your bookmarks, servers and apps from one place",
	Long: `LaunchPad (lpad) keeps your bookmarks, SSH hosts, apps and passwords in one
local catalog and opens them on whichever network you are on.

Get started:
  lpad init                          Create the master password
  lpad group add Homelab             Create a group
  lpad item add-ssh nas -g Homelab --local 192.168.1.10 --tailscale 100.64.0.10
  lpad launch nas --profile tailscale

Examples:
  lpad item list
  lpad resolve grafana --probe
  lpad launch-group Homelab --auto-route
  lpad serve`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		Error("%s", launcher.Describe(err))
		if isVerbose() {
			fmt.Fprintln(os.Stderr, Dim("%v", err))
		}
	}
	return err
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.launchpad/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "data directory (default ~/.launchpad)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")

	viper.BindPFlag("data_dir", rootCmd.PersistentFlags().Lookup("data-dir"))
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(config.DefaultDataDir())
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix(config.EnvPrefix)
	viper.AutomaticEnv()

	// Load config file if it exists.
	_ = viper.ReadInConfig()
}

// configPath returns the config file in use, or where one would be read from.
func configPath() string {
	if used := viper.ConfigFileUsed(); used != "" {
		return used
	}
	if cfgFile != "" {
		return cfgFile
	}
	return filepath.Join(config.DefaultDataDir(), "config.yaml")
}

// isVerbose returns whether verbose mode is enabled.
func isVerbose() bool {
	if verbose {
		return true
	}
	return viper.GetBool("verbose")
}
