// Package commands implements the storeadmin command line.
package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fivetwenty-io/storeadmin/internal/constants"
)

const configDirName = ".storeadmin"

var registerInit sync.Once

// NewRootCommand assembles the storeadmin command tree.
func NewRootCommand(version, commit, date string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "storeadmin",
		Short: "Store administration CLI",
		Long: `A command-line interface for the store administration API.

Manage categories, products, users, inventory, orders, grains, coupons and
promos, and view the dashboard summary.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	registerInit.Do(func() { cobra.OnInitialize(initConfig) })

	flags := rootCmd.PersistentFlags()
	flags.StringP("config", "c", "", "config file (default is $HOME/.storeadmin/config.yml)")
	flags.StringP("api", "a", "", "API endpoint URL")
	flags.StringP("token", "t", "", "authentication token")
	flags.StringP("output", "o", constants.FormatTable, "output format (table, json, yaml)")
	flags.BoolP("verbose", "v", false, "verbose output")
	flags.String("nats-url", "", "publish notifications to this NATS server")
	flags.String("nats-subject", "", "subject for published notifications")

	for _, name := range []string{"config", "api", "token", "output", "verbose"} {
		_ = viper.BindPFlag(name, flags.Lookup(name))
	}

	_ = viper.BindPFlag("nats_url", flags.Lookup("nats-url"))
	_ = viper.BindPFlag("nats_subject", flags.Lookup("nats-subject"))

	rootCmd.AddCommand(NewVersionCommand(version, commit, date))
	rootCmd.AddCommand(NewLoginCommand())
	rootCmd.AddCommand(NewSignupCommand())
	rootCmd.AddCommand(NewLogoutCommand())
	rootCmd.AddCommand(NewConfigCommand())
	rootCmd.AddCommand(NewSummaryCommand())
	rootCmd.AddCommand(NewBatchCommand())

	for _, resource := range []string{"categories", "products", "users", "inventory"} {
		rootCmd.AddCommand(NewResourceCommand(resource))
	}

	rootCmd.AddCommand(NewOrdersCommand())
	rootCmd.AddCommand(NewGrainsCommand())
	rootCmd.AddCommand(NewCouponsCommand())
	rootCmd.AddCommand(NewPromosCommand())

	return rootCmd
}

func initConfig() {
	cfgFile := viper.GetString("config")

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		configDir, err := defaultConfigDir()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		if err := os.MkdirAll(configDir, constants.ConfigDirPerm); err != nil {
			fmt.Fprintf(os.Stderr, "Error creating config directory: %v\n", err)
		}

		viper.AddConfigPath(configDir)
		viper.SetConfigType("yml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("STOREADMIN")
	viper.AutomaticEnv()
	viper.SetDefault("api", constants.DefaultAPIEndpoint)

	if err := viper.ReadInConfig(); err == nil {
		if viper.GetBool("verbose") {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	}
}

func defaultConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(home, configDirName), nil
}
