package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/storeadmin/internal/constants"
)

// Config represents the CLI configuration.
type Config struct {
	API            string     `json:"api,omitempty"              yaml:"api,omitempty"`
	Token          string     `json:"token,omitempty"            yaml:"token,omitempty"`
	TokenExpiresAt *time.Time `json:"token_expires_at,omitempty" yaml:"token_expires_at,omitempty"`
	Username       string     `json:"username,omitempty"         yaml:"username,omitempty"`
	Output         string     `json:"output,omitempty"           yaml:"output,omitempty"`
	NATSURL        string     `json:"nats_url,omitempty"         yaml:"nats_url,omitempty"`
	NATSSubject    string     `json:"nats_subject,omitempty"     yaml:"nats_subject,omitempty"`
	RetryMax       int        `json:"retry_max,omitempty"        yaml:"retry_max,omitempty"`
	RateLimit      float64    `json:"rate_limit,omitempty"       yaml:"rate_limit,omitempty"`
	Timezone       string     `json:"timezone,omitempty"         yaml:"timezone,omitempty"`
}

// NewConfigCommand creates the config command group.
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration",
		Long:  "Show and change the storeadmin CLI configuration",
	}

	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigSetCommand())
	cmd.AddCommand(newConfigUnsetCommand())

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Long:  "Display the current CLI configuration. The token is masked in table output.",
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig()

			switch format := outputFormat(); format {
			case constants.FormatJSON, constants.FormatYAML:
				return renderValue(cmd.OutOrStdout(), format, config)
			default:
				return displayConfigTable(cmd.OutOrStdout(), config)
			}
		},
	}
}

func newConfigSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Set a configuration value",
		Long:  "Set a configuration value. Keys: api, token, username, output, nats_url, nats_subject, retry_max, rate_limit, timezone",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig()

			err := setConfigValue(config, args[0], args[1])
			if err != nil {
				return err
			}

			err = saveConfigStruct(config)
			if err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Set %s\n", args[0])

			return nil
		},
	}
}

func newConfigUnsetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "unset KEY",
		Short: "Unset a configuration value",
		Long:  "Remove a configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig()

			err := setConfigValue(config, args[0], "")
			if err != nil {
				return err
			}

			err = saveConfigStruct(config)
			if err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Unset %s\n", args[0])

			return nil
		},
	}
}

// loadConfig reads the effective configuration from viper, so flags and
// STOREADMIN_* environment variables override the config file.
func loadConfig() *Config {
	config := &Config{
		API:         viper.GetString("api"),
		Token:       viper.GetString("token"),
		Username:    viper.GetString("username"),
		Output:      viper.GetString("output"),
		NATSURL:     viper.GetString("nats_url"),
		NATSSubject: viper.GetString("nats_subject"),
		RetryMax:    viper.GetInt("retry_max"),
		RateLimit:   viper.GetFloat64("rate_limit"),
		Timezone:    viper.GetString("timezone"),
	}

	if expiresAt := viper.GetTime("token_expires_at"); !expiresAt.IsZero() {
		config.TokenExpiresAt = &expiresAt
	}

	return config
}

// setConfigValue sets key on config. An empty value clears it.
func setConfigValue(config *Config, key, value string) error {
	switch key {
	case "api":
		config.API = value
	case "token":
		config.Token = value
		config.TokenExpiresAt = nil
	case "username":
		config.Username = value
	case "output":
		if value != "" && !validOutputFormat(value) {
			return fmt.Errorf("%w: %s", constants.ErrInvalidOutputFormat, value)
		}

		config.Output = value
	case "nats_url":
		config.NATSURL = value
	case "nats_subject":
		config.NATSSubject = value
	case "retry_max":
		n, err := parseOptionalInt(value)
		if err != nil {
			return fmt.Errorf("invalid retry_max: %w", err)
		}

		config.RetryMax = n
	case "rate_limit":
		f, err := parseOptionalFloat(value)
		if err != nil {
			return fmt.Errorf("invalid rate_limit: %w", err)
		}

		config.RateLimit = f
	case "timezone":
		if value != "" {
			if _, err := time.LoadLocation(value); err != nil {
				return fmt.Errorf("invalid timezone: %w", err)
			}
		}

		config.Timezone = value
	default:
		return fmt.Errorf("%w: %s", constants.ErrUnknownConfigKey, key)
	}

	return nil
}

func parseOptionalInt(value string) (int, error) {
	if value == "" {
		return 0, nil
	}

	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("parsing %q: %w", value, err)
	}

	return n, nil
}

func parseOptionalFloat(value string) (float64, error) {
	if value == "" {
		return 0, nil
	}

	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing %q: %w", value, err)
	}

	return f, nil
}

func configFilePath() (string, error) {
	if configFile := viper.ConfigFileUsed(); configFile != "" {
		return configFile, nil
	}

	configDir, err := defaultConfigDir()
	if err != nil {
		return "", err
	}

	err = os.MkdirAll(configDir, constants.ConfigDirPerm)
	if err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return filepath.Join(configDir, "config.yml"), nil
}

// saveConfigStruct writes config to the config file and updates viper so
// later reads in the same process see the change.
func saveConfigStruct(config *Config) error {
	configFile, err := configFilePath()
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	err = os.WriteFile(configFile, data, constants.ConfigFilePerm)
	if err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	viper.Set("api", config.API)
	viper.Set("token", config.Token)
	viper.Set("username", config.Username)
	viper.Set("output", config.Output)
	viper.Set("nats_url", config.NATSURL)
	viper.Set("nats_subject", config.NATSSubject)
	viper.Set("retry_max", config.RetryMax)
	viper.Set("rate_limit", config.RateLimit)
	viper.Set("timezone", config.Timezone)

	if config.TokenExpiresAt != nil {
		viper.Set("token_expires_at", *config.TokenExpiresAt)
	} else {
		viper.Set("token_expires_at", time.Time{})
	}

	return nil
}

func displayConfigTable(w io.Writer, config *Config) error {
	table := tablewriter.NewWriter(w)
	table.Header("Property", "Value")

	token := ""
	if config.Token != "" {
		token = constants.MaskedSecret
	}

	expires := ""
	if config.TokenExpiresAt != nil {
		expires = config.TokenExpiresAt.Format(time.RFC3339)
	}

	rows := [][]string{
		{"API", config.API},
		{"Token", token},
		{"Token Expires", expires},
		{"Username", config.Username},
		{"Output", config.Output},
		{"NATS URL", config.NATSURL},
		{"NATS Subject", config.NATSSubject},
		{"Retry Max", strconv.Itoa(config.RetryMax)},
		{"Rate Limit", strconv.FormatFloat(config.RateLimit, 'f', -1, 64)},
		{"Timezone", config.Timezone},
	}

	for _, row := range rows {
		_ = table.Append(row)
	}

	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}
