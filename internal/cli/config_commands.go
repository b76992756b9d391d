package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/loftdrive/loft-nav/internal/config"
)

// newConfigCmd creates the 'config' command group.
func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or update the stored configuration",
	}
	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigSetCmd())
	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			fmt.Printf("platform_url:            %s\n", cfg.PlatformURL)
			fmt.Printf("api_key:                 %s\n", maskKey(cfg.APIKey))
			fmt.Printf("page_size:               %d\n", cfg.Browser.PageSize)
			fmt.Printf("request_timeout_seconds: %d\n", cfg.Browser.RequestTimeoutSeconds)

			if err := cfg.Validate(); err != nil {
				fmt.Printf("\nwarning: %v\n", err)
			}
			return nil
		},
	}
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value and save it",
		Long: `Set a configuration value and write it to the apiconfig file.

Keys:
  platform_url             Loftdrive platform base URL
  api_key                  API token
  page_size                File page size (1-200)
  request_timeout_seconds  Per-request timeout (1-600)`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadAPIConfig(cfgFile)
			if err != nil {
				return err
			}

			key, value := args[0], args[1]
			switch key {
			case "platform_url":
				cfg.PlatformURL = value
			case "api_key":
				cfg.APIKey = value
			case "page_size":
				n, err := strconv.Atoi(value)
				if err != nil {
					return fmt.Errorf("page_size must be an integer: %w", err)
				}
				cfg.Browser.PageSize = n
			case "request_timeout_seconds":
				n, err := strconv.Atoi(value)
				if err != nil {
					return fmt.Errorf("request_timeout_seconds must be an integer: %w", err)
				}
				cfg.Browser.RequestTimeoutSeconds = n
			default:
				return fmt.Errorf("unknown config key %q", key)
			}

			if err := config.SaveAPIConfig(cfg, cfgFile); err != nil {
				return err
			}
			GetLogger().Info().Str("key", key).Msg("Configuration updated")
			return nil
		},
	}
}

// maskKey hides all but the last four characters of a token.
func maskKey(key string) string {
	if key == "" {
		return "(not set)"
	}
	if len(key) <= 4 {
		return "****"
	}
	return "****" + key[len(key)-4:]
}
