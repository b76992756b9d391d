// Package cli provides the command-line interface for loft-nav.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/loftdrive/loft-nav/internal/config"
	"github.com/loftdrive/loft-nav/internal/logging"
)

var (
	// Global flags
	cfgFile  string
	apiKey   string
	platform string
	verbose  bool

	// Global logger
	logger *logging.Logger

	// Global context for signal handling
	rootContext context.Context
	cancelFunc  context.CancelFunc
)

// Version information - set by main package at startup.
var (
	Version   = "v0.3.0-dev"
	BuildTime = "unknown"
)

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "loft-nav",
		Short: "Loftdrive navigation engine - browse projects, folders and files",
		Long: `loft-nav ` + Version + ` - Built: ` + BuildTime + `
Client-side navigation engine for the Loftdrive platform.

Browses the remote hierarchy of projects, folders and files with lazy
loading and per-folder pagination, and resolves slash-delimited
addresses like /Alpha/Images into breadcrumb trails.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger = logging.NewLogger("cli")
			if verbose {
				logging.SetGlobalLevel(zerolog.DebugLevel)
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "Loftdrive API key (overrides config and env)")
	rootCmd.PersistentFlags().StringVar(&platform, "platform-url", "", "Loftdrive platform URL (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output (shows debug messages)")

	rootCmd.Version = Version + " (" + BuildTime + ")"

	rootCmd.AddCommand(newProjectsCmd())
	rootCmd.AddCommand(newResolveCmd())
	rootCmd.AddCommand(newLsCmd())
	rootCmd.AddCommand(newBrowseCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

// Execute runs the root command with signal-aware context cancellation.
func Execute() error {
	rootContext, cancelFunc = context.WithCancel(context.Background())
	defer cancelFunc()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancelFunc()
	}()

	return NewRootCmd().Execute()
}

// GetContext returns the signal-aware root context.
func GetContext() context.Context {
	if rootContext == nil {
		return context.Background()
	}
	return rootContext
}

// GetLogger returns the CLI logger.
func GetLogger() *logging.Logger {
	if logger == nil {
		logger = logging.NewLogger("cli")
	}
	return logger
}

// loadConfig loads the API config and applies command-line overrides.
func loadConfig() (*config.APIConfig, error) {
	cfg, err := config.LoadAPIConfig(cfgFile)
	if err != nil {
		return nil, err
	}
	if apiKey != "" {
		cfg.APIKey = apiKey
	}
	if platform != "" {
		cfg.PlatformURL = platform
	}
	return cfg, nil
}
