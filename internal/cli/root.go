package cli

import (
	"fmt"

	"github.com/kevinfinalboss/cmlporter/internal/config"
	"github.com/kevinfinalboss/cmlporter/internal/logger"
	"github.com/kevinfinalboss/cmlporter/internal/migration"
	"github.com/kevinfinalboss/cmlporter/pkg/types"
	"github.com/spf13/cobra"
)

var (
	settingsFile string
	language     string
	logLevel     string
	log          *logger.Logger
	cfg          *types.Config
	version      = "dev"
)

var rootCmd = &cobra.Command{
	Use:   "cmlporter",
	Short: "Moves CML projects between installations",
	Long: `cmlporter exports a project (files, metadata, jobs, models and applications)
from a source CML installation to local disk, and imports it from local disk
into a destination installation.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error

		cfg, err = config.Load(settingsFile)
		if err != nil {
			return migration.NewConfigError(fmt.Errorf("failed to load settings: %w", err))
		}

		if language != "" {
			cfg.Settings.Language = language
		}
		if logLevel != "" {
			cfg.Settings.LogLevel = logLevel
		}

		log = logger.NewWithConfig(cfg)

		log.Debug("app_started").
			Str("version", version).
			Str("language", cfg.Settings.Language).
			Send()

		return nil
	},
}

// Execute runs the command tree. The returned error keeps its migration
// kind so the caller can map it to an exit status.
func Execute(v string) error {
	version = v
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&settingsFile, "settings", "", "settings file (default: ~/.cmlporter/settings.yaml)")
	rootCmd.PersistentFlags().StringVar(&language, "language", "", "log language (en-US, pt-BR)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	addSubcommands()
}

func addSubcommands() {
	rootCmd.AddCommand(projectCmd)
	rootCmd.AddCommand(helpersCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(statusCmd)
}
