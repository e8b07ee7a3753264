package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/kevinfinalboss/cmlporter/pkg/types"
	"gopkg.in/yaml.v3"
)

const (
	AppDirName       = ".cmlporter"
	SettingsFileName = "settings.yaml"
)

// Dir returns the user-scoped configuration directory.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, AppDirName), nil
}

func Load(configFile string) (*types.Config, error) {
	if configFile == "" {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		configFile = filepath.Join(dir, SettingsFileName)
	}

	data, err := os.ReadFile(configFile)
	if err != nil {
		if os.IsNotExist(err) {
			return GetDefaultConfig(), nil
		}
		return nil, err
	}

	var config types.Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, err
	}

	applyDefaults(&config)
	return &config, nil
}

func GetDefaultConfig() *types.Config {
	config := &types.Config{
		Settings: types.SettingsConfig{
			Language: "en-US",
			LogLevel: "info",
		},
		Transfer: types.TransferConfig{
			RsyncPath:     "rsync",
			CDSWCtlPath:   "cdswctl",
			SessionCPU:    1,
			SessionMemory: 0.5,
			Attempts:      3,
			RetryDelay:    5 * time.Second,
			MaxRetryDelay: time.Minute,
			ReadyTimeout:  2 * time.Minute,
			Excludes:      defaultExcludes(),
		},
		Validation: types.ValidationConfig{
			MinFreeDiskMB: 1024,
		},
		Report: types.ReportConfig{
			Enabled: true,
		},
		Webhooks: types.WebhookConfig{
			Discord: types.DiscordWebhookConfig{
				Enabled: false,
				Name:    "cmlporter",
			},
		},
	}

	return config
}

func defaultExcludes() []string {
	return []string{".local", ".cache", ".ipython", ".npm", ".Trash"}
}

func applyDefaults(config *types.Config) {
	if config.Settings.Language == "" {
		config.Settings.Language = "en-US"
	}
	if config.Settings.LogLevel == "" {
		config.Settings.LogLevel = "info"
	}

	if config.Transfer.RsyncPath == "" {
		config.Transfer.RsyncPath = "rsync"
	}
	if config.Transfer.CDSWCtlPath == "" {
		config.Transfer.CDSWCtlPath = "cdswctl"
	}
	if config.Transfer.SessionCPU <= 0 {
		config.Transfer.SessionCPU = 1
	}
	if config.Transfer.SessionMemory <= 0 {
		config.Transfer.SessionMemory = 0.5
	}
	if config.Transfer.Attempts <= 0 {
		config.Transfer.Attempts = 3
	}
	if config.Transfer.RetryDelay <= 0 {
		config.Transfer.RetryDelay = 5 * time.Second
	}
	if config.Transfer.MaxRetryDelay <= 0 {
		config.Transfer.MaxRetryDelay = time.Minute
	}
	if config.Transfer.ReadyTimeout <= 0 {
		config.Transfer.ReadyTimeout = 2 * time.Minute
	}
	if config.Transfer.Excludes == nil {
		config.Transfer.Excludes = defaultExcludes()
	}

	if config.Validation.MinFreeDiskMB == 0 {
		config.Validation.MinFreeDiskMB = 1024
	}

	if config.Webhooks.Discord.Name == "" {
		config.Webhooks.Discord.Name = "cmlporter"
	}
}

func Save(config *types.Config, configFile string) error {
	if configFile == "" {
		dir, err := Dir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
		configFile = filepath.Join(dir, SettingsFileName)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return err
	}

	return os.WriteFile(configFile, data, 0644)
}
