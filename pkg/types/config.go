package types

import "time"

type MigrationConfig struct {
	ProjectName string
	Username    string
	URL         string
	APIKey      string
	OutputDir   string
	CAPath      string
	SSHKeyPath  string
}

type SettingsConfig struct {
	Language string `yaml:"language"`
	LogLevel string `yaml:"log_level"`
}

type TransferConfig struct {
	RsyncPath     string        `yaml:"rsync_path"`
	CDSWCtlPath   string        `yaml:"cdswctl_path"`
	SessionCPU    float64       `yaml:"session_cpu"`
	SessionMemory float64       `yaml:"session_memory_gb"`
	Attempts      int           `yaml:"attempts"`
	RetryDelay    time.Duration `yaml:"retry_delay"`
	MaxRetryDelay time.Duration `yaml:"max_retry_delay"`
	ReadyTimeout  time.Duration `yaml:"ready_timeout"`
	Excludes      []string      `yaml:"excludes"`
}

type ValidationConfig struct {
	MinFreeDiskMB uint64 `yaml:"min_free_disk_mb"`
}

type ReportConfig struct {
	Enabled bool `yaml:"enabled"`
}

type DiscordWebhookConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
	Name    string `yaml:"name"`
	Avatar  string `yaml:"avatar"`
}

type WebhookConfig struct {
	Discord DiscordWebhookConfig `yaml:"discord"`
}

type Config struct {
	Settings   SettingsConfig   `yaml:"settings"`
	Transfer   TransferConfig   `yaml:"transfer"`
	Validation ValidationConfig `yaml:"validation"`
	Report     ReportConfig     `yaml:"report"`
	Webhooks   WebhookConfig    `yaml:"webhooks"`
}
