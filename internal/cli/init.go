package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/kevinfinalboss/cmlporter/internal/config"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create example configuration files",
	Long:  "Creates ~/.cmlporter with example export/import connection files and a settings.yaml holding the current settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
}

const exampleConnectionConfig = `; Connection settings, one section per project.
; Keys missing from a project section are taken from DEFAULT.
[DEFAULT]
username = your-username
url = https://%s.example.com
apiv1_key = replace-with-api-v1-key
output_dir = ~/cmlporter-projects
; ca_path = /path/to/ca-bundle.pem
; ssh_key_path = ~/.ssh/id_rsa

; [my-project]
; username = someone-else
`

func initConfig() error {
	dir, err := config.Dir()
	if err != nil {
		log.Error("operation_failed").Err(err).Send()
		return err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		log.Error("operation_failed").Err(err).Send()
		return err
	}

	files := []struct {
		name    string
		content string
		mode    os.FileMode
	}{
		{config.ExportConfigFile, fmt.Sprintf(exampleConnectionConfig, "source"), 0600},
		{config.ImportConfigFile, fmt.Sprintf(exampleConnectionConfig, "destination"), 0600},
	}

	for _, f := range files {
		path := filepath.Join(dir, f.name)
		if _, err := os.Stat(path); err == nil {
			log.Warn("config_already_exists").Str("file", path).Send()
			continue
		}

		if err := os.WriteFile(path, []byte(f.content), f.mode); err != nil {
			log.Error("operation_failed").Err(err).Send()
			return err
		}
		log.Info("config_created").Str("file", path).Send()
	}

	// Settings are written from the loaded configuration so that
	// --language and --log-level given to init are persisted.
	settingsPath := filepath.Join(dir, config.SettingsFileName)
	if _, err := os.Stat(settingsPath); err == nil {
		log.Warn("config_already_exists").Str("file", settingsPath).Send()
	} else {
		if err := config.Save(cfg, settingsPath); err != nil {
			log.Error("operation_failed").Err(err).Send()
			return err
		}
		log.Info("config_created").Str("file", settingsPath).Send()
	}

	log.Info("operation_completed").Str("operation", "init").Send()
	return nil
}
