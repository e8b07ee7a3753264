package logger

import (
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const localesDir = "locales"

type LocaleMessages struct {
	Messages map[string]string `yaml:"messages"`
}

// loadLocaleMessages reads ~/.cmlporter/locales/<language>.yaml. Keys the
// file does not define fall back to the embedded catalogue.
func loadLocaleMessages(language string) (map[string]string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return getEmbeddedMessages(language), nil
	}

	localeFile := filepath.Join(home, ".cmlporter", localesDir, language+".yaml")
	data, err := os.ReadFile(localeFile)
	if err != nil {
		return getEmbeddedMessages(language), nil
	}

	var locale LocaleMessages
	if err := yaml.Unmarshal(data, &locale); err != nil {
		return getEmbeddedMessages(language), nil
	}

	messages := getEmbeddedMessages(language)
	for k, v := range locale.Messages {
		messages[k] = v
	}
	return messages, nil
}

func getEmbeddedMessages(language string) map[string]string {
	switch strings.ToLower(language) {
	case "pt-br":
		return map[string]string{
			"app_started":            "cmlporter iniciado",
			"config_invalid":         "Configuração de conexão inválida",
			"config_created":         "Arquivo de configuração criado",
			"config_already_exists":  "Arquivo de configuração já existe",
			"export_started":         "Exportação iniciada",
			"import_started":         "Importação iniciada",
			"identity_resolved":      "Identidade do projeto resolvida",
			"project_not_found":      "Projeto não encontrado",
			"validation_failed":      "Validação falhou",
			"validation_completed":   "Validações concluídas",
			"session_opened":         "Sessão aberta",
			"session_closed":         "Sessão encerrada",
			"transfer_started":       "Transferência iniciada",
			"transfer_completed":     "Transferência concluída",
			"project_already_exists": "Projeto já existe no destino",
			"project_created":        "Projeto criado",
			"legacy_engine_patched":  "Projeto convertido para legacy engine",
			"catalog_written":        "Catálogo de runtimes gravado",
			"catalog_empty":          "Nenhum runtime encontrado",
			"operation_aborted":      "Operação abortada",
			"operation_completed":    "Operação concluída",
			"operation_failed":       "Operação falhou",
		}
	default:
		return map[string]string{
			"app_started":               "cmlporter started",
			"config_invalid":            "Connection configuration is invalid",
			"config_created":            "Configuration file created",
			"config_already_exists":     "Configuration file already exists",
			"log_file_unavailable":      "Cannot write the project log file, logging to console only",
			"api_request_completed":     "API request completed",
			"export_started":            "Export started",
			"import_started":            "Import started",
			"phase_entered":             "Entering phase",
			"identity_lookup":           "Looking up project identity",
			"identity_resolved":         "Project identity resolved",
			"project_not_found":         "Project not found for user",
			"validation_started":        "Running validations",
			"validation_passed":         "Validation passed",
			"validation_failed":         "Validation failed",
			"validation_completed":      "All validations passed",
			"session_starting":          "Starting transfer session",
			"session_login_failed":      "Session login failed",
			"session_not_ready":         "Session endpoint not ready yet",
			"session_opened":            "Transfer session opened",
			"session_close_failed":      "Failed to close transfer session",
			"session_closed":            "Transfer session closed",
			"transfer_started":          "File transfer started",
			"transfer_attempt_failed":   "File transfer attempt failed",
			"transfer_completed":        "File transfer completed",
			"artifacts_collected":       "Related artifacts collected",
			"metadata_written":          "Project metadata written",
			"project_already_exists":    "Project already exists in the destination",
			"project_creating":          "Creating project",
			"project_created":           "Project created",
			"legacy_engine_patched":     "Project converted to legacy engine",
			"artifact_exists":           "Artifact already exists, leaving it untouched",
			"artifact_skipped":          "Artifact skipped",
			"artifact_create_failed":    "Failed to create artifact",
			"artifact_created":          "Artifact created",
			"catalog_unavailable":       "Runtime catalog unavailable, artifacts keep their engine images",
			"catalog_first_page_failed": "Runtime listing failed on the first page",
			"catalog_page_missing":      "Runtime listing returned no page",
			"catalog_token_repeated":    "Runtime listing handed out a page token twice",
			"catalog_page_fetched":      "Runtime page fetched",
			"catalog_empty":             "No runtimes found, nothing written",
			"catalog_discarded":         "Runtime listing incomplete, nothing written",
			"catalog_write_failed":      "Failed to write runtime catalog",
			"catalog_written":           "Runtime catalog written",
			"catalog_outcome":           "Runtime catalog run finished",
			"html_report_generated":     "HTML report generated",
			"discord_webhook_sent":      "Discord notification sent",
			"observer_failed":           "Operation notification failed",
			"operation_aborted":         "Operation aborted",
			"operation_completed":       "Operation completed",
			"operation_summary":         "Operation summary",
			"operation_failed":          "Operation failed",
		}
	}
}
