package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/kevinfinalboss/cmlporter/internal/logger"
	"github.com/kevinfinalboss/cmlporter/pkg/types"
)

const (
	colorSuccess = 0x00ff00
	colorFailure = 0xff0000
	colorWarning = 0xffaa00
)

type DiscordWebhook struct {
	url    string
	name   string
	avatar string
	logger *logger.Logger
	client *http.Client
}

type DiscordMessage struct {
	Username  string         `json:"username,omitempty"`
	AvatarURL string         `json:"avatar_url,omitempty"`
	Content   string         `json:"content,omitempty"`
	Embeds    []DiscordEmbed `json:"embeds,omitempty"`
}

type DiscordEmbed struct {
	Title       string              `json:"title,omitempty"`
	Description string              `json:"description,omitempty"`
	Color       int                 `json:"color,omitempty"`
	Fields      []DiscordEmbedField `json:"fields,omitempty"`
	Footer      *DiscordEmbedFooter `json:"footer,omitempty"`
	Timestamp   string              `json:"timestamp,omitempty"`
}

type DiscordEmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

type DiscordEmbedFooter struct {
	Text    string `json:"text"`
	IconURL string `json:"icon_url,omitempty"`
}

func NewDiscordWebhook(config types.DiscordWebhookConfig, logger *logger.Logger) *DiscordWebhook {
	name := config.Name
	if name == "" {
		name = "cmlporter"
	}

	return &DiscordWebhook{
		url:    config.URL,
		name:   name,
		avatar: config.Avatar,
		logger: logger,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// OperationFinished posts the outcome of an export or import.
func (d *DiscordWebhook) OperationFinished(ctx context.Context, summary *types.OperationSummary) error {
	return d.send(ctx, d.buildMessage(summary))
}

func (d *DiscordWebhook) buildMessage(summary *types.OperationSummary) DiscordMessage {
	title := fmt.Sprintf("Project %s %s completed", summary.Project, summary.Operation)
	color := colorSuccess
	description := "All phases finished"

	created, skipped := summary.CountArtifacts()
	if created+skipped < len(summary.Artifacts) {
		color = colorWarning
	}

	if !summary.Succeeded() {
		title = fmt.Sprintf("Project %s %s failed", summary.Project, summary.Operation)
		color = colorFailure
		description = truncateString(errorText(summary.Err), 1000)
	}

	fields := []DiscordEmbedField{
		{Name: "Project", Value: summary.Project, Inline: true},
		{Name: "Operation", Value: string(summary.Operation), Inline: true},
		{Name: "Duration", Value: summary.Duration().Round(time.Second).String(), Inline: true},
	}
	if summary.FailedPhase != "" {
		fields = append(fields, DiscordEmbedField{Name: "Failed phase", Value: string(summary.FailedPhase), Inline: true})
	}
	if summary.Operation == types.OperationImport && summary.ProjectID != "" {
		fields = append(fields,
			DiscordEmbedField{Name: "Project created", Value: yesNo(summary.ProjectCreated), Inline: true},
			DiscordEmbedField{Name: "Legacy engine patched", Value: yesNo(summary.LegacyEnginePatched), Inline: true},
			DiscordEmbedField{Name: "Artifacts", Value: fmt.Sprintf("%d created, %d skipped, %d failed", created, skipped, len(summary.Artifacts)-created-skipped), Inline: false},
		)
	}
	if skippedList := notCreatedArtifacts(summary.Artifacts, 5); skippedList != "" {
		fields = append(fields, DiscordEmbedField{Name: "Artifacts not created", Value: skippedList})
	}

	return DiscordMessage{
		Username:  d.name,
		AvatarURL: d.avatar,
		Embeds: []DiscordEmbed{{
			Title:       title,
			Description: description,
			Color:       color,
			Fields:      fields,
			Footer:      &DiscordEmbedFooter{Text: "operation " + summary.OperationID},
			Timestamp:   time.Now().Format(time.RFC3339),
		}},
	}
}

func (d *DiscordWebhook) send(ctx context.Context, message DiscordMessage) error {
	jsonData, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to encode discord message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to build discord request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send discord webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("discord returned status %d", resp.StatusCode)
	}

	d.logger.Debug("discord_webhook_sent").
		Int("status_code", resp.StatusCode).
		Send()

	return nil
}

func notCreatedArtifacts(results []types.ArtifactResult, limit int) string {
	var lines []string
	for _, r := range results {
		if r.Created || r.Reason == "already exists" {
			continue
		}
		if len(lines) == limit {
			lines = append(lines, "...")
			break
		}
		lines = append(lines, fmt.Sprintf("%s/%s: %s", r.Kind, r.Name, r.Reason))
	}
	if len(lines) == 0 {
		return ""
	}
	return "```\n" + strings.Join(lines, "\n") + "\n```"
}

func errorText(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
