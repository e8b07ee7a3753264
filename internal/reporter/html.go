package reporter

import (
	"context"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/kevinfinalboss/cmlporter/internal/logger"
	"github.com/kevinfinalboss/cmlporter/pkg/types"
	"github.com/kevinfinalboss/cmlporter/pkg/utils"
)

type HTMLReporter struct {
	logger  *logger.Logger
	dataDir string
	dir     string
	now     func() time.Time
}

// NewHTMLReporter writes reports into reportsDir. dataDir, when set, is the
// local project-data directory whose size is shown in the report.
func NewHTMLReporter(logger *logger.Logger, reportsDir, dataDir string) *HTMLReporter {
	return &HTMLReporter{
		logger:  logger,
		dataDir: dataDir,
		dir:     reportsDir,
		now:     time.Now,
	}
}

func (r *HTMLReporter) OperationFinished(_ context.Context, summary *types.OperationSummary) error {
	_, err := r.GenerateReport(summary)
	return err
}

func (r *HTMLReporter) GenerateReport(summary *types.OperationSummary) (string, error) {
	timestamp := r.now()
	filename := fmt.Sprintf("report-%s-%s.html", summary.Operation, timestamp.Format("2006-01-02_15-04-05"))

	if err := os.MkdirAll(r.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create reports directory: %w", err)
	}
	reportPath := filepath.Join(r.dir, filename)

	data := r.buildReportData(summary, timestamp)

	htmlContent, err := r.generateHTML(data)
	if err != nil {
		return "", fmt.Errorf("failed to render report: %w", err)
	}

	if err := os.WriteFile(reportPath, []byte(htmlContent), 0644); err != nil {
		return "", fmt.Errorf("failed to save report: %w", err)
	}

	r.logger.Info("html_report_generated").
		Str("file", reportPath).
		Str("operation", string(summary.Operation)).
		Int("artifacts", len(summary.Artifacts)).
		Send()

	return reportPath, nil
}

func (r *HTMLReporter) buildReportData(summary *types.OperationSummary, timestamp time.Time) types.ReportData {
	data := types.ReportData{
		Title:       fmt.Sprintf("cmlporter %s report", summary.Operation),
		Timestamp:   timestamp.Format("2006-01-02 15:04:05"),
		Operation:   string(summary.Operation),
		Project:     summary.Project,
		OperationID: summary.OperationID,
		Status:      "Succeeded",
		StatusClass: "success",
		FailedPhase: string(summary.FailedPhase),
		Duration:    summary.Duration().Round(time.Millisecond).String(),
		Identity: types.ReportIdentity{
			Creator:   summary.Identity.CreatorUsername,
			Slug:      summary.Identity.ProjectSlug,
			OwnerType: string(summary.Identity.OwnerType),
			OwnerName: summary.Identity.OwnerName,
		},
		Phases:     buildPhases(summary),
		Artifacts:  buildArtifactStatusList(summary.Artifacts),
		Statistics: r.calculateStatistics(summary),
	}

	if summary.Identity.ProjectSlug != "" {
		data.Identity.Path = summary.Identity.ProjectPath()
	}
	if !summary.Succeeded() {
		data.Status = "Failed"
		data.StatusClass = "danger"
		if summary.Err != nil {
			data.Error = summary.Err.Error()
		}
	}
	if summary.Operation == types.OperationImport && summary.ProjectID != "" {
		data.Target = &types.ReportTarget{
			ProjectID:           summary.ProjectID,
			ProjectCreated:      summary.ProjectCreated,
			LegacyEnginePatched: summary.LegacyEnginePatched,
		}
	}
	data.HasSkipped = data.Statistics.SkippedCount > 0

	return data
}

func buildPhases(summary *types.OperationSummary) []types.ReportPhase {
	phases := make([]types.ReportPhase, 0, len(summary.Phases))
	for _, p := range summary.Phases {
		class := "success"
		switch {
		case p == types.PhaseAborted:
			class = "danger"
		case p == summary.FailedPhase && summary.FailedPhase != "":
			class = "warning"
		}
		phases = append(phases, types.ReportPhase{Name: string(p), StatusClass: class})
	}
	return phases
}

func buildArtifactStatusList(results []types.ArtifactResult) []types.ArtifactStatus {
	var artifacts []types.ArtifactStatus

	for _, result := range results {
		status := "Created"
		statusClass := "success"

		switch {
		case result.Skipped:
			status = "Skipped"
			statusClass = "warning"
		case !result.Created:
			status = "Failed"
			statusClass = "danger"
		}

		artifacts = append(artifacts, types.ArtifactStatus{
			Kind:        result.Kind,
			Name:        result.Name,
			Status:      status,
			StatusClass: statusClass,
			Reason:      result.Reason,
		})
	}

	return artifacts
}

func (r *HTMLReporter) calculateStatistics(summary *types.OperationSummary) types.ReportStatistics {
	created, skipped := summary.CountArtifacts()
	stats := types.ReportStatistics{
		TotalArtifacts: len(summary.Artifacts),
		CreatedCount:   created,
		SkippedCount:   skipped,
		FailedCount:    len(summary.Artifacts) - created - skipped,
		DataSize:       "N/A",
	}

	if r.dataDir != "" {
		if size, err := utils.DirSize(r.dataDir); err == nil {
			stats.DataSize = humanize.Bytes(size)
		}
	}

	return stats
}

var reportTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Title}} - {{.Project}} - {{.Timestamp}}</title>
    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }
        body { font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; background: #f5f7fa; color: #333; line-height: 1.6; }
        .container { max-width: 1200px; margin: 0 auto; padding: 20px; }
        .header { background: linear-gradient(135deg, #1f6f8b 0%, #264653 100%); color: white; padding: 30px; border-radius: 10px; margin-bottom: 30px; }
        .header h1 { font-size: 2.2rem; margin-bottom: 10px; }
        .stats-grid { display: grid; grid-template-columns: repeat(auto-fit, minmax(220px, 1fr)); gap: 20px; margin-bottom: 30px; }
        .stat-card { background: white; padding: 25px; border-radius: 10px; box-shadow: 0 5px 15px rgba(0,0,0,0.08); border-left: 5px solid #1f6f8b; }
        .stat-card h3 { color: #1f6f8b; font-size: 1.8rem; margin-bottom: 5px; }
        .section { background: white; margin-bottom: 30px; border-radius: 10px; overflow: hidden; box-shadow: 0 5px 15px rgba(0,0,0,0.08); }
        .section-header { background: #1f6f8b; color: white; padding: 20px; font-size: 1.3rem; font-weight: 600; }
        .section-content { padding: 25px; }
        .table { width: 100%; border-collapse: collapse; }
        .table th, .table td { padding: 12px; text-align: left; border-bottom: 1px solid #eee; }
        .table th { background: #f8f9fa; font-weight: 600; }
        .badge { padding: 4px 12px; border-radius: 20px; font-size: 0.85rem; font-weight: 500; margin-right: 6px; }
        .badge.success { background: #d4edda; color: #155724; }
        .badge.warning { background: #fff3cd; color: #856404; }
        .badge.danger { background: #f8d7da; color: #721c24; }
        .error { background: #f8d7da; color: #721c24; padding: 15px; border-radius: 8px; font-family: monospace; white-space: pre-wrap; }
        .footer { text-align: center; padding: 30px; color: #666; border-top: 1px solid #eee; margin-top: 30px; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>{{.Title}}: {{.Project}}</h1>
            <p>Generated at {{.Timestamp}} | Operation {{.OperationID}}</p>
        </div>

        <div class="stats-grid">
            <div class="stat-card"><h3><span class="badge {{.StatusClass}}">{{.Status}}</span></h3><p>Status</p></div>
            <div class="stat-card"><h3>{{.Duration}}</h3><p>Duration</p></div>
            <div class="stat-card"><h3>{{.Statistics.DataSize}}</h3><p>Project data</p></div>
            <div class="stat-card"><h3>{{.Statistics.CreatedCount}} / {{.Statistics.TotalArtifacts}}</h3><p>Artifacts created</p></div>
        </div>

        {{if .Error}}
        <div class="section">
            <div class="section-header">Failure in {{.FailedPhase}}</div>
            <div class="section-content"><div class="error">{{.Error}}</div></div>
        </div>
        {{end}}

        <div class="section">
            <div class="section-header">Phases</div>
            <div class="section-content">
                {{range .Phases}}<span class="badge {{.StatusClass}}">{{.Name}}</span>{{end}}
            </div>
        </div>

        {{if .Identity.Path}}
        <div class="section">
            <div class="section-header">Project identity</div>
            <div class="section-content">
                <table class="table">
                    <tr><th>Path</th><td>{{.Identity.Path}}</td></tr>
                    <tr><th>Creator</th><td>{{.Identity.Creator}}</td></tr>
                    <tr><th>Slug</th><td>{{.Identity.Slug}}</td></tr>
                    <tr><th>Owner</th><td>{{.Identity.OwnerName}} ({{.Identity.OwnerType}})</td></tr>
                </table>
            </div>
        </div>
        {{end}}

        {{with .Target}}
        <div class="section">
            <div class="section-header">Target project</div>
            <div class="section-content">
                <table class="table">
                    <tr><th>Project ID</th><td>{{.ProjectID}}</td></tr>
                    <tr><th>Created by this run</th><td>{{if .ProjectCreated}}yes{{else}}no, already existed{{end}}</td></tr>
                    <tr><th>Legacy engine patched</th><td>{{if .LegacyEnginePatched}}yes{{else}}no{{end}}</td></tr>
                </table>
            </div>
        </div>
        {{end}}

        {{if .Artifacts}}
        <div class="section">
            <div class="section-header">Artifacts{{if .HasSkipped}} ({{.Statistics.SkippedCount}} skipped){{end}}</div>
            <div class="section-content">
                <table class="table">
                    <thead><tr><th>Kind</th><th>Name</th><th>Status</th><th>Reason</th></tr></thead>
                    <tbody>
                        {{range .Artifacts}}
                        <tr>
                            <td>{{.Kind}}</td>
                            <td><strong>{{.Name}}</strong></td>
                            <td><span class="badge {{.StatusClass}}">{{.Status}}</span></td>
                            <td>{{.Reason}}</td>
                        </tr>
                        {{end}}
                    </tbody>
                </table>
            </div>
        </div>
        {{end}}

        <div class="footer">
            <p><strong>cmlporter</strong> | generated automatically</p>
        </div>
    </div>
</body>
</html>`))

func (r *HTMLReporter) generateHTML(data types.ReportData) (string, error) {
	var buf strings.Builder
	if err := reportTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
