package reporter

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kevinfinalboss/cmlporter/internal/logger"
	"github.com/kevinfinalboss/cmlporter/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTMLReporter_GenerateReport(t *testing.T) {
	dir := t.TempDir()
	dataDir := filepath.Join(dir, "project-data")
	require.NoError(t, os.MkdirAll(dataDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "train.py"), make([]byte, 2048), 0644))

	r := NewHTMLReporter(logger.NewTest(), filepath.Join(dir, "logs"), dataDir)
	r.now = func() time.Time { return time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC) }

	summary := &types.OperationSummary{
		Operation:   types.OperationImport,
		Project:     "churn",
		OperationID: "op-1",
		Phase:       types.PhaseDone,
		Phases:      []types.Phase{types.PhaseConfiguring, types.PhaseValidating, types.PhaseDone},
		Identity:    types.ProjectIdentity{CreatorUsername: "bob", ProjectSlug: "churn", OwnerType: types.OwnerTypeTeam, OwnerName: "analytics"},
		ProjectID:   "p1",
		Artifacts: []types.ArtifactResult{
			{Kind: "jobs", Name: "nightly", Created: true},
			{Kind: "models", Name: "scorer", Skipped: true, Reason: "already exists"},
		},
	}

	path, err := r.GenerateReport(summary)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "logs", "report-import-2026-03-01_10-00-00.html"), path)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	html := string(content)
	assert.Contains(t, html, "churn")
	assert.Contains(t, html, "analytics/churn")
	assert.Contains(t, html, "nightly")
	assert.Contains(t, html, "already exists")
	assert.Contains(t, html, "2.0 kB")
}

func TestHTMLReporter_BuildReportData(t *testing.T) {
	r := NewHTMLReporter(logger.NewTest(), t.TempDir(), "")

	summary := &types.OperationSummary{
		Operation:   types.OperationExport,
		Project:     "churn",
		Phase:       types.PhaseAborted,
		FailedPhase: types.PhaseTransferring,
		Err:         errors.New("rsync exited with code 23"),
		Artifacts: []types.ArtifactResult{
			{Kind: "jobs", Name: "a", Created: true},
			{Kind: "jobs", Name: "b", Skipped: true, Reason: "already exists"},
			{Kind: "jobs", Name: "c", Reason: "HTTP 400"},
		},
	}

	data := r.buildReportData(summary, time.Now())

	assert.Equal(t, "Failed", data.Status)
	assert.Equal(t, "rsync exited with code 23", data.Error)
	assert.Equal(t, "transferring", data.FailedPhase)
	assert.Equal(t, 3, data.Statistics.TotalArtifacts)
	assert.Equal(t, 1, data.Statistics.CreatedCount)
	assert.Equal(t, 1, data.Statistics.SkippedCount)
	assert.Equal(t, 1, data.Statistics.FailedCount)
	assert.Equal(t, "N/A", data.Statistics.DataSize)
	require.Len(t, data.Artifacts, 3)
	assert.Equal(t, "Failed", data.Artifacts[2].Status)
}
