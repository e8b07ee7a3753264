package metadata

import (
	"context"
	"errors"
	"testing"

	"github.com/kevinfinalboss/cmlporter/internal/logger"
	"github.com/kevinfinalboss/cmlporter/internal/platform"
	"github.com/kevinfinalboss/cmlporter/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockAPI struct {
	mock.Mock
}

func (m *MockAPI) FindProjectsByName(ctx context.Context, name string) ([]types.Project, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Project), args.Error(1)
}

func (m *MockAPI) GetProject(ctx context.Context, projectID string) (map[string]interface{}, error) {
	args := m.Called(ctx, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]interface{}), args.Error(1)
}

func (m *MockAPI) CreateProject(ctx context.Context, body map[string]interface{}) (string, error) {
	args := m.Called(ctx, body)
	return args.String(0), args.Error(1)
}

func (m *MockAPI) PatchProject(ctx context.Context, projectID string, patch map[string]interface{}) error {
	return m.Called(ctx, projectID, patch).Error(0)
}

func (m *MockAPI) ListArtifacts(ctx context.Context, projectID string, kind platform.ArtifactKind) ([]map[string]interface{}, error) {
	args := m.Called(ctx, projectID, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]map[string]interface{}), args.Error(1)
}

func (m *MockAPI) CreateArtifact(ctx context.Context, projectID string, kind platform.ArtifactKind, body map[string]interface{}) error {
	return m.Called(ctx, projectID, kind, body).Error(0)
}

func TestReconciler_Collect(t *testing.T) {
	api := &MockAPI{}
	api.On("FindProjectsByName", mock.Anything, "churn").Return([]types.Project{
		{ID: "p1", Name: "churn", Owner: types.APIUser{Username: "someone"}},
		{ID: "p2", Name: "churn", Owner: types.APIUser{Username: "analytics"}},
	}, nil)
	api.On("GetProject", mock.Anything, "p2").Return(map[string]interface{}{
		"id":                        "p2",
		"name":                      "churn",
		"description":               "model",
		"created_at":                "2020-01-01",
		types.LegacyEngineMarkerKey: types.LegacyEngineValue,
	}, nil)
	api.On("ListArtifacts", mock.Anything, "p2", platform.ArtifactJobs).Return([]map[string]interface{}{
		{"id": "j1", "name": "nightly", "script": "run.py", "created_at": "x"},
	}, nil)
	api.On("ListArtifacts", mock.Anything, "p2", mock.Anything).Return([]map[string]interface{}{}, nil)

	id := types.ProjectIdentity{CreatorUsername: "bob", ProjectSlug: "churn", OwnerType: types.OwnerTypeTeam, OwnerName: "analytics"}
	meta, related, err := NewReconciler(api, logger.NewTest()).Collect(context.Background(), id, "churn")
	require.NoError(t, err)

	assert.Equal(t, []string{types.LegacyEngineMarkerKey, "description", "name", "team_name"}, meta.Keys())
	assert.Equal(t, "analytics", meta.TeamName())
	assert.True(t, meta.UsesLegacyEngine())
	assert.Equal(t, []map[string]interface{}{{"name": "nightly", "script": "run.py"}}, related[platform.ArtifactJobs])
	assert.Empty(t, related[platform.ArtifactModels])
}

func TestReconciler_Collect_RuntimeProjectHasNoMarker(t *testing.T) {
	api := &MockAPI{}
	api.On("FindProjectsByName", mock.Anything, "churn").Return([]types.Project{{ID: "p1", Name: "churn"}}, nil)
	api.On("GetProject", mock.Anything, "p1").Return(map[string]interface{}{
		"name":                      "churn",
		types.LegacyEngineMarkerKey: "ml_runtime",
	}, nil)
	api.On("ListArtifacts", mock.Anything, "p1", mock.Anything).Return([]map[string]interface{}{}, nil)

	meta, _, err := NewReconciler(api, logger.NewTest()).Collect(context.Background(), types.ProjectIdentity{CreatorUsername: "alice"}, "churn")
	require.NoError(t, err)
	assert.False(t, meta.UsesLegacyEngine())
}

func TestReconciler_FindOrCreateProject_Existing(t *testing.T) {
	api := &MockAPI{}
	api.On("FindProjectsByName", mock.Anything, "churn").Return([]types.Project{{ID: "p7", Name: "churn"}}, nil)

	meta := types.NewProjectMetadata(map[string]interface{}{"name": "churn"})
	id, created, err := NewReconciler(api, logger.NewTest()).FindOrCreateProject(context.Background(), meta, []string{"alice"})

	require.NoError(t, err)
	assert.Equal(t, "p7", id)
	assert.False(t, created)
	api.AssertNotCalled(t, "CreateProject", mock.Anything, mock.Anything)
}

func TestReconciler_FindOrCreateProject_PrefersOwnedMatch(t *testing.T) {
	matches := []types.Project{
		{ID: "p1", Name: "churn", Owner: types.APIUser{Username: "someone"}},
		{ID: "p2", Name: "churn", Owner: types.APIUser{Username: "alice"}},
		{ID: "p3", Name: "churn", Owner: types.APIUser{Username: "analytics"}},
		{ID: "p4", Name: "churn", Creator: types.APIUser{Username: "bob"}},
	}

	tests := []struct {
		name     string
		owners   []string
		expected string
	}{
		{"team before user", []string{"analytics", "alice"}, "p3"},
		{"no team", []string{"", "alice"}, "p2"},
		{"creator when owner unknown", []string{"bob"}, "p4"},
		{"no owned match", []string{"carol"}, "p1"},
		{"no owners", nil, "p1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &MockAPI{}
			api.On("FindProjectsByName", mock.Anything, "churn").Return(matches, nil)

			meta := types.NewProjectMetadata(map[string]interface{}{"name": "churn"})
			id, created, err := NewReconciler(api, logger.NewTest()).FindOrCreateProject(context.Background(), meta, tt.owners)

			require.NoError(t, err)
			assert.Equal(t, tt.expected, id)
			assert.False(t, created)
		})
	}
}

func TestReconciler_FindOrCreateProject_CreatesWithoutMarker(t *testing.T) {
	api := &MockAPI{}
	api.On("FindProjectsByName", mock.Anything, "churn").Return([]types.Project{}, nil)
	api.On("CreateProject", mock.Anything, map[string]interface{}{"name": "churn", "description": "d"}).Return("p8", nil).Once()

	meta := types.NewProjectMetadata(map[string]interface{}{
		"name":                      "churn",
		"description":               "d",
		types.LegacyEngineMarkerKey: types.LegacyEngineValue,
	})
	id, created, err := NewReconciler(api, logger.NewTest()).FindOrCreateProject(context.Background(), meta, []string{"alice"})

	require.NoError(t, err)
	assert.Equal(t, "p8", id)
	assert.True(t, created)
	assert.True(t, meta.UsesLegacyEngine(), "input metadata is not modified")
	api.AssertExpectations(t)
}

func TestReconciler_PatchLegacyEngine(t *testing.T) {
	api := &MockAPI{}
	api.On("PatchProject", mock.Anything, "p8", map[string]interface{}{
		types.LegacyEngineMarkerKey: types.LegacyEngineValue,
	}).Return(nil).Once()

	require.NoError(t, NewReconciler(api, logger.NewTest()).PatchLegacyEngine(context.Background(), "p8"))
	api.AssertExpectations(t)
}

func TestReconciler_ImportRelated(t *testing.T) {
	dir := t.TempDir()
	related := Related{
		platform.ArtifactJobs: {
			{"name": "nightly", "engine_image": "eng:8"},
			{"name": "existing"},
			{"name": "orphan", "engine_image": "eng:unknown"},
			{"script": "nameless.py"},
		},
		platform.ArtifactModels: {
			{"name": "broken", "runtime_identifier": "rt:1"},
		},
	}
	require.NoError(t, WriteMetadata(dir, types.NewProjectMetadata(map[string]interface{}{"name": "churn"}), related))

	api := &MockAPI{}
	api.On("ListArtifacts", mock.Anything, "p1", platform.ArtifactJobs).Return([]map[string]interface{}{{"name": "existing"}}, nil)
	api.On("ListArtifacts", mock.Anything, "p1", platform.ArtifactModels).Return([]map[string]interface{}{}, nil)
	api.On("CreateArtifact", mock.Anything, "p1", platform.ArtifactJobs, map[string]interface{}{
		"name": "nightly", "runtime_identifier": "rt:8",
	}).Return(nil).Once()
	api.On("CreateArtifact", mock.Anything, "p1", platform.ArtifactModels, mock.Anything).Return(errors.New("HTTP 400")).Once()

	catalog := types.RuntimeMapping{"eng:8": "rt:8"}
	results, err := NewReconciler(api, logger.NewTest()).ImportRelated(context.Background(), "p1", dir, catalog, false)
	require.NoError(t, err)

	byName := map[string]types.ArtifactResult{}
	for _, r := range results {
		byName[r.Name] = r
	}
	assert.True(t, byName["nightly"].Created)
	assert.True(t, byName["existing"].Skipped)
	assert.Equal(t, "already exists", byName["existing"].Reason)
	assert.True(t, byName["orphan"].Skipped, "untranslatable image on a runtime project")
	assert.True(t, byName[""].Skipped)
	assert.False(t, byName["broken"].Created)
	assert.False(t, byName["broken"].Skipped)
	assert.Contains(t, byName["broken"].Reason, "HTTP 400")
	api.AssertExpectations(t)
	api.AssertNotCalled(t, "ListArtifacts", mock.Anything, "p1", platform.ArtifactApplications)
}

func TestTranslateRuntime(t *testing.T) {
	catalog := types.RuntimeMapping{"eng:8": "rt:8"}

	tests := []struct {
		name     string
		item     map[string]interface{}
		legacy   bool
		expected map[string]interface{}
		ok       bool
	}{
		{
			name:     "engine_image",
			item:     map[string]interface{}{"name": "a", "engine_image": "eng:8", "kernel": "python3"},
			expected: map[string]interface{}{"name": "a", "runtime_identifier": "rt:8"},
			ok:       true,
		},
		{
			name:     "engine_image_id",
			item:     map[string]interface{}{"name": "a", "engine_image_id": "eng:8", "kernel": "python3"},
			expected: map[string]interface{}{"name": "a", "runtime_identifier": "rt:8"},
			ok:       true,
		},
		{
			name:     "runtime already set",
			item:     map[string]interface{}{"name": "a", "runtime_identifier": "rt:1", "engine_image": "eng:8"},
			expected: map[string]interface{}{"name": "a", "runtime_identifier": "rt:1", "engine_image": "eng:8"},
			ok:       true,
		},
		{
			name:     "unknown image on runtime project",
			item:     map[string]interface{}{"name": "a", "engine_image_id": "eng:1", "kernel": "r"},
			expected: map[string]interface{}{"name": "a", "engine_image_id": "eng:1", "kernel": "r"},
			ok:       false,
		},
		{
			name:     "unknown image on legacy project",
			item:     map[string]interface{}{"name": "a", "engine_image_id": "eng:1", "kernel": "r"},
			legacy:   true,
			expected: map[string]interface{}{"name": "a", "engine_image_id": "eng:1", "kernel": "r"},
			ok:       true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, ok := translateRuntime(tt.item, catalog, tt.legacy)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, out)
		})
	}
}

func TestReconciler_ImportRelated_LegacyProjectKeepsEngineImage(t *testing.T) {
	dir := t.TempDir()
	related := Related{platform.ArtifactJobs: {{"name": "nightly", "engine_image": "eng:unknown"}}}
	require.NoError(t, WriteMetadata(dir, types.NewProjectMetadata(map[string]interface{}{"name": "churn"}), related))

	api := &MockAPI{}
	api.On("ListArtifacts", mock.Anything, "p1", platform.ArtifactJobs).Return([]map[string]interface{}{}, nil)
	api.On("CreateArtifact", mock.Anything, "p1", platform.ArtifactJobs, map[string]interface{}{
		"name": "nightly", "engine_image": "eng:unknown",
	}).Return(nil).Once()

	results, err := NewReconciler(api, logger.NewTest()).ImportRelated(context.Background(), "p1", dir, types.RuntimeMapping{}, true)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].Created)
	api.AssertExpectations(t)
}

func TestReconciler_ImportRelated_SecondRunCreatesNothing(t *testing.T) {
	dir := t.TempDir()
	related := Related{platform.ArtifactJobs: {{"name": "nightly"}}}
	require.NoError(t, WriteMetadata(dir, types.NewProjectMetadata(map[string]interface{}{"name": "churn"}), related))

	api := &MockAPI{}
	api.On("ListArtifacts", mock.Anything, "p1", platform.ArtifactJobs).Return([]map[string]interface{}{{"name": "nightly", "id": "j1"}}, nil)

	results, err := NewReconciler(api, logger.NewTest()).ImportRelated(context.Background(), "p1", dir, nil, false)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].Skipped)
	api.AssertNotCalled(t, "CreateArtifact", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
