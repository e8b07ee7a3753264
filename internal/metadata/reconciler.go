package metadata

import (
	"context"
	"fmt"

	"github.com/juju/errors"
	"github.com/kevinfinalboss/cmlporter/internal/logger"
	"github.com/kevinfinalboss/cmlporter/internal/platform"
	"github.com/kevinfinalboss/cmlporter/pkg/types"
)

const runtimeKey = "runtime_identifier"

// Keys under which legacy engine artifacts carry their engine image. The
// kernel key only makes sense next to an engine image and goes with it.
var (
	legacyEngineKeys = []string{"engine_image", "engine_image_id"}
	legacyKernelKey  = "kernel"
)

var portableProjectKeys = []string{
	"name",
	"description",
	"visibility",
	"environment",
	"shared_memory_limit",
	"template",
}

var volatileArtifactKeys = []string{
	"id",
	"project",
	"creator",
	"created_at",
	"updated_at",
	"status",
	"url",
	"html_url",
	"crn",
	"latest_build",
	"latest_deployment",
}

type API interface {
	FindProjectsByName(ctx context.Context, name string) ([]types.Project, error)
	GetProject(ctx context.Context, projectID string) (map[string]interface{}, error)
	CreateProject(ctx context.Context, body map[string]interface{}) (string, error)
	PatchProject(ctx context.Context, projectID string, patch map[string]interface{}) error
	ListArtifacts(ctx context.Context, projectID string, kind platform.ArtifactKind) ([]map[string]interface{}, error)
	CreateArtifact(ctx context.Context, projectID string, kind platform.ArtifactKind, body map[string]interface{}) error
}

type Reconciler struct {
	api    API
	logger *logger.Logger
}

func NewReconciler(api API, log *logger.Logger) *Reconciler {
	return &Reconciler{api: api, logger: log}
}

// Collect gathers the portable metadata of a source project and its related
// artifacts.
func (r *Reconciler) Collect(ctx context.Context, id types.ProjectIdentity, projectName string) (types.ProjectMetadata, Related, error) {
	project, err := r.lookupProject(ctx, id, projectName)
	if err != nil {
		return types.ProjectMetadata{}, nil, err
	}

	doc, err := r.api.GetProject(ctx, project.ID)
	if err != nil {
		return types.ProjectMetadata{}, nil, fmt.Errorf("failed to read project %s: %w", projectName, err)
	}

	out := make(map[string]interface{}, len(portableProjectKeys)+2)
	for _, key := range portableProjectKeys {
		if v, ok := doc[key]; ok && v != nil {
			out[key] = v
		}
	}
	if engine, _ := doc[types.LegacyEngineMarkerKey].(string); engine == types.LegacyEngineValue {
		out[types.LegacyEngineMarkerKey] = engine
	}
	if id.OwnerType == types.OwnerTypeTeam && id.OwnerName != "" {
		out["team_name"] = id.OwnerName
	}

	related := make(Related, len(platform.ArtifactKinds))
	for _, kind := range platform.ArtifactKinds {
		items, err := r.api.ListArtifacts(ctx, project.ID, kind)
		if err != nil {
			return types.ProjectMetadata{}, nil, fmt.Errorf("failed to list %s of %s: %w", kind, projectName, err)
		}
		cleaned := make([]map[string]interface{}, 0, len(items))
		for _, item := range items {
			cleaned = append(cleaned, stripVolatile(item))
		}
		related[kind] = cleaned

		r.logger.Debug("artifacts_collected").
			Str("kind", string(kind)).
			Int("count", len(cleaned)).
			Send()
	}

	return types.NewProjectMetadata(out), related, nil
}

func (r *Reconciler) lookupProject(ctx context.Context, id types.ProjectIdentity, projectName string) (types.Project, error) {
	matches, err := r.api.FindProjectsByName(ctx, projectName)
	if err != nil {
		return types.Project{}, fmt.Errorf("failed to search project %s: %w", projectName, err)
	}
	if len(matches) == 0 {
		return types.Project{}, errors.NotFoundf("project %s", projectName)
	}
	for _, p := range matches {
		if id.OwnerName != "" && p.Owner.Username == id.OwnerName {
			return p, nil
		}
	}
	for _, p := range matches {
		if p.Creator.Username == id.CreatorUsername {
			return p, nil
		}
	}
	return matches[0], nil
}

// FindOrCreateProject returns the destination project named in meta,
// creating it when absent. When several projects share the name, the one
// owned by the first matching entry of owners wins. Creation never carries
// the legacy engine marker.
func (r *Reconciler) FindOrCreateProject(ctx context.Context, meta types.ProjectMetadata, owners []string) (string, bool, error) {
	name := meta.Name()
	matches, err := r.api.FindProjectsByName(ctx, name)
	if err != nil {
		return "", false, fmt.Errorf("failed to search project %s: %w", name, err)
	}
	if len(matches) > 0 {
		project := pickOwned(matches, owners)
		r.logger.Warn("project_already_exists").
			Str("project", name).
			Str("project_id", project.ID).
			Int("matches", len(matches)).
			Send()
		return project.ID, false, nil
	}

	r.logger.Info("project_creating").
		Str("project", name).
		Send()

	projectID, err := r.api.CreateProject(ctx, meta.WithoutLegacyMarker().Raw())
	if err != nil {
		return "", false, fmt.Errorf("failed to create project %s: %w", name, err)
	}

	r.logger.Info("project_created").
		Str("project", name).
		Str("project_id", projectID).
		Send()

	return projectID, true, nil
}

func pickOwned(matches []types.Project, owners []string) types.Project {
	for _, owner := range owners {
		if owner == "" {
			continue
		}
		for _, p := range matches {
			if p.Owner.Username == owner {
				return p
			}
		}
		for _, p := range matches {
			if p.Owner.Username == "" && p.Creator.Username == owner {
				return p
			}
		}
	}
	return matches[0]
}

func (r *Reconciler) PatchLegacyEngine(ctx context.Context, projectID string) error {
	patch := map[string]interface{}{types.LegacyEngineMarkerKey: types.LegacyEngineValue}
	if err := r.api.PatchProject(ctx, projectID, patch); err != nil {
		return fmt.Errorf("failed to convert project %s to legacy engine: %w", projectID, err)
	}

	r.logger.Info("legacy_engine_patched").
		Str("project_id", projectID).
		Send()
	return nil
}

// ImportRelated creates the exported jobs, models and applications that the
// destination project does not have yet. Existing ones are left untouched.
func (r *Reconciler) ImportRelated(ctx context.Context, projectID, projectDir string, catalog types.RuntimeMapping, legacyProject bool) ([]types.ArtifactResult, error) {
	var results []types.ArtifactResult

	for _, kind := range platform.ArtifactKinds {
		items, err := ReadArtifacts(projectDir, kind)
		if err != nil {
			return results, err
		}
		if len(items) == 0 {
			continue
		}

		existing, err := r.api.ListArtifacts(ctx, projectID, kind)
		if err != nil {
			return results, fmt.Errorf("failed to list destination %s: %w", kind, err)
		}
		present := make(map[string]bool, len(existing))
		for _, item := range existing {
			if name, _ := item["name"].(string); name != "" {
				present[name] = true
			}
		}

		for _, item := range items {
			result := r.importArtifact(ctx, projectID, kind, item, present, catalog, legacyProject)
			if result.Created {
				present[result.Name] = true
			}
			results = append(results, result)
		}
	}

	return results, nil
}

func (r *Reconciler) importArtifact(ctx context.Context, projectID string, kind platform.ArtifactKind, item map[string]interface{}, present map[string]bool, catalog types.RuntimeMapping, legacyProject bool) types.ArtifactResult {
	name, _ := item["name"].(string)
	result := types.ArtifactResult{Kind: string(kind), Name: name}

	if name == "" {
		result.Skipped = true
		result.Reason = "artifact without name"
		r.logger.Warn("artifact_skipped").Str("kind", string(kind)).Str("reason", result.Reason).Send()
		return result
	}
	if present[name] {
		result.Skipped = true
		result.Reason = "already exists"
		r.logger.Info("artifact_exists").Str("kind", string(kind)).Str("name", name).Send()
		return result
	}

	body, ok := translateRuntime(stripVolatile(item), catalog, legacyProject)
	if !ok {
		result.Skipped = true
		result.Reason = "no runtime mapping for legacy engine image"
		r.logger.Warn("artifact_skipped").
			Str("kind", string(kind)).
			Str("name", name).
			Str("reason", result.Reason).
			Send()
		return result
	}

	if err := r.api.CreateArtifact(ctx, projectID, kind, body); err != nil {
		result.Reason = err.Error()
		r.logger.Error("artifact_create_failed").
			Str("kind", string(kind)).
			Str("name", name).
			Err(err).
			Send()
		return result
	}

	result.Created = true
	r.logger.Info("artifact_created").Str("kind", string(kind)).Str("name", name).Send()
	return result
}

// translateRuntime swaps a legacy engine image for its runtime. Artifacts of
// a legacy project may keep the engine image when no mapping exists.
func translateRuntime(item map[string]interface{}, catalog types.RuntimeMapping, legacyProject bool) (map[string]interface{}, bool) {
	if rt, _ := item[runtimeKey].(string); rt != "" {
		return item, true
	}
	var image string
	for _, key := range legacyEngineKeys {
		if image, _ = item[key].(string); image != "" {
			break
		}
	}
	if image == "" {
		return item, true
	}
	if runtimeID, ok := catalog.Lookup(image); ok {
		item[runtimeKey] = runtimeID
		for _, key := range legacyEngineKeys {
			delete(item, key)
		}
		delete(item, legacyKernelKey)
		return item, true
	}
	return item, legacyProject
}

func stripVolatile(item map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(item))
	for k, v := range item {
		out[k] = v
	}
	for _, k := range volatileArtifactKeys {
		delete(out, k)
	}
	return out
}
