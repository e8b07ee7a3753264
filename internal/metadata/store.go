package metadata

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/juju/errors"
	"github.com/kevinfinalboss/cmlporter/internal/platform"
	"github.com/kevinfinalboss/cmlporter/pkg/types"
	"github.com/kevinfinalboss/cmlporter/pkg/utils"
)

// Related holds the jobs, models and applications exported with a project.
type Related map[platform.ArtifactKind][]map[string]interface{}

func ReadMetadata(path string) (types.ProjectMetadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return types.ProjectMetadata{}, errors.NotFoundf("metadata file %s", path)
		}
		return types.ProjectMetadata{}, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var meta types.ProjectMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return types.ProjectMetadata{}, errors.NotValidf("metadata file %s (%v)", path, err)
	}
	if meta.Name() == "" {
		return types.ProjectMetadata{}, errors.NotValidf("metadata file %s without project name", path)
	}
	return meta, nil
}

// WriteMetadata persists the project document and its related artifacts
// under projectDir. Every file is replaced atomically.
func WriteMetadata(projectDir string, meta types.ProjectMetadata, related Related) error {
	if err := os.MkdirAll(projectDir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", projectDir, err)
	}

	if err := utils.WriteJSONAtomic(filepath.Join(projectDir, ProjectMetadataFile), meta); err != nil {
		return err
	}

	for _, kind := range platform.ArtifactKinds {
		items, ok := related[kind]
		if !ok {
			continue
		}
		if items == nil {
			items = []map[string]interface{}{}
		}
		if err := utils.WriteJSONAtomic(ArtifactFilePath(projectDir, kind), items); err != nil {
			return err
		}
	}
	return nil
}

// ReadArtifacts returns nil without error when the file was never exported.
func ReadArtifacts(projectDir string, kind platform.ArtifactKind) ([]map[string]interface{}, error) {
	path := ArtifactFilePath(projectDir, kind)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var items []map[string]interface{}
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, errors.NotValidf("artifact file %s (%v)", path, err)
	}
	return items, nil
}
