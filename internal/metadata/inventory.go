package metadata

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/juju/errors"
	"github.com/kevinfinalboss/cmlporter/internal/platform"
	"github.com/kevinfinalboss/cmlporter/pkg/utils"
)

// Inventory describes what an export left on disk for one project.
type Inventory struct {
	ProjectDir      string
	MetadataPresent bool
	MetadataError   error
	LegacyEngine    bool
	DataPresent     bool
	DataBytes       uint64
	ArtifactCounts  map[platform.ArtifactKind]int
	Reports         []string
}

func Inspect(topLevelDir, projectName string) (Inventory, error) {
	inv := Inventory{
		ProjectDir:     ProjectDir(topLevelDir, projectName),
		ArtifactCounts: make(map[platform.ArtifactKind]int),
	}

	meta, err := ReadMetadata(MetadataFilePath(topLevelDir, projectName))
	switch {
	case err == nil:
		inv.MetadataPresent = true
		inv.LegacyEngine = meta.UsesLegacyEngine()
	case !errors.Is(err, errors.NotFound):
		inv.MetadataError = err
	}

	dataDir := DataDirPath(topLevelDir, projectName)
	if info, err := os.Stat(dataDir); err == nil && info.IsDir() {
		inv.DataPresent = true
		size, err := utils.DirSize(dataDir)
		if err != nil {
			return inv, err
		}
		inv.DataBytes = size
	}

	for _, kind := range platform.ArtifactKinds {
		items, err := ReadArtifacts(inv.ProjectDir, kind)
		if err != nil {
			return inv, err
		}
		if items != nil {
			inv.ArtifactCounts[kind] = len(items)
		}
	}

	entries, err := os.ReadDir(LogDirPath(topLevelDir, projectName))
	if err != nil && !os.IsNotExist(err) {
		return inv, err
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "report-") && filepath.Ext(e.Name()) == ".html" {
			inv.Reports = append(inv.Reports, filepath.Join(LogDirPath(topLevelDir, projectName), e.Name()))
		}
	}
	sort.Strings(inv.Reports)

	return inv, nil
}
