package metadata

import (
	"path/filepath"

	"github.com/kevinfinalboss/cmlporter/internal/platform"
)

const (
	ProjectMetadataFile = "project-metadata.json"
	ProjectDataDir      = "project-data"
	LogsDir             = "logs"
)

func ProjectDir(topLevelDir, projectName string) string {
	return filepath.Join(topLevelDir, projectName)
}

func MetadataFilePath(topLevelDir, projectName string) string {
	return filepath.Join(ProjectDir(topLevelDir, projectName), ProjectMetadataFile)
}

func DataDirPath(topLevelDir, projectName string) string {
	return filepath.Join(ProjectDir(topLevelDir, projectName), ProjectDataDir)
}

func LogDirPath(topLevelDir, projectName string) string {
	return filepath.Join(ProjectDir(topLevelDir, projectName), LogsDir)
}

func ArtifactFilePath(projectDir string, kind platform.ArtifactKind) string {
	return filepath.Join(projectDir, string(kind)+"-metadata.json")
}
