package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/juju/errors"
	"github.com/kevinfinalboss/cmlporter/pkg/types"
	"gopkg.in/ini.v1"
)

const (
	ExportConfigFile = "export-config.ini"
	ImportConfigFile = "import-config.ini"

	UsernameKey   = "username"
	URLKey        = "url"
	APIV1Key      = "apiv1_key"
	OutputDirKey  = "output_dir"
	CAPathKey     = "ca_path"
	SSHKeyPathKey = "ssh_key_path"
)

var requiredKeys = []string{UsernameKey, URLKey, APIV1Key, OutputDirKey}

// StorePath returns the path of the connection store for an operation.
func StorePath(op types.Operation) (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	if op == types.OperationExport {
		return filepath.Join(dir, ExportConfigFile), nil
	}
	return filepath.Join(dir, ImportConfigFile), nil
}

// LoadProjectConfig reads the section named projectName from the ini file at
// path. Keys missing from the section are inherited from DEFAULT.
func LoadProjectConfig(path, projectName string) (types.MigrationConfig, error) {
	if projectName == "" {
		return types.MigrationConfig{}, errors.NotValidf("empty project name")
	}
	return loadSection(path, projectName)
}

// LoadDefaultConfig reads only the DEFAULT section. It serves commands that
// are not bound to a project.
func LoadDefaultConfig(path string) (types.MigrationConfig, error) {
	return loadSection(path, ini.DefaultSection)
}

func loadSection(path, projectName string) (types.MigrationConfig, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return types.MigrationConfig{}, errors.NotFoundf("config file %s", path)
		}
		return types.MigrationConfig{}, errors.Annotatef(err, "cannot stat config file %s", path)
	}

	file, err := ini.Load(path)
	if err != nil {
		return types.MigrationConfig{}, errors.Annotatef(err, "cannot parse config file %s", path)
	}

	values := make(map[string]string, len(requiredKeys))
	for _, key := range requiredKeys {
		value := lookup(file, projectName, key)
		if value == "" {
			return types.MigrationConfig{}, errors.NotValidf("key %q missing from section [%s] of %s", key, projectName, path)
		}
		values[key] = value
	}

	outputDir, err := AbsolutePath(values[OutputDirKey])
	if err != nil {
		return types.MigrationConfig{}, errors.Annotatef(err, "cannot resolve %s", OutputDirKey)
	}

	caPath, err := AbsolutePath(lookup(file, projectName, CAPathKey))
	if err != nil {
		return types.MigrationConfig{}, errors.Annotatef(err, "cannot resolve %s", CAPathKey)
	}

	sshKey := lookup(file, projectName, SSHKeyPathKey)
	if sshKey == "" {
		sshKey = filepath.Join("~", ".ssh", "id_rsa")
	}
	sshKeyPath, err := AbsolutePath(sshKey)
	if err != nil {
		return types.MigrationConfig{}, errors.Annotatef(err, "cannot resolve %s", SSHKeyPathKey)
	}

	if projectName == ini.DefaultSection {
		projectName = ""
	}

	return types.MigrationConfig{
		ProjectName: projectName,
		Username:    values[UsernameKey],
		URL:         strings.TrimRight(values[URLKey], "/"),
		APIKey:      values[APIV1Key],
		OutputDir:   outputDir,
		CAPath:      caPath,
		SSHKeyPath:  sshKeyPath,
	}, nil
}

func lookup(file *ini.File, section, key string) string {
	if sec, err := file.GetSection(section); err == nil && sec.HasKey(key) {
		return strings.TrimSpace(sec.Key(key).String())
	}
	if def, err := file.GetSection(ini.DefaultSection); err == nil && def.HasKey(key) {
		return strings.TrimSpace(def.Key(key).String())
	}
	return ""
}

// AbsolutePath expands a leading ~ and makes p absolute. Empty stays empty.
func AbsolutePath(p string) (string, error) {
	if p == "" {
		return "", nil
	}
	if p == "~" || strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		p = filepath.Join(home, strings.TrimPrefix(p, "~"))
	}
	return filepath.Abs(p)
}
