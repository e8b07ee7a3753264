package validator

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/kevinfinalboss/cmlporter/pkg/types"
	"golang.org/x/sys/unix"
)

type localDirWritable struct {
	dir string
}

// LocalDirWritable checks that dir, or its closest existing parent, accepts
// new files. The probe file is removed before returning.
func LocalDirWritable(dir string) Validator {
	return &localDirWritable{dir: dir}
}

func (v *localDirWritable) Name() string {
	return "local_dir_writable"
}

func (v *localDirWritable) Validate(ctx context.Context) types.ValidationResult {
	target := existingAncestor(v.dir)
	info, err := os.Stat(target)
	if err != nil {
		return types.Failed(fmt.Sprintf("cannot access %s: %v", target, err))
	}
	if !info.IsDir() {
		return types.Failed(fmt.Sprintf("%s is not a directory", target))
	}

	probe, err := os.CreateTemp(target, ".cmlporter-probe-*")
	if err != nil {
		return types.Failed(fmt.Sprintf("directory %s is not writable: %v", target, err))
	}
	name := probe.Name()
	probe.Close()
	os.Remove(name)

	return types.Passed()
}

type diskSpace struct {
	dir      string
	minBytes uint64
	statfs   func(path string) (uint64, error)
}

func DiskSpace(dir string, minFreeMB uint64) Validator {
	return &diskSpace{dir: dir, minBytes: minFreeMB * humanize.MiByte, statfs: freeBytes}
}

func (v *diskSpace) Name() string {
	return "disk_space"
}

func (v *diskSpace) Validate(ctx context.Context) types.ValidationResult {
	target := existingAncestor(v.dir)
	free, err := v.statfs(target)
	if err != nil {
		return types.Failed(fmt.Sprintf("cannot read free space of %s: %v", target, err))
	}
	if free < v.minBytes {
		return types.Failed(fmt.Sprintf("only %s free at %s, at least %s required",
			humanize.IBytes(free), target, humanize.IBytes(v.minBytes)))
	}
	return types.Passed()
}

func freeBytes(path string) (uint64, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return 0, err
	}
	return st.Bavail * uint64(st.Bsize), nil
}

type pathPresent struct {
	name  string
	path  string
	isDir bool
}

// LocalProjectDataPresent checks that exported project files are on disk.
func LocalProjectDataPresent(path string) Validator {
	return &pathPresent{name: "local_project_data_present", path: path, isDir: true}
}

// MetadataFilePresent checks that the exported metadata document is on disk.
func MetadataFilePresent(path string) Validator {
	return &pathPresent{name: "metadata_file_present", path: path}
}

func (v *pathPresent) Name() string {
	return v.name
}

func (v *pathPresent) Validate(ctx context.Context) types.ValidationResult {
	info, err := os.Stat(v.path)
	if err != nil {
		if os.IsNotExist(err) {
			return types.Failed(fmt.Sprintf("%s does not exist", v.path))
		}
		return types.Failed(fmt.Sprintf("cannot access %s: %v", v.path, err))
	}
	if v.isDir && !info.IsDir() {
		return types.Failed(fmt.Sprintf("%s is not a directory", v.path))
	}
	if !v.isDir && info.IsDir() {
		return types.Failed(fmt.Sprintf("%s is a directory", v.path))
	}
	return types.Passed()
}

type binaryPresent struct {
	binary   string
	lookPath func(string) (string, error)
}

func BinaryPresent(binary string) Validator {
	return &binaryPresent{binary: binary, lookPath: exec.LookPath}
}

func (v *binaryPresent) Name() string {
	return "binary_present_" + filepath.Base(v.binary)
}

func (v *binaryPresent) Validate(ctx context.Context) types.ValidationResult {
	if _, err := v.lookPath(v.binary); err != nil {
		return types.Failed(fmt.Sprintf("%s is not installed or not in PATH", v.binary))
	}
	return types.Passed()
}

func existingAncestor(dir string) string {
	current := dir
	for {
		if _, err := os.Stat(current); err == nil {
			return current
		}
		parent := filepath.Dir(filepath.Clean(current))
		if parent == current {
			return current
		}
		current = parent
	}
}
