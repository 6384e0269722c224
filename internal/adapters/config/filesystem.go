package config

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FileSystem is the read-only view of the disk the loader searches.
type FileSystem interface {
	Stat(path string) (fs.FileInfo, error)
	ReadFile(path string) ([]byte, error)
}

// OSFS reads from the host file system.
type OSFS struct{}

// NewOSFS creates a new OSFS.
func NewOSFS() *OSFS {
	return &OSFS{}
}

// Stat calls os.Stat.
func (OSFS) Stat(path string) (fs.FileInfo, error) {
	return os.Stat(path)
}

// ReadFile calls os.ReadFile.
func (OSFS) ReadFile(path string) ([]byte, error) {
	// #nosec G304 -- the project file is found by walking up from the working directory
	return os.ReadFile(path)
}

// MountedFS serves an fs.FS, such as fstest.MapFS, as if it were mounted at Root.
type MountedFS struct {
	FS   fs.FS
	Root string
}

// NewMountedFS mounts fsys at root.
func NewMountedFS(root string, fsys fs.FS) *MountedFS {
	return &MountedFS{FS: fsys, Root: filepath.Clean(root)}
}

// Stat stats path inside the mount.
func (m *MountedFS) Stat(path string) (fs.FileInfo, error) {
	name, err := m.name(path)
	if err != nil {
		return nil, err
	}
	return fs.Stat(m.FS, name)
}

// ReadFile reads path inside the mount.
func (m *MountedFS) ReadFile(path string) ([]byte, error) {
	name, err := m.name(path)
	if err != nil {
		return nil, err
	}
	return fs.ReadFile(m.FS, name)
}

// name maps a host path to an fs.FS name. Paths outside Root do not exist.
func (m *MountedFS) name(path string) (string, error) {
	if !filepath.IsAbs(path) {
		path = filepath.Join(m.Root, path)
	}
	rel, err := filepath.Rel(m.Root, filepath.Clean(path))
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", &fs.PathError{Op: "open", Path: path, Err: fs.ErrNotExist}
	}
	return filepath.ToSlash(rel), nil
}

// isFile reports whether path names a regular file.
func isFile(fsys FileSystem, path string) bool {
	info, err := fsys.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
