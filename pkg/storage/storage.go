// Package storage holds small filesystem helpers shared by the session store,
// the device catalog and the query output writer.
package storage

import (
	"os"
	"path/filepath"

	"github.com/go-faster/errors"
	"github.com/spf13/afero"
)

const (
	// FilePerm is applied to every file written through AtomicWriteFile.
	FilePerm os.FileMode = 0600
	// DirPerm is used for directories created on demand.
	DirPerm os.FileMode = 0700
)

// EnsureDir creates the parent directory of path when it has one.
func EnsureDir(fs afero.Fs, path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}

	if err := fs.MkdirAll(dir, DirPerm); err != nil {
		return errors.Wrapf(err, "create dir %s", dir)
	}

	return nil
}

// AtomicWriteFile writes data to a temp file next to path and renames it over
// path, so readers see either the old content or the new one.
func AtomicWriteFile(fs afero.Fs, path string, data []byte) error {
	clean := filepath.Clean(path)
	if err := EnsureDir(fs, clean); err != nil {
		return err
	}

	tmp, err := afero.TempFile(fs, filepath.Dir(clean), "atomic-*.tmp")
	if err != nil {
		return errors.Wrap(err, "create temp file")
	}

	tmpName := tmp.Name()
	defer func() { _ = fs.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "write temp file")
	}

	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "sync temp file")
	}

	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "close temp file")
	}

	if err := fs.Chmod(tmpName, FilePerm); err != nil {
		return errors.Wrap(err, "chmod temp file")
	}

	if err := fs.Rename(tmpName, clean); err != nil {
		return errors.Wrap(err, "rename temp file")
	}

	return nil
}
