// Package session keeps one gotd session file per account phone number.
package session

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-faster/errors"
	tdsession "github.com/gotd/td/session"
	"github.com/spf13/afero"

	"github.com/soluchok/tgquery/pkg/slices"
	"github.com/soluchok/tgquery/pkg/storage"
)

// Extension is the suffix of every session file in the store.
const Extension = ".session"

// Store is a directory of session files named after phone numbers.
type Store struct {
	fs  afero.Fs
	dir string
}

// NewStore creates dir when needed and returns a store backed by it.
func NewStore(fs afero.Fs, dir string) (*Store, error) {
	if err := fs.MkdirAll(dir, storage.DirPerm); err != nil {
		return nil, errors.Wrap(err, "failed to create session directory")
	}

	return &Store{fs: fs, dir: dir}, nil
}

// Dir returns the store directory.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the session file path for phone.
func (s *Store) Path(phone string) string {
	return filepath.Join(s.dir, phone+Extension)
}

// Get returns the session storage gotd uses for phone.
func (s *Store) Get(phone string) tdsession.Storage {
	return &File{fs: s.fs, path: s.Path(phone)}
}

// Exists reports whether a session file for phone is present.
func (s *Store) Exists(phone string) (bool, error) {
	return afero.Exists(s.fs, s.Path(phone))
}

// Remove deletes the session file for phone. A missing file is not an error.
func (s *Store) Remove(phone string) error {
	if err := s.fs.Remove(s.Path(phone)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return errors.Wrapf(err, "remove session %s", phone)
	}

	return nil
}

// Save stores raw session data for phone, e.g. data collected by a Memory
// storage during QR login.
func (s *Store) Save(ctx context.Context, phone string, data []byte) error {
	return s.Get(phone).StoreSession(ctx, data)
}

// List returns the phone numbers of all stored sessions in lexical order of
// their file names.
func (s *Store) List() ([]string, error) {
	entries, err := afero.ReadDir(s.fs, s.dir)
	if err != nil {
		return nil, errors.Wrap(err, "read session directory")
	}

	entries = slices.Filter(entries, func(e os.FileInfo) bool {
		return !e.IsDir() && strings.HasSuffix(e.Name(), Extension) && len(e.Name()) > len(Extension)
	})

	return slices.Convert(entries, func(e os.FileInfo, _ int) string {
		return strings.TrimSuffix(e.Name(), Extension)
	}), nil
}

// File is a tdsession.Storage over a single file.
type File struct {
	fs   afero.Fs
	path string
}

var _ tdsession.Storage = (*File)(nil)

func (f *File) LoadSession(_ context.Context) ([]byte, error) {
	data, err := afero.ReadFile(f.fs, f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, tdsession.ErrNotFound
	}

	if err != nil {
		return nil, errors.Wrap(err, "read session")
	}

	return data, nil
}

func (f *File) StoreSession(_ context.Context, data []byte) error {
	if err := storage.AtomicWriteFile(f.fs, f.path, data); err != nil {
		return errors.Wrap(err, "write session")
	}

	return nil
}
