package ini

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrNoBackup is returned by Revert when no .original copy exists.
var ErrNoBackup = errors.New("no original backup found")

// Manager owns one INI file on disk plus its permanent ".original" backup.
type Manager struct {
	Path string
}

// NewManager returns a manager for path.
func NewManager(path string) *Manager {
	return &Manager{Path: path}
}

// OriginalPath is where the first-seen copy of the file is kept.
func (m *Manager) OriginalPath() string { return m.Path + ".original" }

// Load parses the file. A missing file yields an empty store.
func (m *Manager) Load() (*Store, error) {
	f, err := os.Open(m.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return NewStore(), nil
		}
		return nil, err
	}
	defer f.Close()
	s, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", m.Path, err)
	}
	return s, nil
}

// Save overwrites the file with s.
func (m *Manager) Save(s *Store) error {
	return os.WriteFile(m.Path, []byte(Format(s)), 0o644)
}

// EnsureOriginal copies the file to OriginalPath once. It reports whether a
// backup was created by this call.
func (m *Manager) EnsureOriginal() (bool, error) {
	if _, err := os.Stat(m.OriginalPath()); err == nil {
		return false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, err
	}
	if _, err := os.Stat(m.Path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	if err := copyFile(m.Path, m.OriginalPath()); err != nil {
		return false, fmt.Errorf("backup %s: %w", m.Path, err)
	}
	if fi, err := os.Stat(m.Path); err == nil {
		_ = os.Chtimes(m.OriginalPath(), fi.ModTime(), fi.ModTime())
	}
	return true, nil
}

// Revert restores the file from OriginalPath.
func (m *Manager) Revert() error {
	if _, err := os.Stat(m.OriginalPath()); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrNoBackup
		}
		return err
	}
	return copyFile(m.OriginalPath(), m.Path)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	fi, err := in.Stat()
	if err != nil {
		return err
	}
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, fi.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
