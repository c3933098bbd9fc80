package manifest

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// LockFile records what the checked-in bindings were generated from, so a
// changed header or override set is noticed before the bindings drift.
type LockFile struct {
	Header      string    `toml:"header"`
	Fingerprint string    `toml:"fingerprint"` // surface fingerprint
	Overrides   []string  `toml:"overrides"`
	Functions   int       `toml:"functions"`
	Generated   time.Time `toml:"generated"`
}

// ReadLock loads a lock file. A missing file yields nil, nil.
func ReadLock(path string) (*LockFile, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var lf LockFile
	if _, err := toml.Decode(string(data), &lf); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	return &lf, nil
}

// WriteLock writes lf to path.
func WriteLock(path string, lf *LockFile) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	fmt.Fprintln(f, "# Written by meosbind generate. Do not edit.")
	if err := toml.NewEncoder(f).Encode(lf); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

// Stale reports why bindings generated under lf no longer match the given
// surface fingerprint. It returns "" when they match or when there is no
// lock to compare with.
func (lf *LockFile) Stale(fingerprint string) string {
	switch {
	case lf == nil:
		return ""
	case lf.Fingerprint != fingerprint:
		return fmt.Sprintf("header %s changed since the bindings were generated (%s, now %s)",
			lf.Header, lf.Fingerprint, fingerprint)
	}
	return ""
}
