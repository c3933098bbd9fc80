// Package manifest handles meosbind.toml binding configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/chazu/meosbind/classify"
	"github.com/chazu/meosbind/gen"
)

// FileName is the name of the configuration file.
const FileName = "meosbind.toml"

// Manifest represents a meosbind.toml binding configuration.
type Manifest struct {
	Binding Binding `toml:"binding"`
	Types   Types   `toml:"types"`
	Report  Report  `toml:"report"`

	// Dir is the directory containing the meosbind.toml file (set at load time).
	Dir string `toml:"-"`
}

// Binding names the header and the generated package.
type Binding struct {
	Header     string   `toml:"header"`
	Package    string   `toml:"package"`
	Output     string   `toml:"output"`
	Runtime    string   `toml:"runtime"`
	Overrides  []string `toml:"overrides"`
	NoDefaults bool     `toml:"no-defaults"`
}

// Types tunes type classification.
type Types struct {
	Opaque         []string `toml:"opaque"`
	DefaultRelease string   `toml:"default-release"`
	ReleaseSuffix  string   `toml:"release-suffix"`
}

// Report configures where generation reports are kept.
type Report struct {
	DB       string `toml:"db"`
	Snapshot string `toml:"snapshot"`
}

// Load parses a meosbind.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}
	return m, nil
}

// Parse decodes a manifest and applies defaults. Dir is left empty.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	md, err := toml.Decode(string(data), &m)
	if err != nil {
		return nil, err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown key %s", undecoded[0])
	}
	if m.Binding.Header == "" {
		return nil, fmt.Errorf("binding.header is required")
	}

	// Defaults
	if m.Binding.Package == "" {
		m.Binding.Package = "meos"
	}
	if err := CheckPackageName(m.Binding.Package); err != nil {
		return nil, err
	}
	if m.Binding.Output == "" {
		m.Binding.Output = m.Binding.Package + ".go"
	}
	if m.Binding.Runtime == "" {
		m.Binding.Runtime = gen.DefaultRuntime
	}
	def := classify.DefaultOptions()
	if m.Types.DefaultRelease == "" {
		m.Types.DefaultRelease = def.DefaultRelease
	}
	if m.Types.ReleaseSuffix == "" {
		m.Types.ReleaseSuffix = def.ReleaseSuffix
	}
	return &m, nil
}

// FindAndLoad walks up from startDir to find a meosbind.toml file,
// then loads and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

// ClassifyOptions returns the type classification settings.
func (m *Manifest) ClassifyOptions() classify.Options {
	return classify.Options{
		Opaque:         m.Types.Opaque,
		DefaultRelease: m.Types.DefaultRelease,
		ReleaseSuffix:  m.Types.ReleaseSuffix,
	}
}

// GenOptions returns the generator settings.
func (m *Manifest) GenOptions() gen.Options {
	return gen.Options{
		Package:        m.Binding.Package,
		Header:         m.Binding.Header,
		Runtime:        m.Binding.Runtime,
		DefaultRelease: m.Types.DefaultRelease,
	}
}

// LockFilePath returns the path to meosbind.lock.
func (m *Manifest) LockFilePath() string {
	return filepath.Join(m.Dir, "meosbind.lock")
}
