package codegen

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// ManifestFile is the default manifest name looked up by the generator.
const ManifestFile = "pcrego.toml"

// Manifest lists the patterns to precompile into one Go file.
//
//	package = "patterns"
//	output  = "patterns_gen.go"
//
//	[[pattern]]
//	name    = "email"
//	pattern = '[\w.+-]+@[\w-]+\.[\w.]+'
//	flags   = ["caseless"]
type Manifest struct {
	Package  string         `toml:"package"`
	Output   string         `toml:"output"`
	Newline  string         `toml:"newline"`
	Patterns []PatternEntry `toml:"pattern"`

	// Dir is the directory containing the manifest (set at load time).
	Dir string `toml:"-"`
}

// PatternEntry is one [[pattern]] table.
type PatternEntry struct {
	Name    string   `toml:"name"`
	Pattern string   `toml:"pattern"`
	Flags   []string `toml:"flags"`
	Newline string   `toml:"newline"`
}

// LoadManifest reads and checks the manifest at path.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	m, err := ParseManifest(data)
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	m.Dir, err = filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", path, err)
	}
	return m, nil
}

// ParseManifest decodes manifest text and applies defaults.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	md, err := toml.Decode(string(data), &m)
	if err != nil {
		return nil, err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown key %q", undecoded[0].String())
	}

	// Defaults
	if m.Package == "" {
		m.Package = "patterns"
	}
	if m.Output == "" {
		m.Output = m.Package + "_gen.go"
	}
	for i := range m.Patterns {
		if m.Patterns[i].Newline == "" {
			m.Patterns[i].Newline = m.Newline
		}
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks that every entry has a usable, unique name and a
// pattern.
func (m *Manifest) Validate() error {
	if len(m.Patterns) == 0 {
		return fmt.Errorf("no [[pattern]] entries")
	}
	seen := make(map[string]string)
	for i, p := range m.Patterns {
		if p.Pattern == "" {
			return fmt.Errorf("pattern %d (%q): empty pattern", i+1, p.Name)
		}
		id := Identifier(p.Name)
		if id == "" {
			return fmt.Errorf("pattern %d: name %q is not a valid identifier", i+1, p.Name)
		}
		if prev, ok := seen[id]; ok {
			return fmt.Errorf("pattern %d: name %q clashes with %q", i+1, p.Name, prev)
		}
		seen[id] = p.Name
	}
	return nil
}

// OutputPath returns where the generated file goes, relative to the
// manifest directory unless absolute.
func (m *Manifest) OutputPath() string {
	if filepath.IsAbs(m.Output) || m.Dir == "" {
		return m.Output
	}
	return filepath.Join(m.Dir, m.Output)
}
