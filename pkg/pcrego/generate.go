package pcrego

import (
	"fmt"
	"io"

	"github.com/KromDaniel/pcrego/internal/codegen"
	"github.com/KromDaniel/pcrego/internal/compiler"
)

// NamedPattern is one pattern to precompile under a Go identifier.
type NamedPattern struct {
	// Name becomes the exported variable name (e.g., "user-email" generates "UserEmail")
	Name string

	// Pattern is the regular expression to compile
	Pattern string

	// Options are the compile options for this pattern
	Options Options
}

// GenerateOptions configures writing precompiled programs as Go source.
type GenerateOptions struct {
	// Package is the Go package name for the generated code
	Package string

	// OutputFile is the path where generated code will be written
	OutputFile string

	// Patterns are compiled in order and emitted in the same order
	Patterns []NamedPattern

	// Verbose logs code generation details to stderr
	Verbose bool
}

// Validate checks if the options are valid.
func (o GenerateOptions) Validate() error {
	if o.Package == "" {
		return fmt.Errorf("package cannot be empty")
	}
	if len(o.Patterns) == 0 {
		return fmt.Errorf("no patterns to generate")
	}
	for i, p := range o.Patterns {
		if p.Name == "" {
			return fmt.Errorf("pattern %d: name cannot be empty", i+1)
		}
		if p.Pattern == "" {
			return fmt.Errorf("pattern %s: pattern cannot be empty", p.Name)
		}
		if err := p.Options.Validate(); err != nil {
			return fmt.Errorf("pattern %s: %w", p.Name, err)
		}
	}
	return nil
}

// Generate compiles every pattern and writes them to OutputFile.
func Generate(opts GenerateOptions) error {
	if opts.OutputFile == "" {
		return fmt.Errorf("invalid options: output file cannot be empty")
	}
	g, err := newGenerator(opts)
	if err != nil {
		return err
	}
	if err := g.Save(opts.OutputFile); err != nil {
		return fmt.Errorf("failed to generate code: %w", err)
	}
	return nil
}

// Render is like Generate but writes the source to w. OutputFile is
// ignored.
func Render(opts GenerateOptions, w io.Writer) error {
	g, err := newGenerator(opts)
	if err != nil {
		return err
	}
	if err := g.Render(w); err != nil {
		return fmt.Errorf("failed to generate code: %w", err)
	}
	return nil
}

func newGenerator(opts GenerateOptions) (*codegen.Generator, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	g := codegen.New(opts.Package, compiler.NewLogger(opts.Verbose))
	for _, np := range opts.Patterns {
		prog, err := Compile(np.Pattern, np.Options)
		if err != nil {
			return nil, fmt.Errorf("pattern %s: %w", np.Name, err)
		}
		if err := g.Add(np.Name, prog); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// LoadManifest reads a TOML pattern manifest and turns it into
// GenerateOptions. The output path is resolved against the manifest's
// directory.
func LoadManifest(path string) (GenerateOptions, error) {
	m, err := codegen.LoadManifest(path)
	if err != nil {
		return GenerateOptions{}, err
	}
	return manifestOptions(m)
}

func manifestOptions(m *codegen.Manifest) (GenerateOptions, error) {
	opts := GenerateOptions{
		Package:    m.Package,
		OutputFile: m.OutputPath(),
	}
	for _, e := range m.Patterns {
		var po Options
		for _, name := range e.Flags {
			f, ok := ParseFlag(name)
			if !ok {
				return GenerateOptions{}, fmt.Errorf("pattern %s: unknown flag %q", e.Name, name)
			}
			po.Flags |= f
		}
		if e.Newline != "" {
			nl, ok := ParseNewline(e.Newline)
			if !ok {
				return GenerateOptions{}, fmt.Errorf("pattern %s: unknown newline %q", e.Name, e.Newline)
			}
			po.Newline = nl
		}
		opts.Patterns = append(opts.Patterns, NamedPattern{Name: e.Name, Pattern: e.Pattern, Options: po})
	}
	return opts, nil
}
