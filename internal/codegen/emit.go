package codegen

import (
	"bufio"
	"bytes"
	"fmt"
	"io"

	"github.com/dave/jennifer/jen"

	"github.com/KromDaniel/pcrego/internal/compiler"
)

// Entry is one program to write out under an exported name.
type Entry struct {
	Name    string
	Program *compiler.Program
}

// Generator collects compiled programs and writes them as a Go file with
// a self-contained Program type, one const per pattern source and one var
// per program.
type Generator struct {
	pkg     string
	entries []Entry
	seen    map[string]bool
	logger  *compiler.Logger
}

// New creates a generator for package pkg.
func New(pkg string, logger *compiler.Logger) *Generator {
	if logger == nil {
		logger = compiler.NewLogger(false)
	}
	return &Generator{pkg: pkg, seen: make(map[string]bool), logger: logger}
}

// Add queues p under name. The name is turned into an exported identifier.
func (g *Generator) Add(name string, p *compiler.Program) error {
	id := Identifier(name)
	if id == "" {
		return fmt.Errorf("name %q is not a valid identifier", name)
	}
	if g.seen[id] {
		return fmt.Errorf("duplicate program name %q", id)
	}
	g.seen[id] = true
	g.entries = append(g.entries, Entry{Name: id, Program: p})
	return nil
}

// Len returns the number of queued programs.
func (g *Generator) Len() int {
	return len(g.entries)
}

// File builds the jennifer file for the queued programs.
func (g *Generator) File() (*jen.File, error) {
	if len(g.entries) == 0 {
		return nil, fmt.Errorf("no programs to generate")
	}
	g.logger.Section("Code Generation")

	f := jen.NewFile(g.pkg)
	f.HeaderComment("Code generated by pcrego. DO NOT EDIT.")

	g.generateTypes(f)
	for _, e := range g.entries {
		if err := g.generateProgram(f, e); err != nil {
			return nil, err
		}
	}

	f.Comment(fmt.Sprintf("%s indexes every program by name.", ProgramsVarName))
	f.Var().Id(ProgramsVarName).Op("=").Map(jen.String()).Op("*").Id(ProgramTypeName).Values(jen.DictFunc(func(d jen.Dict) {
		for _, e := range g.entries {
			d[jen.Lit(e.Name)] = jen.Id(e.Name)
		}
	}))
	return f, nil
}

func (g *Generator) generateTypes(f *jen.File) {
	f.Comment(fmt.Sprintf("%s maps a group name to its number.", NameTypeName))
	f.Type().Id(NameTypeName).Struct(
		jen.Id("Name").String(),
		jen.Id("Number").Int(),
	)
	f.Line()

	f.Comment(fmt.Sprintf("%s describes how every match starts. Set holds the possible", FirstCharTypeName))
	f.Comment("first bytes and is only filled in for Kind 2.")
	f.Type().Id(FirstCharTypeName).Struct(
		jen.Id("Kind").Int().Comment("0 unknown, 1 literal, 2 set"),
		jen.Id("Char").Rune(),
		jen.Id("Caseless").Bool(),
		jen.Id("Set").Index(jen.Lit(32)).Byte(),
	)
	f.Line()

	f.Comment(fmt.Sprintf("%s is the last literal every match must contain.", RequiredCharTypeName))
	f.Type().Id(RequiredCharTypeName).Struct(
		jen.Id("Known").Bool(),
		jen.Id("Char").Rune(),
		jen.Id("Caseless").Bool(),
	)
	f.Line()

	f.Comment(fmt.Sprintf("%s is a precompiled pattern.", ProgramTypeName))
	f.Type().Id(ProgramTypeName).Struct(
		jen.Id("Pattern").String(),
		jen.Id("Code").Index().Byte(),
		jen.Id("Options").Uint32(),
		jen.Id("Newline").Int(),
		jen.Id("Groups").Int(),
		jen.Id("Names").Index().Id(NameTypeName),
		jen.Id("BackrefMax").Int(),
		jen.Id("BackrefMap").Uint32(),
		jen.Id("BackrefOverflow").Bool(),
		jen.Id("FirstChar").Id(FirstCharTypeName),
		jen.Id("RequiredChar").Id(RequiredCharTypeName),
		jen.Id("Anchored").Bool(),
		jen.Id("StartLine").Bool(),
		jen.Id("MaxLookbehind").Int(),
		jen.Id("Fingerprint").Uint64(),
	)
	f.Line()
}

func firstCharValue(fc compiler.FirstChar) jen.Code {
	fields := jen.Dict{
		jen.Id("Kind"): jen.Lit(int(fc.Kind)),
	}
	switch fc.Kind {
	case compiler.FirstLiteral:
		fields[jen.Id("Char")] = jen.LitRune(fc.Char)
		if fc.Caseless {
			fields[jen.Id("Caseless")] = jen.True()
		}
	case compiler.FirstSet:
		fields[jen.Id("Set")] = jen.Index(jen.Lit(32)).Byte().ValuesFunc(func(g *jen.Group) {
			for _, b := range fc.Set {
				g.Lit(int(b))
			}
		})
	}
	return jen.Id(FirstCharTypeName).Values(fields)
}

func requiredCharValue(rc compiler.RequiredChar) jen.Code {
	if !rc.Known {
		return jen.Id(RequiredCharTypeName).Values()
	}
	return jen.Id(RequiredCharTypeName).Values(jen.Dict{
		jen.Id("Known"):    jen.True(),
		jen.Id("Char"):     jen.LitRune(rc.Char),
		jen.Id("Caseless"): jen.Lit(rc.Caseless),
	})
}

func (g *Generator) generateProgram(f *jen.File, e Entry) error {
	p := e.Program
	if err := p.Validate(); err != nil {
		return fmt.Errorf("program %s: %w", e.Name, err)
	}
	g.logger.Log("Emitting %s: %d bytes, %d groups", e.Name, p.Size, p.Groups)

	constName := PatternConstName(e.Name)
	f.Comment(fmt.Sprintf("%s is the source of %s.", constName, e.Name))
	f.Const().Id(constName).Op("=").Lit(p.Pattern)
	f.Line()

	var listing bytes.Buffer
	if err := p.Dump(&listing); err != nil {
		return fmt.Errorf("program %s: %w", e.Name, err)
	}
	f.Comment(fmt.Sprintf("%s was compiled with options %s, newline %s:", e.Name, p.Options, p.Newline))
	f.Comment("")
	sc := bufio.NewScanner(&listing)
	for sc.Scan() {
		f.Comment("\t" + sc.Text())
	}

	names := jen.Index().Id(NameTypeName).ValuesFunc(func(grp *jen.Group) {
		for _, n := range p.Names {
			grp.Values(jen.Lit(n.Name), jen.Lit(n.Number))
		}
	})
	if len(p.Names) == 0 {
		names = jen.Nil()
	}

	f.Var().Id(e.Name).Op("=").Op("&").Id(ProgramTypeName).Values(jen.Dict{
		jen.Id("Pattern"):         jen.Id(constName),
		jen.Id("Code"):            jen.Index().Byte().Call(jen.Lit(string(p.Code))),
		jen.Id("Options"):         jen.Lit(uint32(p.Options)),
		jen.Id("Newline"):         jen.Lit(int(p.Newline)),
		jen.Id("Groups"):          jen.Lit(p.Groups),
		jen.Id("Names"):           names,
		jen.Id("BackrefMax"):      jen.Lit(p.BackrefMax),
		jen.Id("BackrefMap"):      jen.Lit(p.BackrefMap),
		jen.Id("BackrefOverflow"): jen.Lit(p.BackrefOverflow),
		jen.Id("FirstChar"):       firstCharValue(p.FirstChar),
		jen.Id("RequiredChar"):    requiredCharValue(p.RequiredChar),
		jen.Id("Anchored"):        jen.Lit(p.Anchored),
		jen.Id("StartLine"):       jen.Lit(p.StartLine),
		jen.Id("MaxLookbehind"):   jen.Lit(p.MaxLookbehind),
		jen.Id("Fingerprint"):     jen.Lit(p.Fingerprint()),
	})
	f.Line()
	return nil
}

// Render writes the generated source to w.
func (g *Generator) Render(w io.Writer) error {
	f, err := g.File()
	if err != nil {
		return err
	}
	return f.Render(w)
}

// Save writes the generated source to path.
func (g *Generator) Save(path string) error {
	f, err := g.File()
	if err != nil {
		return err
	}
	if err := f.Save(path); err != nil {
		return fmt.Errorf("failed to save file: %w", err)
	}
	return nil
}
