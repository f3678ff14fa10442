// Package command holds the pcrego cobra commands.
package command

import (
	"github.com/spf13/cobra"

	"github.com/KromDaniel/pcrego/pkg/pcrego"
)

// compileFlags are the persistent flags shared by every subcommand.
type compileFlags struct {
	options        flagList
	newline        newlineValue
	nestLimit      int
	maxSize        int
	duplicateLimit int
	presize        bool
	verbose        bool
}

func (f *compileFlags) Options() pcrego.Options {
	return pcrego.Options{
		Flags:          f.options.flags,
		Newline:        f.newline.nl,
		NestLimit:      f.nestLimit,
		MaxSize:        f.maxSize,
		DuplicateLimit: f.duplicateLimit,
		PreSize:        f.presize,
		Verbose:        f.verbose,
	}
}

// New builds the pcrego command tree. Each call returns fresh flag state.
func New() *cobra.Command {
	flags := &compileFlags{}
	root := &cobra.Command{
		Use:   "pcrego",
		Short: "pcrego compiles PCRE-style regular expressions to bytecode.",
		Long: "`pcrego` compiles Perl-compatible regular expressions into a compact bytecode program.\n\n" +
			"It can print a summary or a disassembly of the program, save it in binary form,\n" +
			"and generate Go files holding precompiled programs.",
		SilenceUsage: true,
	}

	pf := root.PersistentFlags()
	pf.VarP(&flags.options, "flag", "f", "Compile option, repeatable or comma separated (caseless, multiline, dotall, extended, anchored, dollar_endonly, ungreedy, no_auto_capture, utf, dupnames, no_auto_possess, extra).")
	pf.Var(&flags.newline, "newline", "Newline convention: lf, cr, crlf, anycrlf or any.")
	pf.IntVar(&flags.nestLimit, "nest-limit", 0, "Maximum parenthesis nesting (0 = 250).")
	pf.IntVar(&flags.maxSize, "max-size", 0, "Maximum program size in bytes (0 = 65535).")
	pf.IntVar(&flags.duplicateLimit, "duplicate-limit", 0, "Copies of a repeated group before a REPEAT prefix is used (0 = 8, negative = never copy).")
	pf.BoolVar(&flags.presize, "presize", false, "Run a sizing pass before compiling.")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "Log compilation details to stderr.")

	root.AddCommand(
		newCompileCommand(flags),
		newDumpCommand(flags),
		newAnalyzeCommand(flags),
		newGenerateCommand(flags),
	)
	return root
}
