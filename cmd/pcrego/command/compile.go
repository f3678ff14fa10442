package command

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KromDaniel/pcrego/pkg/pcrego"
)

func newCompileCommand(flags *compileFlags) *cobra.Command {
	var (
		asJSON bool
		out    string
	)
	cmd := &cobra.Command{
		Use:   "compile <pattern>",
		Short: "Compiles a pattern and prints what is known about its matches.",
		Example: "pcrego compile -f caseless 'colou?r'\n" +
			"pcrego compile --json '(?<year>\\d{4})-(?<month>\\d\\d)'\n" +
			"pcrego compile --out date.bin '\\d{4}-\\d\\d'",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prog, err := pcrego.Compile(args[0], flags.Options())
			if err != nil {
				return err
			}
			if out != "" {
				data, err := prog.MarshalBinary()
				if err != nil {
					return fmt.Errorf("failed to encode program: %w", err)
				}
				if err := os.WriteFile(out, data, 0o644); err != nil {
					return fmt.Errorf("failed to write %s: %w", out, err)
				}
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), prog)
			}
			writeSummary(cmd.OutOrStdout(), prog)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the program metadata as JSON.")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Also save the program in binary form to this file.")
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeSummary(w io.Writer, p *pcrego.Program) {
	fmt.Fprintf(w, "pattern:     %s\n", p.Pattern)
	fmt.Fprintf(w, "options:     %s\n", p.Options)
	fmt.Fprintf(w, "newline:     %s\n", p.Newline)
	fmt.Fprintf(w, "size:        %d bytes\n", p.Size)
	fmt.Fprintf(w, "groups:      %d\n", p.Groups)
	if len(p.Names) > 0 {
		names := make([]string, len(p.Names))
		for i, n := range p.Names {
			names[i] = fmt.Sprintf("%s=%d", n.Name, n.Number)
		}
		fmt.Fprintf(w, "names:       %s\n", strings.Join(names, ", "))
	}
	fmt.Fprintf(w, "anchored:    %t\n", p.Anchored)
	if p.StartLine {
		fmt.Fprintf(w, "start line:  true\n")
	}
	fmt.Fprintf(w, "first char:  %s\n", describeFirst(p.FirstChar))
	fmt.Fprintf(w, "required:    %s\n", describeRequired(p.RequiredChar))
	if p.MaxLookbehind > 0 {
		fmt.Fprintf(w, "lookbehind:  %d\n", p.MaxLookbehind)
	}
	fmt.Fprintf(w, "fingerprint: %016x\n", p.Fingerprint())
}

func describeFirst(fc pcrego.FirstChar) string {
	switch fc.Kind {
	case pcrego.FirstLiteral:
		return describeChar(fc.Char, fc.Caseless)
	case pcrego.FirstSet:
		n := 0
		for _, b := range fc.Set {
			for ; b != 0; b &= b - 1 {
				n++
			}
		}
		return fmt.Sprintf("one of %d bytes", n)
	}
	return "unknown"
}

func describeRequired(rc pcrego.RequiredChar) string {
	if !rc.Known {
		return "none"
	}
	return describeChar(rc.Char, rc.Caseless)
}

func describeChar(ch rune, caseless bool) string {
	s := fmt.Sprintf("%q", ch)
	if caseless {
		s += " (caseless)"
	}
	return s
}
