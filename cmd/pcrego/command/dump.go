package command

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/KromDaniel/pcrego/pkg/pcrego"
)

func newDumpCommand(flags *compileFlags) *cobra.Command {
	var in string
	cmd := &cobra.Command{
		Use:   "dump [<pattern>]",
		Short: "Prints the bytecode disassembly of a pattern or a saved program.",
		Example: "pcrego dump 'a(b|c)*d'\n" +
			"pcrego dump --in date.bin",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var prog *pcrego.Program
			switch {
			case in != "" && len(args) > 0:
				return fmt.Errorf("give either a pattern or --in, not both")
			case in != "":
				data, err := os.ReadFile(in)
				if err != nil {
					return fmt.Errorf("cannot read %s: %w", in, err)
				}
				prog = new(pcrego.Program)
				if err := prog.UnmarshalBinary(data); err != nil {
					return fmt.Errorf("cannot decode %s: %w", in, err)
				}
			case len(args) == 1:
				var err error
				if prog, err = pcrego.Compile(args[0], flags.Options()); err != nil {
					return err
				}
			default:
				return fmt.Errorf("need a pattern or --in")
			}
			return prog.Dump(cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&in, "in", "i", "", "Read a program saved by compile --out instead of compiling.")
	return cmd
}
