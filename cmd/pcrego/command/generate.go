package command

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KromDaniel/pcrego/pkg/pcrego"
)

func newGenerateCommand(flags *compileFlags) *cobra.Command {
	var (
		manifest string
		name     string
		pkg      string
		out      string
	)
	cmd := &cobra.Command{
		Use:   "generate [<pattern>]",
		Short: "Writes a Go file with precompiled programs.",
		Long: "Compiles one pattern, or every pattern listed in a TOML manifest, and writes\n" +
			"a Go file declaring a Program value per pattern. With no --out the file\n" +
			"goes to stdout (or to the manifest's output path).",
		Example: "pcrego generate --name email --package re -f caseless '[\\w.]+@[\\w.]+'\n" +
			"pcrego generate --manifest pcrego.toml",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var opts pcrego.GenerateOptions
			switch {
			case manifest != "" && len(args) > 0:
				return fmt.Errorf("give either a pattern or --manifest, not both")
			case manifest != "":
				var err error
				if opts, err = pcrego.LoadManifest(manifest); err != nil {
					return err
				}
				if cmd.Flags().Changed("out") {
					opts.OutputFile = out
				}
			case len(args) == 1:
				opts = pcrego.GenerateOptions{
					Package:    pkg,
					OutputFile: out,
					Patterns: []pcrego.NamedPattern{
						{Name: name, Pattern: args[0], Options: flags.Options()},
					},
				}
			default:
				return fmt.Errorf("need a pattern or --manifest")
			}
			opts.Verbose = flags.verbose

			if opts.OutputFile == "" || opts.OutputFile == "-" {
				return pcrego.Render(opts, cmd.OutOrStdout())
			}
			if err := pcrego.Generate(opts); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d programs to %s\n", len(opts.Patterns), opts.OutputFile)
			return nil
		},
	}
	cmd.Flags().StringVarP(&manifest, "manifest", "m", "", "TOML manifest listing the patterns to generate.")
	cmd.Flags().StringVar(&name, "name", "pattern", "Name of the generated program variable.")
	cmd.Flags().StringVar(&pkg, "package", "patterns", "Package name of the generated file.")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (- for stdout).")
	return cmd
}
