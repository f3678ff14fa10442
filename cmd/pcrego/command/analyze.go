package command

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KromDaniel/pcrego/pkg/pcrego"
)

func newAnalyzeCommand(flags *compileFlags) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "analyze <pattern>",
		Short: "Lists the constructs a pattern uses and its start-of-match hints.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := pcrego.Analyze(args[0], flags.Options())
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), res)
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "features:     %s\n", strings.Join(res.FeatureLabels, ", "))
			fmt.Fprintf(w, "hints:        %s\n", strings.Join(res.HintLabels, ", "))
			fmt.Fprintf(w, "groups:       %d\n", res.Groups)
			fmt.Fprintf(w, "size:         %d\n", res.Size)
			fmt.Fprintf(w, "possessified: %d\n", res.Possessified)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the analysis as JSON.")
	return cmd
}
