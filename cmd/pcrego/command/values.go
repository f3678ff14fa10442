package command

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"github.com/KromDaniel/pcrego/pkg/pcrego"
)

// flagList collects --flag values. Each value may be a single option name
// or a comma separated list; repeats accumulate.
type flagList struct {
	names []string
	flags pcrego.Flag
}

var _ pflag.Value = (*flagList)(nil)

func (f *flagList) String() string {
	return strings.Join(f.names, ",")
}

func (f *flagList) Set(value string) error {
	for _, name := range strings.Split(value, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		fl, ok := pcrego.ParseFlag(name)
		if !ok {
			return fmt.Errorf("unknown option %q", name)
		}
		f.names = append(f.names, name)
		f.flags |= fl
	}
	return nil
}

func (f *flagList) Type() string { return "options" }

// newlineValue is a pflag.Value for --newline.
type newlineValue struct {
	nl pcrego.Newline
}

var _ pflag.Value = (*newlineValue)(nil)

func (n *newlineValue) String() string { return n.nl.String() }

func (n *newlineValue) Set(value string) error {
	nl, ok := pcrego.ParseNewline(value)
	if !ok {
		return fmt.Errorf("unknown newline convention %q (want lf, cr, crlf, anycrlf or any)", value)
	}
	n.nl = nl
	return nil
}

func (n *newlineValue) Type() string { return "newline" }
