package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"

	"crisisReplay/internal/report"
)

type crisesCmd struct {
	brief bool
	width int
}

func (*crisesCmd) Name() string     { return "crises" }
func (*crisesCmd) Synopsis() string { return "list the crisis windows" }
func (*crisesCmd) Usage() string {
	return `replay crises [-brief] [-width n]

  Lists the built-in and configured crisis windows. With -brief, prints the
  background of each crisis.
`
}

func (c *crisesCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.brief, "brief", false, "print each crisis brief")
	f.IntVar(&c.width, "width", 100, "terminal width for word wrap")
}

func (c *crisesCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	a, err := newApp(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	for i, cr := range a.svc.Catalog().All() {
		keys := append([]string{cr.Key}, cr.Aliases...)
		fmt.Printf("%d. %-36s %s to %s  [%s]\n", i+1, cr.Name, cr.Start, cr.End, strings.Join(keys, ", "))
		if !c.brief {
			continue
		}
		out, err := report.Terminal(report.Brief(cr), c.width)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
		fmt.Println(out)
	}
	return subcommands.ExitSuccess
}
