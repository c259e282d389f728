package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"

	"crisisReplay/internal/finance"
	"crisisReplay/internal/replay"
	"crisisReplay/internal/report"
)

type simulateCmd struct {
	width   int
	raw     bool
	htmlOut string
	pngOut  string
}

func (*simulateCmd) Name() string     { return "simulate" }
func (*simulateCmd) Synopsis() string { return "replay a basket through one crisis" }
func (*simulateCmd) Usage() string {
	return `replay simulate [-raw] [-html file] [-png file] <crisis> [TICKER [weight]]... [daily|weekly|monthly] [recovery=24m] [ca]

  Replays the basket through the crisis window plus the recovery months and
  prints the report. Without tickers the default basket is used.
`
}

func (c *simulateCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.width, "width", 100, "terminal width for word wrap")
	f.BoolVar(&c.raw, "raw", false, "print markdown instead of rendering it")
	f.StringVar(&c.htmlOut, "html", "", "also write an HTML report to this file")
	f.StringVar(&c.pngOut, "png", "", "also write the equity chart to this file")
}

func (c *simulateCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprint(os.Stderr, c.Usage())
		return subcommands.ExitUsageError
	}
	cmd, err := finance.ParseReplayCommand(strings.Join(f.Args(), " "))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	a, err := newApp(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	out, err := a.svc.Run(ctx, replay.FromCommand(cmd, "cli"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	md := report.Markdown(out)
	if c.raw {
		fmt.Println(md)
	} else {
		printMarkdown(md, c.width)
	}

	if c.htmlOut != "" {
		page, err := report.HTML(md)
		if err == nil {
			err = os.WriteFile(c.htmlOut, page, 0o644)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
	}
	if c.pngOut != "" {
		img, err := finance.MakeEquityChart(out.Title(), out.Result)
		if err == nil {
			err = os.WriteFile(c.pngOut, img, 0o644)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
	}
	return subcommands.ExitSuccess
}

// printMarkdown renders md for the terminal, falling back to the raw text.
func printMarkdown(md string, width int) {
	out, err := report.Terminal(md, width)
	if err != nil {
		fmt.Println(md)
		return
	}
	fmt.Print(out)
}
