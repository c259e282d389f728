package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"
	"github.com/schollz/progressbar/v3"

	"crisisReplay/internal/finance"
	"crisisReplay/internal/replay"
	"crisisReplay/internal/report"
)

type sweepCmd struct {
	width int
	raw   bool
}

func (*sweepCmd) Name() string     { return "sweep" }
func (*sweepCmd) Synopsis() string { return "replay one basket through every crisis and cadence" }
func (*sweepCmd) Usage() string {
	return `replay sweep [-raw] [TICKER [weight]]... [recovery=24m] [ca]

  Runs the basket through every crisis in the catalog at every rebalance
  cadence and prints one table. Without tickers the default basket is used.
`
}

func (c *sweepCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.width, "width", 100, "terminal width for word wrap")
	f.BoolVar(&c.raw, "raw", false, "print markdown instead of rendering it")
}

func (c *sweepCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	// the sweep visits every crisis, so the parsed crisis slot is a placeholder
	cmd, err := finance.ParseReplayCommand("all " + strings.Join(f.Args(), " "))
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

	bar := initProgressBar(a.svc.SweepSize())
	rows, err := a.svc.Sweep(ctx, replay.FromCommand(cmd, "cli"), func() { _ = bar.Add(1) })
	_ = bar.Finish()
	fmt.Fprintln(os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	tickers := cmd.Tickers
	if len(tickers) == 0 {
		tickers = a.svc.DefaultTickers()
	}
	md := report.Sweep(tickers, rows)
	if c.raw {
		fmt.Println(md)
	} else {
		printMarkdown(md, c.width)
	}
	return subcommands.ExitSuccess
}

func initProgressBar(maxTicks int) *progressbar.ProgressBar {
	return progressbar.NewOptions(maxTicks,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetElapsedTime(true),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetDescription("Replaying crises..."),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))
}
