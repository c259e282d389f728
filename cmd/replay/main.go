package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"

	// Embedded zone database for exchange-local dates in minimal images
	_ "time/tzdata"
)

var debug = flag.Bool("debug", false, "development logging")

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")

	for _, c := range commands {
		commander.Register(c, "")
	}

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}

var commands = []subcommands.Command{
	&crisesCmd{},
	&simulateCmd{},
	&sweepCmd{},
	&serveCmd{},
}
