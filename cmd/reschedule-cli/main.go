package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli"
)

const appName = "reschedule-cli"

var appVersion = "dev"

func newApp() *cli.App {
	return &cli.App{
		Name:    appName,
		Usage:   "Operate course change recommendations from the command line",
		Version: appVersion,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Output debug messages",
			},
		},
		Commands: []cli.Command{
			GenerateCmd,
			ListCmd,
			ClearCmd,
			ExportCmd,
		},
	}
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(1)
	}
}
