// Command headersync replays block headers through the header sync validator into a blockchain store.
package main

import (
	"fmt"
	"os"

	"github.com/ordishs/gocore"
	"github.com/urfave/cli/v2"
)

const progname = "headersync"

// Version & commit strings injected at build with -ldflags -X...
var version string
var commit string

func init() {
	gocore.SetInfo(progname, version, commit)
}

func main() {
	app := &cli.App{
		Name:    progname,
		Usage:   "Validate and store Tari block headers",
		Version: fmt.Sprintf("%s (%s)", version, commit),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "store",
				Usage: "blockchain store URL, overrides blockchain_store",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "replay",
				Usage:  "Validate a JSON array of headers on top of the store and commit them if they form a stronger chain",
				Action: replay,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "path of the JSON header file, - for stdin",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "start",
						Usage: "hash of the stored header the file builds on, defaults to the store tip",
					},
				},
			},
			{
				Name:   "tip",
				Usage:  "Print the tip of the store",
				Action: tip,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", progname, err)
		os.Exit(1)
	}
}
