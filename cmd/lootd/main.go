package main

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

// Version is set at build time.
var Version = "dev"

func main() {
	app := &cli.App{
		Name:    "lootd",
		Usage:   "build, sign and index inscription token and marketplace scripts",
		Version: Version,
		Commands: []*cli.Command{
			mintCmd,
			transferCmd,
			listCmd,
			cancelCmd,
			purchaseCmd,
			decodeCmd,
			indexCmd,
			tokensCmd,
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
