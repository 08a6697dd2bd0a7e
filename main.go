package main

import (
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"
)

var (
	version = "v0.0.1-default"
	name    = "visionai"

	rootFlag = &cli.StringFlag{
		Name:  "root",
		Usage: "Project root holding config/, .env and logs/",
		Value: ".",
	}
)

func main() {
	app := &cli.App{
		Name:     name,
		Version:  version,
		Compiled: time.Now(),
		Usage:    "Pediatric vision screening service",
		Flags:    []cli.Flag{rootFlag},
		Action:   serve,
		Commands: []*cli.Command{
			serveCmd,
			migrateCmd,
			scoreCmd,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
