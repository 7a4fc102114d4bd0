package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli"

	"github.com/hamidmayeli/api-faker/internal/app"
)

func main() {
	cliApp := cli.NewApp()
	cliApp.Name = "api-faker"
	cliApp.Usage = "serve a fake REST API over a document store"
	cliApp.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "config, c",
			Usage: "path to the configuration file",
			Value: "./config/config.yaml",
		},
		cli.StringFlag{
			Name:  "address, a",
			Usage: "listen address, overrides server.address.http",
		},
		cli.StringFlag{
			Name:  "backend, b",
			Usage: "store backend (memory, file, sqlite), overrides store.backend",
		},
		cli.StringFlag{
			Name:  "db",
			Usage: "store file path, overrides store.path",
		},
		cli.StringFlag{
			Name:  "seed",
			Usage: "seed file (.json or .yaml), overrides modules.rest.seed",
		},
		cli.StringFlag{
			Name:  "id",
			Usage: "identifying field of collection items, overrides modules.rest.id_field",
		},
		cli.BoolFlag{
			Name:  "read-only",
			Usage: "reject every mutating request with 403",
		},
	}
	cliApp.Action = run

	if err := cliApp.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	application := app.New(app.Options{
		ConfigPath: c.String("config"),
		Address:    c.String("address"),
		Backend:    c.String("backend"),
		StorePath:  c.String("db"),
		Seed:       c.String("seed"),
		IDField:    c.String("id"),
		ReadOnly:   c.Bool("read-only"),
	})

	wait := application.Start() // Start the application and wait for the termination signal
	<-wait                      // Wait for the application to receive a termination signal

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	application.Stop(ctx) // Stop the application gracefully
	return nil
}
