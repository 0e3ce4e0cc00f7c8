package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &cli.App{
		Name:   "budget-ledger",
		Usage:  "envelope budgeting ledger service",
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP API (default)",
				Action: serve,
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "migrate", Usage: "apply pending migrations before serving"},
				},
			},
			{
				Name:   "migrate",
				Usage:  "apply pending database migrations",
				Action: migrate,
			},
			{
				Name:   "audit",
				Usage:  "verify To Be Budgeted of every budget",
				Action: audit,
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "repair", Usage: "overwrite drifted figures with the recomputed value"},
				},
			},
		},
	}

	if err := app.RunContext(ctx, os.Args); err != nil {
		logrus.WithError(err).Fatal("budget-ledger")
	}
}
