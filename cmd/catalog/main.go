package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/creastat/catalog/cmd/catalog/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &cli.Command{
		Name:  "catalog",
		Usage: "semantic listing search and embedding maintenance",
		Commands: []*cli.Command{
			{
				Name:   "embed",
				Usage:  "embed an active listing, replacing its previous embedding",
				Flags:  []cli.Flag{envFlag(), idFlag()},
				Action: commands.EmbedAction,
			},
			{
				Name:  "unembed",
				Usage: "delete an embedding entry",
				Flags: []cli.Flag{
					envFlag(),
					idFlag(),
					&cli.StringFlag{
						Name:  "handle",
						Usage: "embedding entry ID to delete",
					},
				},
				Action: commands.UnembedAction,
			},
			{
				Name:   "sync",
				Usage:  "reconcile a listing's embedding with its current status",
				Flags:  []cli.Flag{envFlag(), idFlag()},
				Action: commands.SyncAction,
			},
			{
				Name:  "backfill",
				Usage: "embed active listings in bulk",
				Flags: []cli.Flag{
					envFlag(),
					&cli.IntFlag{
						Name:  "limit",
						Usage: "maximum number of listings to embed (0 means all)",
						Value: 100,
					},
				},
				Action: commands.BackfillAction,
			},
			{
				Name:   "search",
				Usage:  "search active listings",
				Flags:  []cli.Flag{envFlag(), queryFlag(), limitFlag()},
				Action: commands.SearchAction,
			},
			{
				Name:  "rag",
				Usage: "search active listings and print aggregated context text",
				Flags: []cli.Flag{
					envFlag(),
					queryFlag(),
					limitFlag(),
					&cli.FloatFlag{
						Name:  "threshold",
						Usage: "minimum similarity score between 0 and 1",
					},
				},
				Action: commands.RAGAction,
			},
		},
	}

	if err := app.Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

func envFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "env",
		Usage: "path to the environment file",
		Value: ".env",
	}
}

func idFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "id",
		Usage:    "listing ID",
		Required: true,
	}
}

func queryFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "query",
		Aliases:  []string{"q"},
		Usage:    "free-text search query",
		Required: true,
	}
}

func limitFlag() cli.Flag {
	return &cli.IntFlag{
		Name:  "limit",
		Usage: "maximum number of results (0 uses the configured default)",
	}
}
