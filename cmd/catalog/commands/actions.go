// Package commands implements the catalog CLI actions.
package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"
)

// EmbedAction embeds one listing.
func EmbedAction(ctx context.Context, cmd *cli.Command) error {
	return withApp(ctx, cmd, func(ac *AppContext) error {
		id := cmd.String("id")
		if err := ac.Service.EmbedListing(ctx, id); err != nil {
			return err
		}
		return printJSON(os.Stdout, map[string]string{"listingId": id, "status": "embedded"})
	})
}

// UnembedAction deletes an embedding entry by handle.
func UnembedAction(ctx context.Context, cmd *cli.Command) error {
	return withApp(ctx, cmd, func(ac *AppContext) error {
		id := cmd.String("id")
		if err := ac.Service.RemoveListingEmbedding(ctx, id, cmd.String("handle")); err != nil {
			return err
		}
		return printJSON(os.Stdout, map[string]string{"listingId": id, "status": "removed"})
	})
}

// SyncAction reconciles one listing's embedding with its current state.
func SyncAction(ctx context.Context, cmd *cli.Command) error {
	return withApp(ctx, cmd, func(ac *AppContext) error {
		id := cmd.String("id")
		if err := ac.Service.SyncListing(ctx, id); err != nil {
			return err
		}
		return printJSON(os.Stdout, map[string]string{"listingId": id, "status": "synced"})
	})
}

// BackfillAction embeds active listings in bulk.
func BackfillAction(ctx context.Context, cmd *cli.Command) error {
	return withApp(ctx, cmd, func(ac *AppContext) error {
		result, err := ac.Service.BackfillEmbeddings(ctx, int(cmd.Int("limit")))
		if err != nil {
			return err
		}
		return printJSON(os.Stdout, result)
	})
}

// SearchAction runs a product search.
func SearchAction(ctx context.Context, cmd *cli.Command) error {
	return withApp(ctx, cmd, func(ac *AppContext) error {
		resp, err := ac.Service.SearchProducts(ctx, cmd.String("query"), int(cmd.Int("limit")))
		if err != nil {
			return err
		}
		return printJSON(os.Stdout, resp)
	})
}

// RAGAction runs a search that also returns aggregated context text.
func RAGAction(ctx context.Context, cmd *cli.Command) error {
	return withApp(ctx, cmd, func(ac *AppContext) error {
		var threshold *float32
		if cmd.IsSet("threshold") {
			t := float32(cmd.Float("threshold"))
			threshold = &t
		}
		resp, err := ac.Service.SearchListingsRAG(ctx, cmd.String("query"), int(cmd.Int("limit")), threshold)
		if err != nil {
			return err
		}
		return printJSON(os.Stdout, resp)
	})
}

func withApp(ctx context.Context, cmd *cli.Command, fn func(*AppContext) error) error {
	ac, err := NewAppContext(ctx, cmd.String("env"))
	if err != nil {
		return err
	}
	defer func() {
		if err := ac.Close(); err != nil {
			ac.Logger.Warn("failed to close backends", "error", err)
		}
	}()

	return fn(ac)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return nil
}
