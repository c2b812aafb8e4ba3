// inventory-repair recomputes board-feet totals from piece counts
// (drift repair), or replays the full movement ledger with --replay.
//
// Usage:
//   DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... \
//     go run ./cmd/inventory-repair [--product-id N] [--replay]
//
// REDIS_ADDRESS is optional; when set, a maintenance lock guards against a
// concurrent run.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/lanzy-lanzy/lumberv2/config"
	"github.com/lanzy-lanzy/lumberv2/models"
)

func main() {
	productID := flag.Int("product-id", 0, "Optional: limit the repair to one product")
	replay := flag.Bool("replay", false, "Rebuild on-hand state from the movement ledger instead of repairing drift")
	flag.Parse()

	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	if config.GetDB() == nil {
		fmt.Fprintln(os.Stderr, "database not initialized")
		os.Exit(1)
	}
	config.ConnectRedisWithRetry()

	var scope *int
	if *productID > 0 {
		scope = productID
	}

	var corrections []models.DriftCorrection
	var err error
	if *replay {
		corrections, err = models.RebuildFromLedger(ctx, scope)
	} else {
		corrections, err = models.RepairDrift(ctx, scope)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "repair failed: %v\n", err)
		os.Exit(1)
	}

	for _, c := range corrections {
		fmt.Printf("corrected product=%d (%s): board_feet %s -> %s\n",
			c.ProductId, c.ProductName, c.OldBoardFeet.String(), c.NewBoardFeet.String())
	}
	fmt.Printf("inventory repair complete (%d corrections)\n", len(corrections))
}
