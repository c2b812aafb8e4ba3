// inventory-snapshot freezes today's stock reading for every product.
// Intended to run as a daily scheduled job; re-running on the same day
// overwrites that day's rows.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/lanzy-lanzy/lumberv2/config"
	"github.com/lanzy-lanzy/lumberv2/models"
)

func main() {
	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	if config.GetDB() == nil {
		fmt.Fprintln(os.Stderr, "database not initialized")
		os.Exit(1)
	}
	config.ConnectRedisWithRetry()

	count, err := models.TakeInventorySnapshots(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "snapshot failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("snapshot complete (%d products)\n", count)
}
