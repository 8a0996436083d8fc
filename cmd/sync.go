package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/daybook/internal/api"
	"github.com/Tiliavir/daybook/internal/model"
	"github.com/Tiliavir/daybook/internal/syncer"
)

var syncDomain string

var syncCmd = &cobra.Command{
	Use:   "sync <push|pull>",
	Short: "Push or pull collections to or from the sync server",
	Long: `Push uploads a local collection and replaces the server's copy.
Pull downloads the server's copy and replaces the local collection.
Nothing is merged. Without --domain every collection is synced.`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{string(syncer.ModePush), string(syncer.ModePull)},
	RunE:      runSync,
}

func init() {
	syncCmd.Flags().StringVar(&syncDomain, "domain", "", "Only this collection: memo, timecard, schedule or deposit")
}

func runSync(cmd *cobra.Command, args []string) error {
	mode, err := syncer.ParseMode(args[0])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	a, cleanup := openApp()
	defer cleanup()
	defer a.FlushMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var results []syncer.Result
	if syncDomain != "" {
		d, err := model.ParseDomain(syncDomain)
		if err != nil {
			refuse(cleanup, err.Error())
		}
		var n int
		if mode == syncer.ModePull {
			n, err = a.Syncer.Pull(ctx, d)
		} else {
			n, err = a.Syncer.Push(ctx, d)
		}
		results = []syncer.Result{{Domain: d, Mode: mode, Records: n, Err: err}}
	} else {
		results = a.Syncer.SyncAll(ctx, mode)
	}

	failed := 0
	for _, r := range results {
		if errors.Is(r.Err, syncer.ErrNoIdentity) {
			a.FlushMetrics()
			refuse(cleanup, r.Err.Error())
		}
		printResult(r)
		if r.Err != nil {
			failed++
		}
	}
	if failed > 0 {
		a.FlushMetrics()
		fatal(cleanup, fmt.Errorf("%d of %d collections failed to %s", failed, len(results), mode))
	}
	return nil
}

func printResult(r syncer.Result) {
	if r.Mode == syncer.ModePush {
		ok, msg := api.PushStatus(r.Err)
		switch {
		case ok:
			fmt.Printf("  ✓ %-9s pushed %d records\n", r.Domain, r.Records)
		case msg != "":
			fmt.Printf("  ✗ %-9s %s\n", r.Domain, msg)
		default:
			fmt.Printf("  ✗ %-9s push failed: %v\n", r.Domain, r.Err)
		}
		return
	}
	if r.Err != nil {
		fmt.Printf("  ✗ %-9s pull failed: %v\n", r.Domain, r.Err)
		return
	}
	fmt.Printf("  ✓ %-9s pulled %d records\n", r.Domain, r.Records)
}
