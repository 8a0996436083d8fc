package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/daybook/internal/config"
	"github.com/Tiliavir/daybook/internal/model"
	"github.com/Tiliavir/daybook/internal/snapshot"
)

var restoreYes bool

var backupCmd = &cobra.Command{
	Use:   "backup [file]",
	Short: "Write all collections to a compressed backup file",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runBackup,
}

var restoreCmd = &cobra.Command{
	Use:   "restore <file>",
	Short: "Replace all local collections with a backup",
	Args:  cobra.ExactArgs(1),
	RunE:  runRestore,
}

func init() {
	restoreCmd.Flags().BoolVar(&restoreYes, "yes", false, "Confirm that local data will be replaced")
}

func printCounts(snap *snapshot.Snapshot) {
	counts := snap.Counts()
	for _, d := range model.Domains {
		fmt.Printf("  %-9s %d\n", d, counts[d])
	}
}

func runBackup(cmd *cobra.Command, args []string) error {
	a, cleanup := openApp()
	defer cleanup()

	now := a.Now()
	var path string
	if len(args) == 1 {
		path = args[0]
	} else {
		base, err := config.BaseDir()
		if err != nil {
			fatal(cleanup, err)
		}
		path = filepath.Join(base, "backups", "daybook-"+now.Format("20060102-150405")+".json.zst")
	}

	snap, err := snapshot.Capture(context.Background(), a.Records, now)
	if err != nil {
		fatal(cleanup, err)
	}
	if err := snapshot.WriteFile(path, snap); err != nil {
		fatal(cleanup, err)
	}
	fmt.Printf("Backup written to %s\n", path)
	printCounts(snap)
	return nil
}

func runRestore(cmd *cobra.Command, args []string) error {
	a, cleanup := openApp()
	defer cleanup()

	snap, err := snapshot.ReadFile(args[0])
	if err != nil {
		fatal(cleanup, err)
	}
	if !restoreYes {
		fmt.Println("Backup contains:")
		printCounts(snap)
		refuse(cleanup, "Restoring replaces all local records. Re-run with --yes to continue.")
	}
	if err := snapshot.Apply(context.Background(), a.Records, snap); err != nil {
		fatal(cleanup, err)
	}
	fmt.Println("Restored:")
	printCounts(snap)
	return nil
}
