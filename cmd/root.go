package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/daybook/internal/app"
	"github.com/Tiliavir/daybook/internal/config"
	"github.com/Tiliavir/daybook/internal/di"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "dbk",
	Short: "daybook – time cards, memos, schedules and savings in one CLI",
	Long: `dbk keeps four small record collections (time cards, memos, schedules
and monthly deposits) in a local store under ~/.daybook/ and can push or
pull each collection to a sync server.`,
	SilenceUsage: true,
}

// Execute is the entry point called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.daybook/config.yaml)")

	rootCmd.AddCommand(punchCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(cardCmd)
	rootCmd.AddCommand(memoCmd)
	rootCmd.AddCommand(scheduleCmd)
	rootCmd.AddCommand(depositCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(restoreCmd)
	rootCmd.AddCommand(serveCmd)
}

func loadConfig() *config.Config {
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	return cfg
}

// openApp wires the application for one command. The caller must defer the
// returned cleanup.
func openApp() (*app.App, func()) {
	a, cleanup, err := di.InitApp(loadConfig())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	return a, cleanup
}

// fatal reports a storage or transport failure.
func fatal(cleanup func(), err error) {
	if cleanup != nil {
		cleanup()
	}
	fmt.Fprintln(os.Stderr, err)
	os.Exit(2)
}

// refuse reports a precondition failure such as a missing record.
func refuse(cleanup func(), msg string) {
	if cleanup != nil {
		cleanup()
	}
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}
