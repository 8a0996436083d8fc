package cmd

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/daybook/internal/config"
	"github.com/Tiliavir/daybook/internal/devserver"
	"github.com/Tiliavir/daybook/internal/logging"
	"github.com/Tiliavir/daybook/internal/metrics"
	"github.com/Tiliavir/daybook/internal/prefs"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a local sync server",
	Long: `Starts a reference sync server backed by SQLite. Users are registered on
their first login. Prometheus metrics are served on /metrics.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default devServer.host:devServer.port)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()

	logger, err := logging.New(cfg.Logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	defer logger.Close()

	storePath := cfg.DevServer.StorePath
	if storePath == "" {
		base, err := config.BaseDir()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
		storePath = filepath.Join(base, "server.db")
	}
	store, err := prefs.Open(config.StoreConfig{Driver: "sqlite", Path: storePath}, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	defer store.Close()

	addr := serveAddr
	if addr == "" {
		addr = net.JoinHostPort(cfg.DevServer.Host, strconv.Itoa(cfg.DevServer.Port))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := devserver.New(store, logger, metrics.New())
	fmt.Printf("Serving on http://%s (store %s)\n", addr, storePath)
	if err := srv.ListenAndServe(ctx, addr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	fmt.Println("Server stopped.")
	return nil
}
