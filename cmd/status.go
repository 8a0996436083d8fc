package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/daybook/internal/app"
	"github.com/Tiliavir/daybook/internal/logging"
	"github.com/Tiliavir/daybook/internal/model"
	"github.com/Tiliavir/daybook/internal/syncer"
	"github.com/Tiliavir/daybook/internal/timecalc"
)

var (
	statusWatch bool
	statusSync  time.Duration
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show today's time card",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&statusWatch, "watch", false, "Keep the display live until interrupted")
	statusCmd.Flags().DurationVar(&statusSync, "sync", 0, "With --watch, pull time cards at this interval (0 disables)")
}

func runStatus(cmd *cobra.Command, args []string) error {
	a, cleanup := openApp()
	defer cleanup()

	if !statusWatch {
		if err := printStatus(context.Background(), a, false); err != nil {
			fatal(cleanup, err)
		}
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := watchStatus(ctx, a); err != nil {
		fatal(cleanup, err)
	}
	return nil
}

// watchStatus redraws the card every 500ms and immediately after the time
// card collection changes, locally or through a pull.
func watchStatus(ctx context.Context, a *app.App) error {
	wait := a.BridgeRefresh(ctx)
	defer wait()

	refresh := a.Bus.Refresh(model.DomainTimeCard)
	changed := make(chan struct{}, 1)
	go func() {
		for {
			if _, err := refresh.Take(ctx); err != nil {
				return
			}
			select {
			case changed <- struct{}{}:
			default:
			}
		}
	}()

	var pull <-chan time.Time
	if statusSync > 0 {
		t := time.NewTicker(statusSync)
		defer t.Stop()
		pull = t.C
	}
	tick := time.NewTicker(500 * time.Millisecond)
	defer tick.Stop()

	for {
		if err := printStatus(ctx, a, true); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			fmt.Println()
			return nil
		case <-tick.C:
		case <-changed:
		case <-pull:
			if _, err := a.Syncer.Pull(ctx, model.DomainTimeCard); err != nil {
				a.Logger.Warnf(logging.TypeSync, "Background pull failed: %s", err)
			}
		}
	}
}

func printStatus(ctx context.Context, a *app.App, live bool) error {
	day, err := a.Records.TimeCards.Today(ctx)
	if err != nil {
		return err
	}
	now := a.Now()
	loc := a.Config.Location()

	var line string
	switch day.State() {
	case model.ClockedIn:
		since := timecalc.FromMillis(day.LatestTimeCard, loc)
		elapsed := int64(now.Sub(since).Seconds())
		line = fmt.Sprintf("Clocked in since %s  %s", since.Format("15:04"), timecalc.FormatDurationHHMMSS(elapsed))
	case model.ClockedOut:
		line = fmt.Sprintf("Clocked out at %s  worked %s",
			timecalc.FromMillis(*day.LatestTimeRun, loc).Format("15:04"),
			timecalc.FormatDuration(day.WorkedMillis()/1000))
	default:
		line = "Not clocked in today."
	}

	if live {
		if st, err := a.Syncer.Status(ctx, model.DomainTimeCard); err == nil && st.Failed {
			line += "  (sync failed: " + st.LastError + ")"
		}
		fmt.Printf("\r\033[K%s", line)
		return nil
	}
	fmt.Println(line)
	if last, err := a.Session.LastSync(ctx); err == nil && !last.IsZero() {
		fmt.Printf("Last sync: %s\n", last.In(loc).Format("2006-01-02 15:04"))
	}
	for _, d := range model.Domains {
		st, err := a.Syncer.Status(ctx, d)
		if err != nil {
			return err
		}
		if line := syncFailureLine(d, st); line != "" {
			fmt.Println(line)
		}
	}
	return nil
}

// syncFailureLine describes a domain whose last push or pull failed, or
// returns "".
func syncFailureLine(d model.Domain, st syncer.Status) string {
	if !st.Failed {
		return ""
	}
	msg := st.LastError
	if msg == "" {
		msg = "unknown error"
	}
	return fmt.Sprintf("Sync of %s failed: %s", d, msg)
}
