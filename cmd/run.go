package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/daybook/internal/records"
	"github.com/Tiliavir/daybook/internal/timecalc"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Clock out for today",
	Args:  cobra.NoArgs,
	RunE:  runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	a, cleanup := openApp()
	defer cleanup()

	day, err := a.Records.TimeCards.Run(context.Background())
	if errors.Is(err, records.ErrNotClockedIn) {
		refuse(cleanup, "Not clocked in today. Run \"dbk punch\" first.")
	}
	if err != nil {
		fatal(cleanup, err)
	}

	at := timecalc.FromMillis(*day.LatestTimeRun, a.Config.Location())
	fmt.Printf("Clocked out at %s. Worked: %s\n",
		at.Format("15:04:05"), formatElapsed(day.WorkedMillis()/1000))
	return nil
}

func formatElapsed(seconds int64) string {
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%dh %dm %ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm %ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}
