package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/daybook/internal/model"
	"github.com/Tiliavir/daybook/internal/timecalc"
)

var punchCmd = &cobra.Command{
	Use:   "punch",
	Short: "Clock in for today (press the time card)",
	Long: `Sets today's card time to now, creating today's time card if needed.
Punching again later moves the card time; punching after "dbk run"
clocks you back in.`,
	Args: cobra.NoArgs,
	RunE: runPunch,
}

func runPunch(cmd *cobra.Command, args []string) error {
	a, cleanup := openApp()
	defer cleanup()

	ctx := context.Background()
	before, err := a.Records.TimeCards.State(ctx)
	if err != nil {
		fatal(cleanup, err)
	}
	day, err := a.Records.TimeCards.Press(ctx)
	if err != nil {
		fatal(cleanup, err)
	}

	at := timecalc.FromMillis(day.LatestTimeCard, a.Config.Location())
	if before == model.ClockedIn {
		fmt.Printf("Card moved to %s.\n", at.Format("15:04:05"))
		return nil
	}
	fmt.Printf("Clocked in at %s.\n", at.Format("15:04:05"))
	return nil
}
