package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/daybook/internal/model"
	"github.com/Tiliavir/daybook/internal/records"
	"github.com/Tiliavir/daybook/internal/timecalc"
)

var (
	cardFrom string
	cardTo   string
	cardWeek bool
	cardIn   string
	cardOut  string
)

var cardCmd = &cobra.Command{
	Use:   "card",
	Short: "View and correct time cards of past days",
}

var cardListCmd = &cobra.Command{
	Use:   "list",
	Short: "List time cards (default this week)",
	Args:  cobra.NoArgs,
	RunE:  runCardList,
}

var cardSetCmd = &cobra.Command{
	Use:   "set <YYYY-MM-DD>",
	Short: "Write a day's card, replacing any existing one",
	Args:  cobra.ExactArgs(1),
	RunE:  runCardSet,
}

var cardEditCmd = &cobra.Command{
	Use:   "edit <YYYY-MM-DD>",
	Short: "Correct the clock-in or clock-out time of an existing day",
	Args:  cobra.ExactArgs(1),
	RunE:  runCardEdit,
}

var cardRmCmd = &cobra.Command{
	Use:   "rm <YYYY-MM-DD>",
	Short: "Delete a day's card",
	Args:  cobra.ExactArgs(1),
	RunE:  runCardRm,
}

func init() {
	cardListCmd.Flags().StringVar(&cardFrom, "from", "", "Start date (YYYY-MM-DD); required when --to is specified")
	cardListCmd.Flags().StringVar(&cardTo, "to", "", "End date (YYYY-MM-DD); defaults to today")
	cardListCmd.Flags().BoolVar(&cardWeek, "week", false, "This week (default)")
	for _, c := range []*cobra.Command{cardSetCmd, cardEditCmd} {
		c.Flags().StringVar(&cardIn, "in", "", "Clock-in time (HH:MM)")
		c.Flags().StringVar(&cardOut, "out", "", "Clock-out time (HH:MM)")
	}
	cardCmd.AddCommand(cardListCmd, cardSetCmd, cardEditCmd, cardRmCmd)
}

// resolveRange turns --from/--to flags into an inclusive day range. Without
// either flag the current ISO week is used.
func resolveRange(from, to string, now time.Time, loc *time.Location) (time.Time, time.Time, error) {
	if from == "" && to == "" {
		lo, hi := timecalc.WeekRange(now.In(loc))
		return lo, hi, nil
	}
	if from == "" {
		return time.Time{}, time.Time{}, errors.New("--from is required when --to is specified")
	}
	lo, err := timecalc.ParseDay(from, now, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	hi, err := timecalc.ParseDay(to, now, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if hi.Before(lo) {
		return time.Time{}, time.Time{}, fmt.Errorf("--to %s is before --from %s", hi.Format("2006-01-02"), lo.Format("2006-01-02"))
	}
	return timecalc.StartOfDay(lo), timecalc.EndOfDay(hi), nil
}

func runCardList(cmd *cobra.Command, args []string) error {
	a, cleanup := openApp()
	defer cleanup()

	loc := a.Config.Location()
	from, to, err := resolveRange(cardFrom, cardTo, a.Now(), loc)
	if err != nil {
		refuse(cleanup, err.Error())
	}
	days, err := a.Records.TimeCards.Range(context.Background(), from, to)
	if err != nil {
		fatal(cleanup, err)
	}
	printCards(days, loc)
	return nil
}

func printCards(days []model.TimeCardDay, loc *time.Location) {
	if len(days) == 0 {
		fmt.Println("No time cards found.")
		return
	}
	var total int64
	for _, d := range days {
		in := timecalc.FromMillis(d.LatestTimeCard, loc).Format("15:04")
		out := "--:--"
		if d.LatestTimeRun != nil {
			out = timecalc.FromMillis(*d.LatestTimeRun, loc).Format("15:04")
		}
		worked := d.WorkedMillis() / 1000
		total += worked
		fmt.Printf("%s  %s–%s  %-12s %s\n",
			timecalc.FromMillis(d.DayStartTime, loc).Format("Mon 2006-01-02"),
			in, out, d.State(), timecalc.FormatDuration(worked))
	}
	fmt.Printf("Total: %s\n", timecalc.FormatDuration(total))
}

// cardTimes builds a day's record from the --in/--out flags.
func cardTimes(cmd *cobra.Command, day time.Time, base model.TimeCardDay) (model.TimeCardDay, error) {
	out := base
	out.DayStartTime = timecalc.DayStart(day)
	if cmd.Flags().Changed("in") {
		t, err := timecalc.ParseClock(day, cardIn)
		if err != nil {
			return out, err
		}
		out.LatestTimeCard = timecalc.Millis(t)
	}
	if cmd.Flags().Changed("out") {
		t, err := timecalc.ParseClock(day, cardOut)
		if err != nil {
			return out, err
		}
		run := timecalc.Millis(t)
		out.LatestTimeRun = &run
	}
	if out.LatestTimeCard == 0 {
		return out, errors.New("--in is required")
	}
	return out, nil
}

func runCardSet(cmd *cobra.Command, args []string) error {
	a, cleanup := openApp()
	defer cleanup()

	day, err := timecalc.ParseDay(args[0], a.Now(), a.Config.Location())
	if err != nil {
		refuse(cleanup, err.Error())
	}
	card, err := cardTimes(cmd, day, model.TimeCardDay{})
	if err != nil {
		refuse(cleanup, err.Error())
	}
	if err := a.Records.TimeCards.Add(context.Background(), card); err != nil {
		fatal(cleanup, err)
	}
	fmt.Printf("Saved %s (%s).\n", day.Format("2006-01-02"), card.State())
	return nil
}

func runCardEdit(cmd *cobra.Command, args []string) error {
	a, cleanup := openApp()
	defer cleanup()

	ctx := context.Background()
	day, err := timecalc.ParseDay(args[0], a.Now(), a.Config.Location())
	if err != nil {
		refuse(cleanup, err.Error())
	}
	existing, err := a.Records.TimeCards.Range(ctx, day, timecalc.EndOfDay(day))
	if err != nil {
		fatal(cleanup, err)
	}
	if len(existing) == 0 {
		refuse(cleanup, fmt.Sprintf("No time card on %s.", day.Format("2006-01-02")))
	}
	card, err := cardTimes(cmd, day, existing[0])
	if err != nil {
		refuse(cleanup, err.Error())
	}
	if err := a.Records.TimeCards.Update(ctx, card); err != nil {
		lookupFailed(cleanup, err)
	}
	fmt.Printf("Updated %s (%s).\n", day.Format("2006-01-02"), card.State())
	return nil
}

func runCardRm(cmd *cobra.Command, args []string) error {
	a, cleanup := openApp()
	defer cleanup()

	day, err := timecalc.ParseDay(args[0], a.Now(), a.Config.Location())
	if err != nil {
		refuse(cleanup, err.Error())
	}
	err = a.Records.TimeCards.Remove(context.Background(), timecalc.DayStart(day))
	if errors.Is(err, records.ErrNotFound) {
		refuse(cleanup, fmt.Sprintf("No time card on %s.", day.Format("2006-01-02")))
	}
	if err != nil {
		fatal(cleanup, err)
	}
	fmt.Printf("Removed %s.\n", day.Format("2006-01-02"))
	return nil
}
