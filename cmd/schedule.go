package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/daybook/internal/app"
	"github.com/Tiliavir/daybook/internal/model"
	"github.com/Tiliavir/daybook/internal/timecalc"
)

var (
	schedDay       string
	schedFrom      string
	schedTo        string
	schedText      string
	schedAllDay    bool
	schedMilestone bool
	schedGoal      int64
)

var scheduleCmd = &cobra.Command{
	Use:     "schedule",
	Aliases: []string{"sched"},
	Short:   "Manage calendar entries and milestones",
}

var scheduleAddCmd = &cobra.Command{
	Use:   "add <text>",
	Short: "Add a schedule entry",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runScheduleAdd,
}

var scheduleListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all schedules, milestones first",
	Args:  cobra.NoArgs,
	RunE:  runScheduleList,
}

var scheduleDayCmd = &cobra.Command{
	Use:   "day [YYYY-MM-DD]",
	Short: "Show one day's agenda (default today)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runScheduleDay,
}

var scheduleEditCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Change a schedule entry",
	Args:  cobra.ExactArgs(1),
	RunE:  runScheduleEdit,
}

var scheduleRmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete a schedule entry",
	Args:  cobra.ExactArgs(1),
	RunE:  runScheduleRm,
}

func init() {
	for _, c := range []*cobra.Command{scheduleAddCmd, scheduleEditCmd} {
		c.Flags().StringVar(&schedDay, "day", "", "Day (YYYY-MM-DD, default today)")
		c.Flags().StringVar(&schedFrom, "from", "", "Start time (HH:MM)")
		c.Flags().StringVar(&schedTo, "to", "", "End time (HH:MM)")
		c.Flags().BoolVar(&schedAllDay, "all-day", false, "All-day entry")
		c.Flags().Int64Var(&schedGoal, "goal", 0, "Milestone goal value")
	}
	scheduleAddCmd.Flags().BoolVar(&schedMilestone, "milestone", false, "Make the entry a milestone")
	scheduleEditCmd.Flags().StringVar(&schedText, "text", "", "New text")

	scheduleCmd.AddCommand(scheduleAddCmd, scheduleListCmd, scheduleDayCmd, scheduleEditCmd, scheduleRmCmd)
}

// applyScheduleTimes sets day and time fields from the flags that were given.
func applyScheduleTimes(cmd *cobra.Command, a *app.App, sc *model.Schedule) error {
	loc := a.Config.Location()
	day := timecalc.FromMillis(sc.DayStartTime, loc)
	if sc.DayStartTime == 0 || cmd.Flags().Changed("day") {
		d, err := timecalc.ParseDay(schedDay, a.Now(), loc)
		if err != nil {
			return err
		}
		day = d
		sc.DayStartTime = timecalc.DayStart(d)
	}
	if cmd.Flags().Changed("from") {
		t, err := timecalc.ParseClock(day, schedFrom)
		if err != nil {
			return err
		}
		sc.StartingTime = timecalc.Millis(t)
		sc.IsAllDay = false
	}
	if cmd.Flags().Changed("to") {
		t, err := timecalc.ParseClock(day, schedTo)
		if err != nil {
			return err
		}
		sc.EndingTime = timecalc.Millis(t)
	}
	if cmd.Flags().Changed("all-day") {
		sc.IsAllDay = schedAllDay
	}
	if cmd.Flags().Changed("goal") {
		sc.MilestoneGoal = schedGoal
	}
	if !sc.IsAllDay && sc.EndingTime != 0 && sc.EndingTime < sc.StartingTime {
		return fmt.Errorf("end time %s is before start time", time.UnixMilli(sc.EndingTime).In(loc).Format("15:04"))
	}
	return nil
}

func runScheduleAdd(cmd *cobra.Command, args []string) error {
	a, cleanup := openApp()
	defer cleanup()

	sc := model.Schedule{
		Text:        strings.Join(args, " "),
		IsMilestone: schedMilestone,
		IsAllDay:    !cmd.Flags().Changed("from"),
	}
	if err := applyScheduleTimes(cmd, a, &sc); err != nil {
		refuse(cleanup, err.Error())
	}
	sc, err := a.Records.Schedules.Add(context.Background(), sc)
	if err != nil {
		fatal(cleanup, err)
	}
	fmt.Printf("Added schedule %s.\n", shortID(sc.ID))
	return nil
}

func runScheduleList(cmd *cobra.Command, args []string) error {
	a, cleanup := openApp()
	defer cleanup()

	list, err := a.Records.Schedules.DisplayList(context.Background())
	if err != nil {
		fatal(cleanup, err)
	}
	printSchedules(list, a.Config.Location(), true)
	return nil
}

func runScheduleDay(cmd *cobra.Command, args []string) error {
	a, cleanup := openApp()
	defer cleanup()

	s := ""
	if len(args) == 1 {
		s = args[0]
	}
	loc := a.Config.Location()
	day, err := timecalc.ParseDay(s, a.Now(), loc)
	if err != nil {
		refuse(cleanup, err.Error())
	}
	list, err := a.Records.Schedules.ForDay(context.Background(), timecalc.DayStart(day))
	if err != nil {
		fatal(cleanup, err)
	}
	fmt.Println(day.Format("Monday, 2006-01-02"))
	printSchedules(list, loc, false)
	return nil
}

func printSchedules(list []model.Schedule, loc *time.Location, withDay bool) {
	if len(list) == 0 {
		fmt.Println("No schedules found.")
		return
	}
	for _, s := range list {
		when := "all day    "
		if !s.IsAllDay {
			when = timecalc.FromMillis(s.StartingTime, loc).Format("15:04")
			if s.EndingTime != 0 {
				when += "–" + timecalc.FromMillis(s.EndingTime, loc).Format("15:04")
			} else {
				when += "      "
			}
		}
		if withDay {
			when = timecalc.FromMillis(s.DayStartTime, loc).Format("2006-01-02") + " " + when
		}
		extra := ""
		if s.IsMilestone {
			extra = fmt.Sprintf("  [milestone, goal %d]", s.MilestoneGoal)
		}
		fmt.Printf("%s  %s  %s%s\n", shortID(s.ID), when, s.Text, extra)
	}
}

func runScheduleEdit(cmd *cobra.Command, args []string) error {
	a, cleanup := openApp()
	defer cleanup()

	ctx := context.Background()
	snapshot, err := a.Records.Schedules.Lookup(ctx, args[0])
	if err != nil {
		lookupFailed(cleanup, err)
	}
	updated := snapshot
	if cmd.Flags().Changed("text") {
		updated.Text = schedText
	}
	if err := applyScheduleTimes(cmd, a, &updated); err != nil {
		refuse(cleanup, err.Error())
	}
	updated, err = a.Records.Schedules.Update(ctx, snapshot, updated)
	if err != nil {
		lookupFailed(cleanup, err)
	}
	fmt.Printf("Updated schedule %s.\n", shortID(updated.ID))
	return nil
}

func runScheduleRm(cmd *cobra.Command, args []string) error {
	a, cleanup := openApp()
	defer cleanup()

	ctx := context.Background()
	sc, err := a.Records.Schedules.Lookup(ctx, args[0])
	if err != nil {
		lookupFailed(cleanup, err)
	}
	if err := a.Records.Schedules.Remove(ctx, sc); err != nil {
		lookupFailed(cleanup, err)
	}
	fmt.Printf("Removed schedule %s.\n", shortID(sc.ID))
	return nil
}
