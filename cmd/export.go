package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/Tiliavir/daybook/internal/app"
	"github.com/Tiliavir/daybook/internal/model"
	"github.com/Tiliavir/daybook/internal/timecalc"
)

var (
	exportFormat string
	exportDomain string
	exportFrom   string
	exportTo     string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a collection to stdout",
	Args:  cobra.NoArgs,
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "csv", "Output format: csv, json, md")
	exportCmd.Flags().StringVar(&exportDomain, "domain", string(model.DomainTimeCard), "Collection: timecard, memo, schedule, deposit")
	exportCmd.Flags().StringVar(&exportFrom, "from", "", "Time cards from (YYYY-MM-DD); default this week")
	exportCmd.Flags().StringVar(&exportTo, "to", "", "Time cards to (YYYY-MM-DD)")
}

func runExport(cmd *cobra.Command, args []string) error {
	d, err := model.ParseDomain(exportDomain)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	a, cleanup := openApp()
	defer cleanup()

	if err := exportDomainTo(context.Background(), a, d); err != nil {
		fatal(cleanup, err)
	}
	return nil
}

func exportDomainTo(ctx context.Context, a *app.App, d model.Domain) error {
	loc := a.Config.Location()
	switch d {
	case model.DomainTimeCard:
		from, to, err := resolveRange(exportFrom, exportTo, a.Now(), loc)
		if err != nil {
			return err
		}
		days, err := a.Records.TimeCards.Range(ctx, from, to)
		if err != nil {
			return err
		}
		return emit(days, func() { printCards(days, loc) }, func() { writeCardsCSV(os.Stdout, days, loc) })
	case model.DomainMemo:
		list, err := a.Records.Memos.DisplayList(ctx, "")
		if err != nil {
			return err
		}
		return emit(list, func() { printMemos(list) }, func() { writeMemosCSV(os.Stdout, list, loc) })
	case model.DomainSchedule:
		list, err := a.Records.Schedules.DisplayList(ctx)
		if err != nil {
			return err
		}
		return emit(list, func() { printSchedules(list, loc, true) }, func() { writeSchedulesCSV(os.Stdout, list, loc) })
	default:
		list, err := a.Records.Deposits.Sorted(ctx)
		if err != nil {
			return err
		}
		return emit(list, func() { printDeposits(list, loc) }, func() { writeDepositsCSV(os.Stdout, list, loc) })
	}
}

func emit(v any, md, csv func()) error {
	switch exportFormat {
	case "json":
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("error encoding JSON: %w", err)
		}
		fmt.Println(string(data))
	case "md":
		md()
	default: // csv
		csv()
	}
	return nil
}

func writeCardsCSV(w io.Writer, days []model.TimeCardDay, loc *time.Location) {
	fmt.Fprintln(w, "date,clock_in,clock_out,worked_minutes")
	for _, d := range days {
		out := ""
		if d.LatestTimeRun != nil {
			out = timecalc.FromMillis(*d.LatestTimeRun, loc).Format(time.RFC3339)
		}
		fmt.Fprintf(w, "%s,%s,%s,%d\n",
			timecalc.FromMillis(d.DayStartTime, loc).Format("2006-01-02"),
			timecalc.FromMillis(d.LatestTimeCard, loc).Format(time.RFC3339),
			out,
			d.WorkedMillis()/60000)
	}
}

func writeMemosCSV(w io.Writer, list []model.Memo, loc *time.Location) {
	fmt.Fprintln(w, "id,text,group,todo,finished,pinned,created,modified")
	for _, m := range list {
		fmt.Fprintf(w, "%s,%s,%s,%t,%t,%t,%s,%s\n",
			csvEscape(m.ID),
			csvEscape(m.Text),
			csvEscape(m.GroupName()),
			m.IsTodo, m.IsTodoFinished, m.IsPin,
			timecalc.FromMillis(m.CreateTime, loc).Format(time.RFC3339),
			timecalc.FromMillis(m.ModifyTime, loc).Format(time.RFC3339))
	}
}

func writeSchedulesCSV(w io.Writer, list []model.Schedule, loc *time.Location) {
	fmt.Fprintln(w, "id,date,text,all_day,start,end,milestone,goal")
	for _, s := range list {
		start, end := "", ""
		if !s.IsAllDay {
			start = timecalc.FromMillis(s.StartingTime, loc).Format("15:04")
			if s.EndingTime != 0 {
				end = timecalc.FromMillis(s.EndingTime, loc).Format("15:04")
			}
		}
		fmt.Fprintf(w, "%s,%s,%s,%t,%s,%s,%t,%d\n",
			csvEscape(s.ID),
			timecalc.FromMillis(s.DayStartTime, loc).Format("2006-01-02"),
			csvEscape(s.Text),
			s.IsAllDay, start, end, s.IsMilestone, s.MilestoneGoal)
	}
}

func writeDepositsCSV(w io.Writer, list []model.DepositMonth, loc *time.Location) {
	fmt.Fprintln(w, "month,current_amount,monthly_income,extra_deposit")
	for _, m := range list {
		fmt.Fprintf(w, "%s,%s,%s,%s\n",
			timecalc.FromMillis(m.MonthStartTime, loc).Format("2006-01"),
			timecalc.FormatCents(m.CurrentAmount),
			timecalc.FormatCents(m.MonthlyIncome),
			timecalc.FormatCents(m.ExtraDeposit))
	}
}

// csvEscape quotes a field holding a comma, quote or line break. Quotes
// inside are doubled.
func csvEscape(s string) string {
	if !strings.ContainsAny(s, ",\"\r\n") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
