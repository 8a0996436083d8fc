package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/Tiliavir/daybook/internal/model"
	"github.com/Tiliavir/daybook/internal/timecalc"
)

var (
	reportWeek   bool
	reportFrom   string
	reportTo     string
	reportFormat string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Show worked time per day",
	Args:  cobra.NoArgs,
	RunE:  runReport,
}

func init() {
	reportCmd.Flags().BoolVar(&reportWeek, "week", false, "Report for this week (default)")
	reportCmd.Flags().StringVar(&reportFrom, "from", "", "Start date (YYYY-MM-DD)")
	reportCmd.Flags().StringVar(&reportTo, "to", "", "End date (YYYY-MM-DD); defaults to today")
	reportCmd.Flags().StringVar(&reportFormat, "format", "md", "Output format: md, csv, json")
}

type reportDay struct {
	Date          string `json:"date"`
	State         string `json:"state"`
	WorkedMinutes int64  `json:"worked_minutes"`
}

type report struct {
	Label        string      `json:"label"`
	Days         []reportDay `json:"days"`
	TotalMinutes int64       `json:"total_minutes"`
	OpenDays     int         `json:"open_days"`
}

// buildReport aggregates days, which must be sorted oldest first. Days still
// clocked in count as open and contribute no worked time.
func buildReport(label string, days []model.TimeCardDay, loc *time.Location) report {
	r := report{Label: label, Days: make([]reportDay, 0, len(days))}
	for i := range days {
		d := &days[i]
		mins := d.WorkedMillis() / 60000
		if d.State() == model.ClockedIn {
			r.OpenDays++
		}
		r.Days = append(r.Days, reportDay{
			Date:          timecalc.FromMillis(d.DayStartTime, loc).Format("2006-01-02"),
			State:         d.State().String(),
			WorkedMinutes: mins,
		})
		r.TotalMinutes += mins
	}
	return r
}

func runReport(cmd *cobra.Command, args []string) error {
	a, cleanup := openApp()
	defer cleanup()

	now := a.Now()
	loc := a.Config.Location()
	from, to, err := resolveRange(reportFrom, reportTo, now, loc)
	if err != nil {
		refuse(cleanup, err.Error())
	}
	label := timecalc.ISOWeekLabel(from)
	if reportFrom != "" {
		label = from.Format("2006-01-02") + ".." + to.Format("2006-01-02")
	}

	days, err := a.Records.TimeCards.Range(context.Background(), from, to)
	if err != nil {
		fatal(cleanup, err)
	}
	r := buildReport(label, days, loc)

	switch reportFormat {
	case "csv":
		fmt.Println("date,state,worked_minutes")
		for _, d := range r.Days {
			fmt.Printf("%s,%s,%d\n", d.Date, csvEscape(d.State), d.WorkedMinutes)
		}
	case "json":
		data, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			fmt.Fprintln(os.Stderr, "error encoding JSON:", err)
			os.Exit(2)
		}
		fmt.Println(string(data))
	default: // md
		fmt.Printf("Report %s\n", r.Label)
		fmt.Println("--------------------------------")
		for _, d := range r.Days {
			fmt.Printf("%-12s%-14s%s\n", d.Date, d.State, timecalc.FormatDuration(d.WorkedMinutes*60))
		}
		fmt.Println("--------------------------------")
		fmt.Printf("%-26s%s\n", "Total", timecalc.FormatDuration(r.TotalMinutes*60))
		if r.OpenDays > 0 {
			fmt.Printf("(%d day(s) still clocked in)\n", r.OpenDays)
		}
	}
	return nil
}
