package cmd

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/daybook/internal/model"
	"github.com/Tiliavir/daybook/internal/records"
	"github.com/Tiliavir/daybook/internal/timecalc"
)

var (
	depositAmount string
	depositIncome string
	depositExtra  string
)

var depositCmd = &cobra.Command{
	Use:   "deposit",
	Short: "Track monthly savings",
}

var depositAddCmd = &cobra.Command{
	Use:   "add [YYYY-MM]",
	Short: "Record a month (replaces an existing entry for that month)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runDepositAdd,
}

var depositEditCmd = &cobra.Command{
	Use:   "edit <YYYY-MM>",
	Short: "Change fields of an existing month",
	Args:  cobra.ExactArgs(1),
	RunE:  runDepositEdit,
}

var depositListCmd = &cobra.Command{
	Use:   "list",
	Short: "List months, oldest first",
	Args:  cobra.NoArgs,
	RunE:  runDepositList,
}

var depositRmCmd = &cobra.Command{
	Use:   "rm <YYYY-MM>",
	Short: "Delete a month",
	Args:  cobra.ExactArgs(1),
	RunE:  runDepositRm,
}

var depositSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show savings totals",
	Args:  cobra.NoArgs,
	RunE:  runDepositSummary,
}

func init() {
	for _, c := range []*cobra.Command{depositAddCmd, depositEditCmd} {
		c.Flags().StringVar(&depositAmount, "amount", "", "Current balance, e.g. 1200.50")
		c.Flags().StringVar(&depositIncome, "income", "", "Monthly income")
		c.Flags().StringVar(&depositExtra, "extra", "", "Extra deposit this month")
	}
	depositCmd.AddCommand(depositAddCmd, depositEditCmd, depositListCmd, depositRmCmd, depositSummaryCmd)
}

// parseAmount converts a decimal amount such as "12.5" or "-3.05" to cents.
func parseAmount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" && frac == "" {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	if len(frac) > 2 {
		return 0, fmt.Errorf("invalid amount %q: at most two decimals", s)
	}
	var units int64
	if whole != "" {
		v, err := strconv.ParseInt(whole, 10, 64)
		if err != nil || v < 0 {
			return 0, fmt.Errorf("invalid amount %q", s)
		}
		units = v
	}
	var cents int64
	if frac != "" {
		v, err := strconv.ParseInt(frac, 10, 64)
		if err != nil || v < 0 {
			return 0, fmt.Errorf("invalid amount %q", s)
		}
		if len(frac) == 1 {
			v *= 10
		}
		cents = v
	}
	total := units*100 + cents
	if neg {
		total = -total
	}
	return total, nil
}

// applyDepositFlags overwrites the fields whose flags were given.
func applyDepositFlags(cmd *cobra.Command, m *model.DepositMonth) error {
	fields := []struct {
		flag string
		src  string
		dst  *int64
	}{
		{"amount", depositAmount, &m.CurrentAmount},
		{"income", depositIncome, &m.MonthlyIncome},
		{"extra", depositExtra, &m.ExtraDeposit},
	}
	for _, f := range fields {
		if !cmd.Flags().Changed(f.flag) {
			continue
		}
		v, err := parseAmount(f.src)
		if err != nil {
			return err
		}
		*f.dst = v
	}
	return nil
}

func runDepositAdd(cmd *cobra.Command, args []string) error {
	a, cleanup := openApp()
	defer cleanup()

	s := ""
	if len(args) == 1 {
		s = args[0]
	}
	month, err := timecalc.ParseMonth(s, a.Now(), a.Config.Location())
	if err != nil {
		refuse(cleanup, err.Error())
	}
	m := model.DepositMonth{MonthStartTime: timecalc.MonthStart(month)}
	if err := applyDepositFlags(cmd, &m); err != nil {
		refuse(cleanup, err.Error())
	}
	if err := a.Records.Deposits.Add(context.Background(), m); err != nil {
		fatal(cleanup, err)
	}
	fmt.Printf("Recorded %s.\n", month.Format("2006-01"))
	return nil
}

func runDepositEdit(cmd *cobra.Command, args []string) error {
	a, cleanup := openApp()
	defer cleanup()

	ctx := context.Background()
	month, err := timecalc.ParseMonth(args[0], a.Now(), a.Config.Location())
	if err != nil {
		refuse(cleanup, err.Error())
	}
	key := timecalc.MonthStart(month)
	list, err := a.Records.Deposits.Sorted(ctx)
	if err != nil {
		fatal(cleanup, err)
	}
	var m *model.DepositMonth
	for i := range list {
		if list[i].MonthStartTime == key {
			m = &list[i]
			break
		}
	}
	if m == nil {
		refuse(cleanup, fmt.Sprintf("No entry for %s.", month.Format("2006-01")))
	}
	if err := applyDepositFlags(cmd, m); err != nil {
		refuse(cleanup, err.Error())
	}
	if err := a.Records.Deposits.Update(ctx, *m); err != nil {
		lookupFailed(cleanup, err)
	}
	fmt.Printf("Updated %s.\n", month.Format("2006-01"))
	return nil
}

func runDepositList(cmd *cobra.Command, args []string) error {
	a, cleanup := openApp()
	defer cleanup()

	list, err := a.Records.Deposits.Sorted(context.Background())
	if err != nil {
		fatal(cleanup, err)
	}
	printDeposits(list, a.Config.Location())
	return nil
}

func printDeposits(list []model.DepositMonth, loc *time.Location) {
	if len(list) == 0 {
		fmt.Println("No deposits recorded.")
		return
	}
	fmt.Printf("%-8s  %12s  %12s  %12s\n", "month", "balance", "income", "extra")
	for _, m := range list {
		fmt.Printf("%-8s  %12s  %12s  %12s\n",
			timecalc.FromMillis(m.MonthStartTime, loc).Format("2006-01"),
			timecalc.FormatCents(m.CurrentAmount),
			timecalc.FormatCents(m.MonthlyIncome),
			timecalc.FormatCents(m.ExtraDeposit))
	}
}

func runDepositRm(cmd *cobra.Command, args []string) error {
	a, cleanup := openApp()
	defer cleanup()

	month, err := timecalc.ParseMonth(args[0], a.Now(), a.Config.Location())
	if err != nil {
		refuse(cleanup, err.Error())
	}
	err = a.Records.Deposits.Remove(context.Background(), timecalc.MonthStart(month))
	if errors.Is(err, records.ErrNotFound) {
		refuse(cleanup, fmt.Sprintf("No entry for %s.", month.Format("2006-01")))
	}
	if err != nil {
		fatal(cleanup, err)
	}
	fmt.Printf("Removed %s.\n", month.Format("2006-01"))
	return nil
}

func runDepositSummary(cmd *cobra.Command, args []string) error {
	a, cleanup := openApp()
	defer cleanup()

	sum, err := a.Records.Deposits.Summary(context.Background())
	if err != nil {
		fatal(cleanup, err)
	}
	if sum.Latest == nil {
		fmt.Println("No deposits recorded.")
		return nil
	}
	fmt.Printf("Months:        %d\n", sum.Months)
	fmt.Printf("Balance:       %s (%s)\n",
		timecalc.FormatCents(sum.Latest.CurrentAmount),
		timecalc.FromMillis(sum.Latest.MonthStartTime, a.Config.Location()).Format("2006-01"))
	fmt.Printf("Total income:  %s\n", timecalc.FormatCents(sum.TotalIncome))
	fmt.Printf("Total extra:   %s\n", timecalc.FormatCents(sum.TotalExtra))
	return nil
}
