package records

import (
	"context"
	"sort"

	"github.com/Tiliavir/daybook/internal/model"
)

// Deposits tracks monthly savings. At most one entry exists per month.
type Deposits struct {
	c *collection[model.DepositMonth]
}

func NewDeposits(env Env) *Deposits {
	return &Deposits{c: newCollection[model.DepositMonth](env, model.DomainDeposit)}
}

func (d *Deposits) Close() { d.c.close() }

func (d *Deposits) All(ctx context.Context) ([]model.DepositMonth, error) {
	return d.c.read(ctx)
}

func indexOfMonth(list []model.DepositMonth, monthStart int64) int {
	for i, m := range list {
		if m.MonthStartTime == monthStart {
			return i
		}
	}
	return -1
}

// Add appends month after dropping any entry for the same month.
func (d *Deposits) Add(ctx context.Context, month model.DepositMonth) error {
	return d.c.mutate(ctx, func(list []model.DepositMonth) ([]model.DepositMonth, error) {
		if i := indexOfMonth(list, month.MonthStartTime); i >= 0 {
			list = append(list[:i], list[i+1:]...)
		}
		return append(list, month), nil
	})
}

// Update overwrites the existing entry for month's MonthStartTime.
func (d *Deposits) Update(ctx context.Context, month model.DepositMonth) error {
	return d.c.mutate(ctx, func(list []model.DepositMonth) ([]model.DepositMonth, error) {
		i := indexOfMonth(list, month.MonthStartTime)
		if i < 0 {
			return nil, ErrNotFound
		}
		list[i] = month
		return list, nil
	})
}

func (d *Deposits) Remove(ctx context.Context, monthStart int64) error {
	return d.c.mutate(ctx, func(list []model.DepositMonth) ([]model.DepositMonth, error) {
		i := indexOfMonth(list, monthStart)
		if i < 0 {
			return nil, ErrNotFound
		}
		return append(list[:i], list[i+1:]...), nil
	})
}

// Sorted returns every month, oldest first.
func (d *Deposits) Sorted(ctx context.Context) ([]model.DepositMonth, error) {
	list, err := d.c.read(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(list, func(i, j int) bool { return list[i].MonthStartTime < list[j].MonthStartTime })
	return list, nil
}

// DepositSummary aggregates the collection.
type DepositSummary struct {
	Months      int
	Latest      *model.DepositMonth
	TotalIncome int64
	TotalExtra  int64
}

func (d *Deposits) Summary(ctx context.Context) (DepositSummary, error) {
	list, err := d.Sorted(ctx)
	if err != nil {
		return DepositSummary{}, err
	}
	sum := DepositSummary{Months: len(list)}
	for _, m := range list {
		sum.TotalIncome += m.MonthlyIncome
		sum.TotalExtra += m.ExtraDeposit
	}
	if len(list) > 0 {
		latest := list[len(list)-1]
		sum.Latest = &latest
	}
	return sum, nil
}

func (d *Deposits) Replace(ctx context.Context, list []model.DepositMonth) error {
	return d.c.replace(ctx, list)
}

func (d *Deposits) BuildSyncRequest(ctx context.Context, id model.Identity) (*model.SyncRequest, error) {
	return d.c.buildSyncRequest(ctx, id)
}
