package records

import (
	"context"
	"sort"
	"time"

	"github.com/Tiliavir/daybook/internal/model"
	"github.com/Tiliavir/daybook/internal/timecalc"
)

// TimeCards manages daily attendance. The day runs through
// NotClockedIn --Press--> ClockedIn --Run--> ClockedOut and starts over with
// the next dayStartTime key.
type TimeCards struct {
	c *collection[model.TimeCardDay]
}

func NewTimeCards(env Env) *TimeCards {
	return &TimeCards{c: newCollection[model.TimeCardDay](env, model.DomainTimeCard)}
}

func (t *TimeCards) Close() { t.c.close() }

func (t *TimeCards) All(ctx context.Context) ([]model.TimeCardDay, error) {
	return t.c.read(ctx)
}

func indexOfDay(list []model.TimeCardDay, dayStart int64) int {
	for i, d := range list {
		if d.DayStartTime == dayStart {
			return i
		}
	}
	return -1
}

// Today returns today's entry, or nil before the first press.
func (t *TimeCards) Today(ctx context.Context) (*model.TimeCardDay, error) {
	list, err := t.c.read(ctx)
	if err != nil {
		return nil, err
	}
	i := indexOfDay(list, timecalc.DayStart(t.c.env.now()))
	if i < 0 {
		return nil, nil
	}
	day := list[i]
	return &day, nil
}

func (t *TimeCards) State(ctx context.Context) (model.TimeCardState, error) {
	day, err := t.Today(ctx)
	if err != nil {
		return model.NotClockedIn, err
	}
	return day.State(), nil
}

// Press finds or creates today's entry and sets its card time to now.
func (t *TimeCards) Press(ctx context.Context) (model.TimeCardDay, error) {
	return mutateWith(ctx, t.c, func(list []model.TimeCardDay) ([]model.TimeCardDay, model.TimeCardDay, error) {
		now := t.c.env.now()
		dayStart := timecalc.DayStart(now)
		if i := indexOfDay(list, dayStart); i >= 0 {
			list[i].LatestTimeCard = timecalc.Millis(now)
			return list, list[i], nil
		}
		day := model.TimeCardDay{DayStartTime: dayStart, LatestTimeCard: timecalc.Millis(now)}
		return append(list, day), day, nil
	})
}

// Run sets today's run time to now. Without a press today it returns
// ErrNotClockedIn and leaves the collection untouched.
func (t *TimeCards) Run(ctx context.Context) (model.TimeCardDay, error) {
	return mutateWith(ctx, t.c, func(list []model.TimeCardDay) ([]model.TimeCardDay, model.TimeCardDay, error) {
		now := t.c.env.now()
		i := indexOfDay(list, timecalc.DayStart(now))
		if i < 0 {
			return nil, model.TimeCardDay{}, ErrNotClockedIn
		}
		run := timecalc.Millis(now)
		list[i].LatestTimeRun = &run
		return list, list[i], nil
	})
}

// Add stores day, replacing any entry with the same DayStartTime.
func (t *TimeCards) Add(ctx context.Context, day model.TimeCardDay) error {
	return t.c.mutate(ctx, func(list []model.TimeCardDay) ([]model.TimeCardDay, error) {
		if i := indexOfDay(list, day.DayStartTime); i >= 0 {
			list = append(list[:i], list[i+1:]...)
		}
		return append(list, day), nil
	})
}

// Update overwrites the entry with day's DayStartTime.
func (t *TimeCards) Update(ctx context.Context, day model.TimeCardDay) error {
	return t.c.mutate(ctx, func(list []model.TimeCardDay) ([]model.TimeCardDay, error) {
		i := indexOfDay(list, day.DayStartTime)
		if i < 0 {
			return nil, ErrNotFound
		}
		list[i] = day
		return list, nil
	})
}

func (t *TimeCards) Remove(ctx context.Context, dayStart int64) error {
	return t.c.mutate(ctx, func(list []model.TimeCardDay) ([]model.TimeCardDay, error) {
		i := indexOfDay(list, dayStart)
		if i < 0 {
			return nil, ErrNotFound
		}
		return append(list[:i], list[i+1:]...), nil
	})
}

// Range returns the entries with from <= day <= to, oldest first.
func (t *TimeCards) Range(ctx context.Context, from, to time.Time) ([]model.TimeCardDay, error) {
	list, err := t.c.read(ctx)
	if err != nil {
		return nil, err
	}
	lo, hi := timecalc.Millis(from), timecalc.Millis(to)
	out := make([]model.TimeCardDay, 0, len(list))
	for _, d := range list {
		if d.DayStartTime >= lo && d.DayStartTime <= hi {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DayStartTime < out[j].DayStartTime })
	return out, nil
}

// Replace overwrites the whole collection.
func (t *TimeCards) Replace(ctx context.Context, list []model.TimeCardDay) error {
	return t.c.replace(ctx, list)
}

// BuildSyncRequest returns nil when id is not logged in.
func (t *TimeCards) BuildSyncRequest(ctx context.Context, id model.Identity) (*model.SyncRequest, error) {
	return t.c.buildSyncRequest(ctx, id)
}
