package records

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tiliavir/daybook/internal/model"
	"github.com/Tiliavir/daybook/internal/timecalc"
)

func TestTimeCards_RunBeforePressFails(t *testing.T) {
	env, _, store := newTestEnv(t, time.Date(2026, 2, 27, 9, 0, 0, 0, time.UTC))
	cards := NewTimeCards(env)
	defer cards.Close()
	ctx := context.Background()

	_, err := cards.Run(ctx)
	assert.ErrorIs(t, err, ErrNotClockedIn)

	_, ok, _ := store.GetString(ctx, model.DomainTimeCard.PrefKey())
	assert.False(t, ok, "a failed run must not write")

	state, err := cards.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.NotClockedIn, state)
}

func TestTimeCards_PressTwiceKeepsOneEntry(t *testing.T) {
	start := time.Date(2026, 2, 27, 9, 0, 0, 0, time.UTC)
	env, clock, _ := newTestEnv(t, start)
	cards := NewTimeCards(env)
	defer cards.Close()
	ctx := context.Background()

	first, err := cards.Press(ctx)
	require.NoError(t, err)
	assert.Equal(t, timecalc.DayStart(start), first.DayStartTime)
	assert.Equal(t, start.UnixMilli(), first.LatestTimeCard)

	later := start.Add(45 * time.Minute)
	clock.Set(later)
	second, err := cards.Press(ctx)
	require.NoError(t, err)
	assert.Equal(t, later.UnixMilli(), second.LatestTimeCard)

	all, err := cards.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, later.UnixMilli(), all[0].LatestTimeCard)
}

func TestTimeCards_DailyStateMachine(t *testing.T) {
	start := time.Date(2026, 2, 27, 9, 0, 0, 0, time.UTC)
	env, clock, _ := newTestEnv(t, start)
	cards := NewTimeCards(env)
	defer cards.Close()
	ctx := context.Background()

	_, err := cards.Press(ctx)
	require.NoError(t, err)
	state, _ := cards.State(ctx)
	assert.Equal(t, model.ClockedIn, state)

	clock.Set(start.Add(8 * time.Hour))
	day, err := cards.Run(ctx)
	require.NoError(t, err)
	require.NotNil(t, day.LatestTimeRun)
	assert.Equal(t, int64(8*time.Hour/time.Millisecond), day.WorkedMillis())
	state, _ = cards.State(ctx)
	assert.Equal(t, model.ClockedOut, state)

	// Next calendar day starts over.
	clock.Set(start.Add(24 * time.Hour))
	state, _ = cards.State(ctx)
	assert.Equal(t, model.NotClockedIn, state)
	_, err = cards.Run(ctx)
	assert.ErrorIs(t, err, ErrNotClockedIn)

	_, err = cards.Press(ctx)
	require.NoError(t, err)
	all, _ := cards.All(ctx)
	assert.Len(t, all, 2)
}

func TestTimeCards_PressAfterRunClocksInAgain(t *testing.T) {
	start := time.Date(2026, 2, 27, 9, 0, 0, 0, time.UTC)
	env, clock, _ := newTestEnv(t, start)
	cards := NewTimeCards(env)
	defer cards.Close()
	ctx := context.Background()

	_, _ = cards.Press(ctx)
	clock.Set(start.Add(time.Hour))
	_, _ = cards.Run(ctx)
	clock.Set(start.Add(2 * time.Hour))
	_, _ = cards.Press(ctx)

	state, _ := cards.State(ctx)
	assert.Equal(t, model.ClockedIn, state)
}

func TestTimeCards_AddReplacesSameDay(t *testing.T) {
	env, _, _ := newTestEnv(t, time.Date(2026, 2, 27, 9, 0, 0, 0, time.UTC))
	cards := NewTimeCards(env)
	defer cards.Close()
	ctx := context.Background()

	require.NoError(t, cards.Add(ctx, model.TimeCardDay{DayStartTime: 100, LatestTimeCard: 101}))
	require.NoError(t, cards.Add(ctx, model.TimeCardDay{DayStartTime: 200, LatestTimeCard: 201}))
	require.NoError(t, cards.Add(ctx, model.TimeCardDay{DayStartTime: 100, LatestTimeCard: 150}))

	all, err := cards.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.TimeCardDay{
		{DayStartTime: 200, LatestTimeCard: 201},
		{DayStartTime: 100, LatestTimeCard: 150},
	}, all)
}

func TestTimeCards_UpdateRemoveRange(t *testing.T) {
	env, _, _ := newTestEnv(t, time.Date(2026, 2, 27, 9, 0, 0, 0, time.UTC))
	cards := NewTimeCards(env)
	defer cards.Close()
	ctx := context.Background()

	d1 := time.Date(2026, 2, 23, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2026, 2, 25, 0, 0, 0, 0, time.UTC)
	d3 := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	for _, d := range []time.Time{d3, d1, d2} {
		require.NoError(t, cards.Add(ctx, model.TimeCardDay{DayStartTime: d.UnixMilli(), LatestTimeCard: d.Add(9 * time.Hour).UnixMilli()}))
	}

	assert.ErrorIs(t, cards.Update(ctx, model.TimeCardDay{DayStartTime: 1}), ErrNotFound)
	run := d2.Add(17 * time.Hour).UnixMilli()
	require.NoError(t, cards.Update(ctx, model.TimeCardDay{DayStartTime: d2.UnixMilli(), LatestTimeCard: d2.Add(9 * time.Hour).UnixMilli(), LatestTimeRun: &run}))

	from, to := timecalc.WeekRange(d2)
	week, err := cards.Range(ctx, from, to)
	require.NoError(t, err)
	require.Len(t, week, 2)
	assert.Equal(t, d1.UnixMilli(), week[0].DayStartTime)
	assert.Equal(t, int64(8*time.Hour/time.Millisecond), week[1].WorkedMillis())

	require.NoError(t, cards.Remove(ctx, d1.UnixMilli()))
	assert.ErrorIs(t, cards.Remove(ctx, d1.UnixMilli()), ErrNotFound)
	all, _ := cards.All(ctx)
	assert.Len(t, all, 2)
}
