package records

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tiliavir/daybook/internal/model"
)

func TestSchedules_DisplayListMilestonesFirst(t *testing.T) {
	env, _, _ := newTestEnv(t, time.Date(2026, 2, 27, 9, 0, 0, 0, time.UTC))
	schedules := NewSchedules(env)
	defer schedules.Close()
	ctx := context.Background()

	for _, s := range []model.Schedule{
		{Text: "A"},
		{Text: "B", IsMilestone: true, MilestoneGoal: 10},
		{Text: "C"},
		{Text: "D", IsMilestone: true},
	} {
		_, err := schedules.Add(ctx, s)
		require.NoError(t, err)
	}

	list, err := schedules.DisplayList(ctx)
	require.NoError(t, err)
	var texts []string
	for _, s := range list {
		texts = append(texts, s.Text)
	}
	assert.Equal(t, []string{"B", "D", "A", "C"}, texts)
}

func TestSchedules_UpdateAndRemove(t *testing.T) {
	env, _, _ := newTestEnv(t, time.Date(2026, 2, 27, 9, 0, 0, 0, time.UTC))
	schedules := NewSchedules(env)
	defer schedules.Close()
	ctx := context.Background()

	a, err := schedules.Add(ctx, model.Schedule{Text: "standup", DayStartTime: 1, StartingTime: 2, EndingTime: 3})
	require.NoError(t, err)
	b, err := schedules.Add(ctx, model.Schedule{Text: "standup", DayStartTime: 1, StartingTime: 2, EndingTime: 3})
	require.NoError(t, err)

	moved := b
	moved.StartingTime = 10
	moved.EndingTime = 11
	got, err := schedules.Update(ctx, b, moved)
	require.NoError(t, err)
	assert.Equal(t, b.ID, got.ID)

	all, _ := schedules.All(ctx)
	require.Len(t, all, 2)
	assert.Equal(t, a, all[0])
	assert.Equal(t, int64(10), all[1].StartingTime)

	_, err = schedules.Update(ctx, model.Schedule{ID: "missing"}, moved)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, schedules.Remove(ctx, a))
	assert.ErrorIs(t, schedules.Remove(ctx, a), ErrNotFound)
}

func TestSchedules_LegacyStructuralIdentity(t *testing.T) {
	env, _, store := newTestEnv(t, time.Date(2026, 2, 27, 9, 0, 0, 0, time.UTC))
	ctx := context.Background()
	legacy := `{"schedules":[{"text":"x","day_start_time":1,"starting_time":2,"ending_time":3,"is_all_day":false,"is_milestone":false,"milestone_goal":0}]}`
	require.NoError(t, store.PutString(ctx, model.DomainSchedule.PrefKey(), legacy))

	schedules := NewSchedules(env)
	defer schedules.Close()

	snapshot := model.Schedule{Text: "x", DayStartTime: 1, StartingTime: 2, EndingTime: 3}
	assert.ErrorIs(t, schedules.Remove(ctx, model.Schedule{Text: "x", DayStartTime: 1, StartingTime: 2, EndingTime: 4}), ErrNotFound)
	require.NoError(t, schedules.Remove(ctx, snapshot))
}

func TestSchedules_ForDay(t *testing.T) {
	env, _, _ := newTestEnv(t, time.Date(2026, 2, 27, 9, 0, 0, 0, time.UTC))
	schedules := NewSchedules(env)
	defer schedules.Close()
	ctx := context.Background()

	for _, s := range []model.Schedule{
		{Text: "late", DayStartTime: 100, StartingTime: 300},
		{Text: "other day", DayStartTime: 200, StartingTime: 50},
		{Text: "early", DayStartTime: 100, StartingTime: 150},
		{Text: "holiday", DayStartTime: 100, IsAllDay: true, StartingTime: 999},
	} {
		_, err := schedules.Add(ctx, s)
		require.NoError(t, err)
	}

	day, err := schedules.ForDay(ctx, 100)
	require.NoError(t, err)
	var texts []string
	for _, s := range day {
		texts = append(texts, s.Text)
	}
	assert.Equal(t, []string{"holiday", "early", "late"}, texts)

	found, err := schedules.Lookup(ctx, day[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "holiday", found.Text)
}
