package records

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tiliavir/daybook/internal/model"
)

func strp(s string) *string { return &s }

func TestMemos_DisplayListPinnedFirst(t *testing.T) {
	env, _, _ := newTestEnv(t, time.Date(2026, 2, 27, 9, 0, 0, 0, time.UTC))
	memos := NewMemos(env)
	defer memos.Close()
	ctx := context.Background()

	for _, m := range []model.Memo{
		{Text: "A"},
		{Text: "B", IsPin: true},
		{Text: "C"},
		{Text: "D", IsPin: true},
	} {
		_, err := memos.Add(ctx, m)
		require.NoError(t, err)
	}

	list, err := memos.DisplayList(ctx, "")
	require.NoError(t, err)
	var texts []string
	for _, m := range list {
		texts = append(texts, m.Text)
	}
	assert.Equal(t, []string{"B", "D", "A", "C"}, texts)

	all, _ := memos.All(ctx)
	assert.Equal(t, "A", all[0].Text, "display order must not reorder storage")
}

func TestMemos_AddStampsAndAllowsDuplicates(t *testing.T) {
	now := time.Date(2026, 2, 27, 9, 0, 0, 0, time.UTC)
	env, _, _ := newTestEnv(t, now)
	memos := NewMemos(env)
	defer memos.Close()
	ctx := context.Background()

	a, err := memos.Add(ctx, model.Memo{Text: "same"})
	require.NoError(t, err)
	b, err := memos.Add(ctx, model.Memo{Text: "same"})
	require.NoError(t, err)

	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, now.UnixMilli(), a.CreateTime)
	assert.Equal(t, now.UnixMilli(), a.ModifyTime)

	all, _ := memos.All(ctx)
	assert.Len(t, all, 2)
}

func TestMemos_UpdateByID(t *testing.T) {
	start := time.Date(2026, 2, 27, 9, 0, 0, 0, time.UTC)
	env, clock, _ := newTestEnv(t, start)
	memos := NewMemos(env)
	defer memos.Close()
	ctx := context.Background()

	orig, err := memos.Add(ctx, model.Memo{Text: "draft"})
	require.NoError(t, err)
	twin, err := memos.Add(ctx, model.Memo{Text: "draft"})
	require.NoError(t, err)

	clock.Set(start.Add(time.Minute))
	edited := twin
	edited.Text = "final"
	got, err := memos.Update(ctx, twin, edited)
	require.NoError(t, err)
	assert.Equal(t, twin.ID, got.ID)
	assert.Equal(t, start.UnixMilli(), got.CreateTime)
	assert.Equal(t, start.Add(time.Minute).UnixMilli(), got.ModifyTime)

	all, _ := memos.All(ctx)
	require.Len(t, all, 2)
	assert.Equal(t, orig, all[0], "identical twin must stay untouched")
	assert.Equal(t, "final", all[1].Text)
}

func TestMemos_UpdateLegacyByValue(t *testing.T) {
	env, _, store := newTestEnv(t, time.Date(2026, 2, 27, 9, 0, 0, 0, time.UTC))
	ctx := context.Background()
	legacy := `{"memos":[{"text":"old","is_todo":true,"is_todo_finished":false,"is_pin":false,"create_time":5,"modify_time":6,"group":"work"}]}`
	require.NoError(t, store.PutString(ctx, model.DomainMemo.PrefKey(), legacy))

	memos := NewMemos(env)
	defer memos.Close()

	snapshot := model.Memo{Text: "old", IsTodo: true, IsTodoFinished: true, CreateTime: 5, ModifyTime: 6, Group: strp("work")}
	updated := snapshot
	updated.Text = "new"
	got, err := memos.Update(ctx, snapshot, updated)
	require.NoError(t, err)
	assert.NotEmpty(t, got.ID, "legacy record gains an id on first update")

	all, _ := memos.All(ctx)
	require.Len(t, all, 1)
	assert.Equal(t, "new", all[0].Text)
	assert.Equal(t, int64(5), all[0].CreateTime)
}

func TestMemos_UpdateWithoutMatchAdds(t *testing.T) {
	env, _, _ := newTestEnv(t, time.Date(2026, 2, 27, 9, 0, 0, 0, time.UTC))
	memos := NewMemos(env)
	defer memos.Close()
	ctx := context.Background()

	_, err := memos.Add(ctx, model.Memo{Text: "existing"})
	require.NoError(t, err)

	ghost := model.Memo{ID: "does-not-exist", Text: "ghost"}
	got, err := memos.Update(ctx, ghost, model.Memo{Text: "created by update"})
	require.NoError(t, err)
	assert.NotEmpty(t, got.ID)

	all, _ := memos.All(ctx)
	require.Len(t, all, 2)
	assert.Equal(t, "created by update", all[1].Text)
}

func TestMemos_RemoveAndToggles(t *testing.T) {
	env, _, _ := newTestEnv(t, time.Date(2026, 2, 27, 9, 0, 0, 0, time.UTC))
	memos := NewMemos(env)
	defer memos.Close()
	ctx := context.Background()

	todo, err := memos.Add(ctx, model.Memo{Text: "ship it", IsTodo: true})
	require.NoError(t, err)

	done, err := memos.ToggleTodo(ctx, todo)
	require.NoError(t, err)
	assert.True(t, done.IsTodoFinished)

	pinned, err := memos.TogglePin(ctx, done)
	require.NoError(t, err)
	assert.True(t, pinned.IsPin)

	found, err := memos.Lookup(ctx, todo.ID[:8])
	require.NoError(t, err)
	assert.Equal(t, pinned, found)

	require.NoError(t, memos.Remove(ctx, found))
	assert.ErrorIs(t, memos.Remove(ctx, found), ErrNotFound)
	all, _ := memos.All(ctx)
	assert.Empty(t, all)
}

func TestMemos_Groups(t *testing.T) {
	env, _, _ := newTestEnv(t, time.Date(2026, 2, 27, 9, 0, 0, 0, time.UTC))
	memos := NewMemos(env)
	defer memos.Close()
	ctx := context.Background()

	for _, m := range []model.Memo{
		{Text: "1", Group: strp("work")},
		{Text: "2", Group: strp("home"), IsPin: true},
		{Text: "3"},
		{Text: "4", Group: strp("work"), IsPin: true},
	} {
		_, err := memos.Add(ctx, m)
		require.NoError(t, err)
	}

	groups, err := memos.Groups(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"home", "work"}, groups)

	work, err := memos.DisplayList(ctx, "work")
	require.NoError(t, err)
	require.Len(t, work, 2)
	assert.Equal(t, "4", work[0].Text)
	assert.Equal(t, "1", work[1].Text)
}

func TestMemo_MatchesIgnoresFinishedFlag(t *testing.T) {
	a := model.Memo{Text: "t", IsTodo: true, CreateTime: 1, ModifyTime: 2}
	b := a
	b.IsTodoFinished = true
	assert.True(t, a.Matches(b))

	b.Group = strp("")
	assert.False(t, a.Matches(b), "absent group differs from empty group")
}
