package effect

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tiliavir/daybook/internal/model"
)

func TestMailbox_LastEmitWins(t *testing.T) {
	m := NewMailbox[string]()
	m.Emit("V1")
	m.Emit("V2")

	v, ok := m.Poll()
	require.True(t, ok)
	assert.Equal(t, "V2", v)

	_, ok = m.Poll()
	assert.False(t, ok, "value is consumed once")
}

func TestMailbox_TakeWaitsForEmit(t *testing.T) {
	m := NewMailbox[int]()
	go func() {
		time.Sleep(10 * time.Millisecond)
		m.Emit(7)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	v, err := m.Take(ctx)
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}

func TestMailbox_TakeHonoursContext(t *testing.T) {
	m := NewMailbox[int]()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := m.Take(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestMailbox_PollAfterTakeIsEmpty(t *testing.T) {
	m := NewMailbox[int]()
	m.Emit(1)
	v, err := m.Take(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	// The stale notification left behind must not surface a value.
	_, ok := m.Poll()
	assert.False(t, ok)
}

func TestBus_RefreshPerDomain(t *testing.T) {
	b := NewBus()
	b.EmitRefresh(model.DomainMemo)

	_, ok := b.Refresh(model.DomainSchedule).Poll()
	assert.False(t, ok)

	r, ok := b.Refresh(model.DomainMemo).Poll()
	require.True(t, ok)
	assert.Equal(t, model.DomainMemo, r.Domain)

	b.EditMemo.Emit(model.Memo{Text: "draft"})
	memo, ok := b.EditMemo.Poll()
	require.True(t, ok)
	assert.Equal(t, "draft", memo.Text)
}
