package records

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tiliavir/daybook/internal/codec"
	"github.com/Tiliavir/daybook/internal/logging"
	"github.com/Tiliavir/daybook/internal/model"
	"github.com/Tiliavir/daybook/internal/prefs"
)

// fakeClock is a settable clock for tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func newTestEnv(t *testing.T, start time.Time) (Env, *fakeClock, *prefs.MemoryStore) {
	t.Helper()
	clock := &fakeClock{now: start}
	store := prefs.NewMemoryStore()
	return Env{Store: store, Logger: logging.Nop{}, Now: clock.Now, Location: time.UTC}, clock, store
}

func TestCollection_ClosedRejectsCalls(t *testing.T) {
	env, _, _ := newTestEnv(t, time.Date(2026, 2, 27, 9, 0, 0, 0, time.UTC))
	memos := NewMemos(env)
	memos.Close()
	memos.Close()

	_, err := memos.All(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
}

func TestCollection_CanceledContext(t *testing.T) {
	env, _, _ := newTestEnv(t, time.Date(2026, 2, 27, 9, 0, 0, 0, time.UTC))
	memos := NewMemos(env)
	defer memos.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := memos.Add(ctx, model.Memo{Text: "x"})
	assert.True(t, errors.Is(err, context.Canceled) || err == nil)
}

func TestCollection_ConcurrentAddsAreNotLost(t *testing.T) {
	env, _, _ := newTestEnv(t, time.Date(2026, 2, 27, 9, 0, 0, 0, time.UTC))
	memos := NewMemos(env)
	defer memos.Close()
	ctx := context.Background()

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := memos.Add(ctx, model.Memo{Text: "parallel"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	all, err := memos.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, n)
}

func TestCollection_UnreadableBlobIsEmpty(t *testing.T) {
	env, _, store := newTestEnv(t, time.Date(2026, 2, 27, 9, 0, 0, 0, time.UTC))
	ctx := context.Background()
	require.NoError(t, store.PutString(ctx, model.DomainDeposit.PrefKey(), "{broken"))

	deposits := NewDeposits(env)
	defer deposits.Close()

	all, err := deposits.All(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	require.NoError(t, deposits.Add(ctx, model.DepositMonth{MonthStartTime: 1}))
	all, err = deposits.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestBuildSyncRequest_Anonymous(t *testing.T) {
	env, _, _ := newTestEnv(t, time.Date(2026, 2, 27, 9, 0, 0, 0, time.UTC))
	set := NewSet(env)
	defer set.Close()
	ctx := context.Background()

	for _, id := range []model.Identity{{}, {Username: "alice"}, {Token: "t"}} {
		req, err := set.Memos.BuildSyncRequest(ctx, id)
		require.NoError(t, err)
		assert.Nil(t, req)
		req, err = set.TimeCards.BuildSyncRequest(ctx, id)
		require.NoError(t, err)
		assert.Nil(t, req)
	}
}

func TestBuildSyncRequest_CarriesRecords(t *testing.T) {
	env, _, _ := newTestEnv(t, time.Date(2026, 2, 27, 9, 0, 0, 0, time.UTC))
	set := NewSet(env)
	defer set.Close()
	ctx := context.Background()

	require.NoError(t, set.Deposits.Add(ctx, model.DepositMonth{MonthStartTime: 7, CurrentAmount: 100}))

	req, err := set.Deposits.BuildSyncRequest(ctx, model.Identity{Username: "alice", Token: "tok"})
	require.NoError(t, err)
	require.NotNil(t, req)
	assert.Equal(t, "alice", req.Username)
	assert.Equal(t, model.DomainDeposit, req.Domain)
	assert.Equal(t, []model.DepositMonth{{MonthStartTime: 7, CurrentAmount: 100}}, req.Records)
}

func TestReplace_OverwritesCollection(t *testing.T) {
	env, _, store := newTestEnv(t, time.Date(2026, 2, 27, 9, 0, 0, 0, time.UTC))
	schedules := NewSchedules(env)
	defer schedules.Close()
	ctx := context.Background()

	_, err := schedules.Add(ctx, model.Schedule{Text: "local"})
	require.NoError(t, err)

	remote := []model.Schedule{{ID: "r1", Text: "remote"}}
	require.NoError(t, schedules.Replace(ctx, remote))

	all, err := schedules.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, remote, all)

	raw, _, _ := store.GetString(ctx, model.DomainSchedule.PrefKey())
	assert.Equal(t, codec.Encode(remote, "schedules"), raw)
}

func TestFindByIDPrefix(t *testing.T) {
	list := []model.Memo{{ID: "abc123"}, {ID: "abd456"}, {ID: "ab"}}
	id := func(m model.Memo) string { return m.ID }

	m, err := findByIDPrefix(list, "abc", id)
	require.NoError(t, err)
	assert.Equal(t, "abc123", m.ID)

	m, err = findByIDPrefix(list, "ab", id)
	require.NoError(t, err)
	assert.Equal(t, "ab", m.ID)

	_, err = findByIDPrefix(list[:2], "ab", id)
	assert.ErrorIs(t, err, ErrAmbiguous)

	_, err = findByIDPrefix(list, "zz", id)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = findByIDPrefix(list, "", id)
	assert.ErrorIs(t, err, ErrNotFound)
}
