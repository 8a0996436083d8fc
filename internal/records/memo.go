package records

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/Tiliavir/daybook/internal/model"
	"github.com/Tiliavir/daybook/internal/timecalc"
)

// Memos manages notes and todos.
type Memos struct {
	c *collection[model.Memo]
}

func NewMemos(env Env) *Memos {
	return &Memos{c: newCollection[model.Memo](env, model.DomainMemo)}
}

func (m *Memos) Close() { m.c.close() }

func (m *Memos) All(ctx context.Context) ([]model.Memo, error) {
	return m.c.read(ctx)
}

func (m *Memos) stamp(memo model.Memo) model.Memo {
	now := timecalc.Millis(m.c.env.now())
	if memo.ID == "" {
		memo.ID = uuid.NewString()
	}
	if memo.CreateTime == 0 {
		memo.CreateTime = now
	}
	if memo.ModifyTime == 0 {
		memo.ModifyTime = now
	}
	return memo
}

// Add appends memo. Duplicates are allowed.
func (m *Memos) Add(ctx context.Context, memo model.Memo) (model.Memo, error) {
	return mutateWith(ctx, m.c, func(list []model.Memo) ([]model.Memo, model.Memo, error) {
		memo = m.stamp(memo)
		return append(list, memo), memo, nil
	})
}

// Update replaces the memo matching snapshot with updated. When nothing
// matches, updated is added as a new memo instead.
func (m *Memos) Update(ctx context.Context, snapshot, updated model.Memo) (model.Memo, error) {
	return mutateWith(ctx, m.c, func(list []model.Memo) ([]model.Memo, model.Memo, error) {
		for i := range list {
			if !list[i].Matches(snapshot) {
				continue
			}
			updated.ID = list[i].ID
			if updated.CreateTime == 0 {
				updated.CreateTime = list[i].CreateTime
			}
			updated.ModifyTime = timecalc.Millis(m.c.env.now())
			updated = m.stamp(updated)
			list[i] = updated
			return list, updated, nil
		}
		updated = m.stamp(updated)
		return append(list, updated), updated, nil
	})
}

func (m *Memos) Remove(ctx context.Context, memo model.Memo) error {
	return m.c.mutate(ctx, func(list []model.Memo) ([]model.Memo, error) {
		for i := range list {
			if list[i].Matches(memo) {
				return append(list[:i], list[i+1:]...), nil
			}
		}
		return nil, ErrNotFound
	})
}

// Lookup resolves a full or shortened id.
func (m *Memos) Lookup(ctx context.Context, idPrefix string) (model.Memo, error) {
	list, err := m.c.read(ctx)
	if err != nil {
		return model.Memo{}, err
	}
	return findByIDPrefix(list, idPrefix, func(v model.Memo) string { return v.ID })
}

// ToggleTodo flips the finished flag of a todo.
func (m *Memos) ToggleTodo(ctx context.Context, memo model.Memo) (model.Memo, error) {
	updated := memo
	updated.IsTodoFinished = !memo.IsTodoFinished
	return m.Update(ctx, memo, updated)
}

func (m *Memos) TogglePin(ctx context.Context, memo model.Memo) (model.Memo, error) {
	updated := memo
	updated.IsPin = !memo.IsPin
	return m.Update(ctx, memo, updated)
}

// DisplayList returns the memos of group ("" for all) with pinned memos
// first. Order inside the pinned and unpinned buckets is preserved.
func (m *Memos) DisplayList(ctx context.Context, group string) ([]model.Memo, error) {
	list, err := m.c.read(ctx)
	if err != nil {
		return nil, err
	}
	if group != "" {
		filtered := list[:0]
		for _, v := range list {
			if v.GroupName() == group {
				filtered = append(filtered, v)
			}
		}
		list = filtered
	}
	return stablePartition(list, func(v model.Memo) bool { return v.IsPin }), nil
}

// Groups returns the distinct group names in use, sorted.
func (m *Memos) Groups(ctx context.Context) ([]string, error) {
	list, err := m.c.read(ctx)
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	var groups []string
	for _, v := range list {
		if g := v.GroupName(); g != "" && !seen[g] {
			seen[g] = true
			groups = append(groups, g)
		}
	}
	sort.Strings(groups)
	return groups, nil
}

func (m *Memos) Replace(ctx context.Context, list []model.Memo) error {
	return m.c.replace(ctx, list)
}

func (m *Memos) BuildSyncRequest(ctx context.Context, id model.Identity) (*model.SyncRequest, error) {
	return m.c.buildSyncRequest(ctx, id)
}
