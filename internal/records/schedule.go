package records

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/Tiliavir/daybook/internal/model"
)

// Schedules manages calendar entries and milestones.
type Schedules struct {
	c *collection[model.Schedule]
}

func NewSchedules(env Env) *Schedules {
	return &Schedules{c: newCollection[model.Schedule](env, model.DomainSchedule)}
}

func (s *Schedules) Close() { s.c.close() }

func (s *Schedules) All(ctx context.Context) ([]model.Schedule, error) {
	return s.c.read(ctx)
}

func (s *Schedules) Add(ctx context.Context, sc model.Schedule) (model.Schedule, error) {
	return mutateWith(ctx, s.c, func(list []model.Schedule) ([]model.Schedule, model.Schedule, error) {
		if sc.ID == "" {
			sc.ID = uuid.NewString()
		}
		return append(list, sc), sc, nil
	})
}

// Update replaces the schedule matching snapshot.
func (s *Schedules) Update(ctx context.Context, snapshot, updated model.Schedule) (model.Schedule, error) {
	return mutateWith(ctx, s.c, func(list []model.Schedule) ([]model.Schedule, model.Schedule, error) {
		for i := range list {
			if !list[i].Matches(snapshot) {
				continue
			}
			updated.ID = list[i].ID
			if updated.ID == "" {
				updated.ID = uuid.NewString()
			}
			list[i] = updated
			return list, updated, nil
		}
		return nil, model.Schedule{}, ErrNotFound
	})
}

func (s *Schedules) Remove(ctx context.Context, sc model.Schedule) error {
	return s.c.mutate(ctx, func(list []model.Schedule) ([]model.Schedule, error) {
		for i := range list {
			if list[i].Matches(sc) {
				return append(list[:i], list[i+1:]...), nil
			}
		}
		return nil, ErrNotFound
	})
}

func (s *Schedules) Lookup(ctx context.Context, idPrefix string) (model.Schedule, error) {
	list, err := s.c.read(ctx)
	if err != nil {
		return model.Schedule{}, err
	}
	return findByIDPrefix(list, idPrefix, func(v model.Schedule) string { return v.ID })
}

// DisplayList returns milestones first, keeping stored order in each bucket.
func (s *Schedules) DisplayList(ctx context.Context) ([]model.Schedule, error) {
	list, err := s.c.read(ctx)
	if err != nil {
		return nil, err
	}
	return stablePartition(list, func(v model.Schedule) bool { return v.IsMilestone }), nil
}

// ForDay returns the schedules of one day: all-day entries first, then by
// starting time.
func (s *Schedules) ForDay(ctx context.Context, dayStart int64) ([]model.Schedule, error) {
	list, err := s.c.read(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.Schedule, 0, len(list))
	for _, v := range list {
		if v.DayStartTime == dayStart {
			out = append(out, v)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].IsAllDay != out[j].IsAllDay {
			return out[i].IsAllDay
		}
		return out[i].StartingTime < out[j].StartingTime
	})
	return out, nil
}

func (s *Schedules) Replace(ctx context.Context, list []model.Schedule) error {
	return s.c.replace(ctx, list)
}

func (s *Schedules) BuildSyncRequest(ctx context.Context, id model.Identity) (*model.SyncRequest, error) {
	return s.c.buildSyncRequest(ctx, id)
}
