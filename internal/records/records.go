// Package records holds the domain helpers. Each helper owns one collection
// stored as a single JSON blob under a preference key and serializes every
// read-modify-write of that blob through its own writer goroutine.
package records

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Tiliavir/daybook/internal/codec"
	"github.com/Tiliavir/daybook/internal/logging"
	"github.com/Tiliavir/daybook/internal/model"
	"github.com/Tiliavir/daybook/internal/prefs"
)

var (
	ErrNotFound     = errors.New("record not found")
	ErrAmbiguous    = errors.New("id prefix matches more than one record")
	ErrNotClockedIn = errors.New("not clocked in today")
	ErrClosed       = errors.New("record helper closed")
)

// Env is what every helper needs: the store, a logger and a clock.
type Env struct {
	Store    prefs.Store
	Logger   logging.Logger
	Now      func() time.Time
	Location *time.Location
}

func (e Env) now() time.Time {
	loc := e.Location
	if loc == nil {
		loc = time.Local
	}
	if e.Now == nil {
		return time.Now().In(loc)
	}
	return e.Now().In(loc)
}

// collection is the single writer for one domain's blob.
type collection[T any] struct {
	env    Env
	domain model.Domain

	tasks     chan func()
	done      chan struct{}
	closeOnce sync.Once
}

func newCollection[T any](env Env, domain model.Domain) *collection[T] {
	if env.Logger == nil {
		env.Logger = logging.Nop{}
	}
	c := &collection[T]{
		env:    env,
		domain: domain,
		tasks:  make(chan func()),
		done:   make(chan struct{}),
	}
	go c.loop()
	return c
}

func (c *collection[T]) loop() {
	for {
		select {
		case task := <-c.tasks:
			task()
		case <-c.done:
			return
		}
	}
}

type result[R any] struct {
	v   R
	err error
}

// submit runs fn on c's writer goroutine and waits for its result. Once
// submitted, fn runs to completion even if ctx ends first.
func submit[T, R any](ctx context.Context, c *collection[T], fn func() (R, error)) (R, error) {
	var zero R
	ch := make(chan result[R], 1)
	task := func() {
		v, err := fn()
		ch <- result[R]{v: v, err: err}
	}

	select {
	case c.tasks <- task:
	case <-c.done:
		return zero, ErrClosed
	case <-ctx.Done():
		return zero, ctx.Err()
	}

	select {
	case r := <-ch:
		return r.v, r.err
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

func (c *collection[T]) do(ctx context.Context, fn func() error) error {
	_, err := submit(ctx, c, func() (struct{}, error) { return struct{}{}, fn() })
	return err
}

func (c *collection[T]) close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// load reads and decodes the blob. Caller runs on the writer goroutine.
func (c *collection[T]) load(ctx context.Context) ([]T, error) {
	raw, _, err := c.env.Store.GetString(ctx, c.domain.PrefKey())
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", c.domain, err)
	}
	return codec.Decode[T](raw, c.domain.Field(), c.env.Logger), nil
}

func (c *collection[T]) save(ctx context.Context, list []T) error {
	if err := c.env.Store.PutString(ctx, c.domain.PrefKey(), codec.Encode(list, c.domain.Field())); err != nil {
		return fmt.Errorf("saving %s: %w", c.domain, err)
	}
	return nil
}

func (c *collection[T]) read(ctx context.Context) ([]T, error) {
	return submit(ctx, c, func() ([]T, error) { return c.load(ctx) })
}

// mutate loads the list, applies fn and writes the result back, all on the
// writer goroutine. Nothing is written when fn fails.
func (c *collection[T]) mutate(ctx context.Context, fn func([]T) ([]T, error)) error {
	_, err := mutateWith(ctx, c, func(list []T) ([]T, struct{}, error) {
		next, err := fn(list)
		return next, struct{}{}, err
	})
	return err
}

// mutateWith is mutate for callers that need a value back from fn.
func mutateWith[T, R any](ctx context.Context, c *collection[T], fn func([]T) ([]T, R, error)) (R, error) {
	return submit(ctx, c, func() (R, error) {
		var zero R
		list, err := c.load(ctx)
		if err != nil {
			return zero, err
		}
		next, v, err := fn(list)
		if err != nil {
			return zero, err
		}
		if err := c.save(ctx, next); err != nil {
			return zero, err
		}
		return v, nil
	})
}

func (c *collection[T]) replace(ctx context.Context, list []T) error {
	return c.do(ctx, func() error { return c.save(ctx, list) })
}

// buildSyncRequest snapshots the collection for a push. It returns nil when
// no one is logged in.
func (c *collection[T]) buildSyncRequest(ctx context.Context, id model.Identity) (*model.SyncRequest, error) {
	if !id.Valid() {
		return nil, nil
	}
	list, err := c.read(ctx)
	if err != nil {
		return nil, err
	}
	return &model.SyncRequest{Username: id.Username, Domain: c.domain, Records: list}, nil
}

// stablePartition returns the items matching first, then the rest, keeping
// relative order inside each bucket.
func stablePartition[T any](list []T, first func(T) bool) []T {
	out := make([]T, 0, len(list))
	for _, v := range list {
		if first(v) {
			out = append(out, v)
		}
	}
	for _, v := range list {
		if !first(v) {
			out = append(out, v)
		}
	}
	return out
}

// findByIDPrefix resolves a (possibly shortened) id.
func findByIDPrefix[T any](list []T, prefix string, id func(T) string) (T, error) {
	var zero T
	if prefix == "" {
		return zero, ErrNotFound
	}
	for _, v := range list {
		if id(v) == prefix {
			return v, nil
		}
	}
	match := -1
	for i, v := range list {
		if !strings.HasPrefix(id(v), prefix) {
			continue
		}
		if match >= 0 {
			return zero, fmt.Errorf("%w: %q", ErrAmbiguous, prefix)
		}
		match = i
	}
	if match < 0 {
		return zero, fmt.Errorf("%w: %q", ErrNotFound, prefix)
	}
	return list[match], nil
}

// Set bundles the four domain helpers over one store.
type Set struct {
	TimeCards *TimeCards
	Memos     *Memos
	Schedules *Schedules
	Deposits  *Deposits
}

func NewSet(env Env) *Set {
	return &Set{
		TimeCards: NewTimeCards(env),
		Memos:     NewMemos(env),
		Schedules: NewSchedules(env),
		Deposits:  NewDeposits(env),
	}
}

// Close stops the writer goroutines. Calls after Close fail with ErrClosed.
func (s *Set) Close() {
	s.TimeCards.Close()
	s.Memos.Close()
	s.Schedules.Close()
	s.Deposits.Close()
}
