// Package syncer pushes and pulls whole domain collections to and from the
// sync server. The server copy and the local copy never merge: a push
// replaces the server's set, a pull replaces the local one.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/Tiliavir/daybook/internal/api"
	"github.com/Tiliavir/daybook/internal/effect"
	"github.com/Tiliavir/daybook/internal/logging"
	"github.com/Tiliavir/daybook/internal/metrics"
	"github.com/Tiliavir/daybook/internal/model"
	"github.com/Tiliavir/daybook/internal/records"
	"github.com/Tiliavir/daybook/internal/session"
	"github.com/Tiliavir/daybook/internal/timecalc"
)

// ErrNoIdentity aborts a sync before any network call when nobody is logged in.
var ErrNoIdentity = errors.New("not logged in: run dbk login first")

type Mode string

const (
	ModePush Mode = "push"
	ModePull Mode = "pull"
)

// ParseMode converts user input into a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModePush, ModePull:
		return Mode(s), nil
	}
	return "", fmt.Errorf("unknown sync mode %q (want push or pull)", s)
}

// Status is the last outcome of a domain. Failed stays set until the next
// successful push or pull of that domain.
type Status struct {
	Failed      bool
	LastError   string
	LastSuccess time.Time
}

// Result reports one domain of a SyncAll run.
type Result struct {
	Domain  model.Domain
	Mode    Mode
	Records int
	Err     error
}

type Syncer struct {
	set     *records.Set
	client  *api.Client
	session *session.Session
	tokens  oauth2.TokenSource
	bus     *effect.Bus
	metrics metrics.Recorder
	logger  logging.Logger
	now     func() time.Time
}

// New builds a Syncer. tokens supplies the credential of every request; when
// it reports session.ErrNotLoggedIn the sync aborts with ErrNoIdentity.
func New(set *records.Set, client *api.Client, sess *session.Session, tokens oauth2.TokenSource, bus *effect.Bus, rec metrics.Recorder, logger logging.Logger) *Syncer {
	if rec == nil {
		rec = metrics.Nop{}
	}
	if logger == nil {
		logger = logging.Nop{}
	}
	if tokens == nil {
		tokens = oauth2.ReuseTokenSource(nil, sess)
	}
	return &Syncer{
		set:     set,
		client:  client,
		session: sess,
		tokens:  tokens,
		bus:     bus,
		metrics: rec,
		logger:  logger,
		now:     time.Now,
	}
}

// Status returns the last outcome of d as persisted in the preference store,
// so a failure is still reported by a later process.
func (s *Syncer) Status(ctx context.Context, d model.Domain) (Status, error) {
	st, err := s.session.SyncState(ctx, d)
	if err != nil {
		return Status{}, err
	}
	out := Status{Failed: st.Failed, LastError: st.LastError}
	if st.LastSuccess != 0 {
		out.LastSuccess = timecalc.FromMillis(st.LastSuccess, time.Local)
	}
	return out, nil
}

// record persists the outcome of one push or pull. A failure keeps the time
// of the last success.
func (s *Syncer) record(ctx context.Context, d model.Domain, err error) {
	st, loadErr := s.session.SyncState(ctx, d)
	if loadErr != nil {
		s.logger.Warnf(logging.TypeSync, "Reading sync status of %s: %s", d, loadErr)
	}
	if err != nil {
		st.Failed = true
		st.LastError = err.Error()
		if ok, msg := api.PushStatus(err); !ok && msg != "" {
			st.LastError = msg
		}
	} else {
		st = session.SyncState{LastSuccess: timecalc.Millis(s.now())}
	}
	// The outcome is recorded even when the caller's context is done.
	if saveErr := s.session.SaveSyncState(context.WithoutCancel(ctx), d, st); saveErr != nil {
		s.logger.Warnf(logging.TypeSync, "Saving sync status of %s: %s", d, saveErr)
	}
}

// identity returns the logged-in identity, or ErrNoIdentity when the token
// source has nothing to offer. No request is made.
func (s *Syncer) identity(ctx context.Context) (model.Identity, error) {
	if _, err := s.tokens.Token(); err != nil {
		if errors.Is(err, session.ErrNotLoggedIn) {
			return model.Identity{}, ErrNoIdentity
		}
		return model.Identity{}, err
	}
	return s.session.Identity(ctx)
}

func (s *Syncer) buildRequest(ctx context.Context, d model.Domain, id model.Identity) (*model.SyncRequest, error) {
	switch d {
	case model.DomainTimeCard:
		return s.set.TimeCards.BuildSyncRequest(ctx, id)
	case model.DomainMemo:
		return s.set.Memos.BuildSyncRequest(ctx, id)
	case model.DomainSchedule:
		return s.set.Schedules.BuildSyncRequest(ctx, id)
	case model.DomainDeposit:
		return s.set.Deposits.BuildSyncRequest(ctx, id)
	}
	return nil, fmt.Errorf("unknown domain %q", d)
}

// Push uploads the local collection of d and returns the number of records
// sent. Without a logged-in identity it fails with ErrNoIdentity and the
// network is never touched.
func (s *Syncer) Push(ctx context.Context, d model.Domain) (int, error) {
	id, err := s.identity(ctx)
	if err != nil {
		return 0, err
	}
	req, err := s.buildRequest(ctx, d, id)
	if err != nil {
		return 0, err
	}
	if req == nil {
		s.logger.Debugf(logging.TypeSync, "Skipping push of %s: not logged in", d)
		return 0, ErrNoIdentity
	}

	start := time.Now()
	err = s.client.Push(ctx, s.tokens, req)
	if errors.Is(err, session.ErrNotLoggedIn) {
		return 0, ErrNoIdentity
	}
	s.metrics.ObserveSync(string(d), string(ModePush), err, time.Since(start))
	s.record(ctx, d, err)
	if err != nil {
		s.logger.Warnf(logging.TypeSync, "Push of %s failed: %s", d, err)
		return 0, err
	}

	n := recordCount(req.Records)
	s.metrics.SetRecords(string(d), n)
	if err := s.session.StampSync(ctx, s.now()); err != nil {
		return n, err
	}
	s.logger.Infof(logging.TypeSync, "Pushed %d %s records", n, d)
	return n, nil
}

// Pull replaces the local collection of d with the server's and returns the
// number of records received. A failed call leaves local data untouched.
func (s *Syncer) Pull(ctx context.Context, d model.Domain) (int, error) {
	id, err := s.identity(ctx)
	if err != nil {
		return 0, err
	}

	start := time.Now()
	var n int
	switch d {
	case model.DomainTimeCard:
		n, err = pullInto(ctx, s.client, d, s.tokens, id.Username, s.set.TimeCards.Replace)
	case model.DomainMemo:
		n, err = pullInto(ctx, s.client, d, s.tokens, id.Username, s.set.Memos.Replace)
	case model.DomainSchedule:
		n, err = pullInto(ctx, s.client, d, s.tokens, id.Username, s.set.Schedules.Replace)
	case model.DomainDeposit:
		n, err = pullInto(ctx, s.client, d, s.tokens, id.Username, s.set.Deposits.Replace)
	default:
		return 0, fmt.Errorf("unknown domain %q", d)
	}
	if errors.Is(err, session.ErrNotLoggedIn) {
		return 0, ErrNoIdentity
	}
	s.metrics.ObserveSync(string(d), string(ModePull), err, time.Since(start))
	s.record(ctx, d, err)
	if err != nil {
		s.logger.Warnf(logging.TypeSync, "Pull of %s failed: %s", d, err)
		return 0, err
	}

	s.metrics.SetRecords(string(d), n)
	if err := s.session.StampSync(ctx, s.now()); err != nil {
		return n, err
	}
	if s.bus != nil {
		s.bus.EmitRefresh(d)
	}
	s.logger.Infof(logging.TypeSync, "Pulled %d %s records", n, d)
	return n, nil
}

func pullInto[T any](ctx context.Context, c *api.Client, d model.Domain, ts oauth2.TokenSource, username string, replace func(context.Context, []T) error) (int, error) {
	list, err := api.Pull[T](ctx, c, d, ts, username)
	if err != nil {
		return 0, err
	}
	if err := replace(ctx, list); err != nil {
		return 0, err
	}
	return len(list), nil
}

// SyncAll runs mode on every domain concurrently. A failing domain does not
// stop the others. Results follow model.Domains order.
func (s *Syncer) SyncAll(ctx context.Context, mode Mode) []Result {
	results := make([]Result, len(model.Domains))
	var wg sync.WaitGroup
	for i, d := range model.Domains {
		wg.Add(1)
		go func(i int, d model.Domain) {
			defer wg.Done()
			var n int
			var err error
			if mode == ModePull {
				n, err = s.Pull(ctx, d)
			} else {
				n, err = s.Push(ctx, d)
			}
			results[i] = Result{Domain: d, Mode: mode, Records: n, Err: err}
		}(i, d)
	}
	wg.Wait()
	return results
}

func recordCount(v any) int {
	switch list := v.(type) {
	case []model.TimeCardDay:
		return len(list)
	case []model.Memo:
		return len(list)
	case []model.Schedule:
		return len(list)
	case []model.DepositMonth:
		return len(list)
	}
	return 0
}
