// Package app holds the wired object graph the CLI commands work with.
package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/Tiliavir/daybook/internal/api"
	"github.com/Tiliavir/daybook/internal/config"
	"github.com/Tiliavir/daybook/internal/credential"
	"github.com/Tiliavir/daybook/internal/effect"
	"github.com/Tiliavir/daybook/internal/logging"
	"github.com/Tiliavir/daybook/internal/metrics"
	"github.com/Tiliavir/daybook/internal/model"
	"github.com/Tiliavir/daybook/internal/prefs"
	"github.com/Tiliavir/daybook/internal/records"
	"github.com/Tiliavir/daybook/internal/session"
	"github.com/Tiliavir/daybook/internal/syncer"
)

type App struct {
	Config  *config.Config
	Logger  logging.Logger
	Store   *prefs.Observable
	Records *records.Set
	Session *session.Session
	Client  *api.Client
	Bus     *effect.Bus
	Metrics *metrics.Provider
	Syncer  *syncer.Syncer
}

func New(
	cfg *config.Config,
	logger logging.Logger,
	store *prefs.Observable,
	set *records.Set,
	sess *session.Session,
	client *api.Client,
	bus *effect.Bus,
	provider *metrics.Provider,
	sy *syncer.Syncer,
) *App {
	return &App{
		Config:  cfg,
		Logger:  logger,
		Store:   store,
		Records: set,
		Session: sess,
		Client:  client,
		Bus:     bus,
		Metrics: provider,
		Syncer:  sy,
	}
}

// Now returns the current time in the configured zone.
func (a *App) Now() time.Time {
	return time.Now().In(a.Config.Location())
}

// BridgeRefresh emits a refresh effect whenever a domain's blob is written,
// until ctx ends. The returned func waits for the bridge to stop.
func (a *App) BridgeRefresh(ctx context.Context) func() {
	var wg sync.WaitGroup
	for _, d := range model.Domains {
		ch, cancel := a.Store.Watch(d.PrefKey())
		wg.Add(1)
		go func(d model.Domain) {
			defer wg.Done()
			defer cancel()
			for {
				select {
				case <-ctx.Done():
					return
				case _, ok := <-ch:
					if !ok {
						return
					}
					a.Bus.EmitRefresh(d)
				}
			}
		}(d)
	}
	return wg.Wait
}

// FlushMetrics writes the sync metrics textfile when one is configured.
func (a *App) FlushMetrics() {
	if err := a.Metrics.WriteTextfile(a.Config.Metrics.Textfile); err != nil {
		a.Logger.Warnf(logging.TypeApp, "Writing metrics textfile: %s", err)
	}
}

// ProvideLogger builds the configured logger.
func ProvideLogger(cfg *config.Config) (logging.Logger, func(), error) {
	l, err := logging.New(cfg.Logger)
	if err != nil {
		return nil, nil, err
	}
	return l, l.Close, nil
}

// ProvideStore opens the preference store and makes its writes observable.
func ProvideStore(cfg *config.Config, logger logging.Logger) (*prefs.Observable, func(), error) {
	s, err := prefs.Open(cfg.Store, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("opening store: %w", err)
	}
	obs := prefs.NewObservable(s)
	return obs, func() {
		if err := obs.Close(); err != nil {
			logger.Warnf(logging.TypeStore, "Closing store: %s", err)
		}
	}, nil
}

func ProvideRecords(cfg *config.Config, store prefs.Store, logger logging.Logger) (*records.Set, func()) {
	set := records.NewSet(records.Env{
		Store:    store,
		Logger:   logger,
		Now:      time.Now,
		Location: cfg.Location(),
	})
	return set, set.Close
}

func ProvideVault(cfg *config.Config, store prefs.Store) (credential.Vault, error) {
	return credential.Open(cfg.Auth, store)
}

func ProvideClient(cfg *config.Config, logger logging.Logger) *api.Client {
	return api.NewClient(cfg.Server, logger)
}

// ProvideTokenSource reads the stored token once per process and hands the
// same token to every request after that.
func ProvideTokenSource(sess *session.Session) oauth2.TokenSource {
	return oauth2.ReuseTokenSource(nil, sess)
}

func ProvideRecorder(p *metrics.Provider) metrics.Recorder {
	return p
}
