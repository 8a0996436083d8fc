// Package session tracks who is logged in to the sync server and when the
// last successful sync happened.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"golang.org/x/oauth2"

	"github.com/Tiliavir/daybook/internal/credential"
	"github.com/Tiliavir/daybook/internal/model"
	"github.com/Tiliavir/daybook/internal/prefs"
	"github.com/Tiliavir/daybook/internal/timecalc"
)

const (
	KeyUsername = "auth_username"
	KeyToken    = "auth_token"
	KeyLastSync = "last_sync"

	// KeySyncStatusPrefix is followed by the domain name.
	KeySyncStatusPrefix = "sync_status_"
)

var ErrNotLoggedIn = errors.New("not logged in")

// Session reads and writes the login state. The username and last sync time
// live in the preference store; the token lives in the vault.
type Session struct {
	store prefs.Store
	vault credential.Vault
}

var _ oauth2.TokenSource = (*Session)(nil)

func New(store prefs.Store, vault credential.Vault) *Session {
	return &Session{store: store, vault: vault}
}

// Identity returns the stored username and token. Missing values are empty.
func (s *Session) Identity(ctx context.Context) (model.Identity, error) {
	user, _, err := s.store.GetString(ctx, KeyUsername)
	if err != nil {
		return model.Identity{}, fmt.Errorf("reading username: %w", err)
	}
	tok, _, err := s.vault.Get(ctx, KeyToken)
	if err != nil {
		return model.Identity{}, fmt.Errorf("reading token: %w", err)
	}
	return model.Identity{Username: user, Token: tok}, nil
}

// Save stores the identity returned by a successful login.
func (s *Session) Save(ctx context.Context, username string, tok *oauth2.Token) error {
	if username == "" || tok == nil || tok.AccessToken == "" {
		return errors.New("username and token are required")
	}
	if err := s.vault.Set(ctx, KeyToken, tok.AccessToken); err != nil {
		return err
	}
	if err := s.store.PutString(ctx, KeyUsername, username); err != nil {
		return fmt.Errorf("saving username: %w", err)
	}
	return nil
}

// Clear forgets the identity. The last sync stamp is kept.
func (s *Session) Clear(ctx context.Context) error {
	if err := s.vault.Delete(ctx, KeyToken); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, KeyUsername); err != nil {
		return fmt.Errorf("clearing username: %w", err)
	}
	return nil
}

// Token implements oauth2.TokenSource over the stored raw token.
func (s *Session) Token() (*oauth2.Token, error) {
	id, err := s.Identity(context.Background())
	if err != nil {
		return nil, err
	}
	if !id.Valid() {
		return nil, ErrNotLoggedIn
	}
	return &oauth2.Token{AccessToken: id.Token}, nil
}

// LastSync returns the time of the last successful push or pull, or the zero
// time when there has been none.
func (s *Session) LastSync(ctx context.Context) (time.Time, error) {
	ms, ok, err := prefs.GetInt64(ctx, s.store, KeyLastSync)
	if err != nil {
		return time.Time{}, fmt.Errorf("reading last sync: %w", err)
	}
	if !ok {
		return time.Time{}, nil
	}
	return timecalc.FromMillis(ms, time.Local), nil
}

func (s *Session) StampSync(ctx context.Context, t time.Time) error {
	if err := prefs.PutInt64(ctx, s.store, KeyLastSync, timecalc.Millis(t)); err != nil {
		return fmt.Errorf("stamping last sync: %w", err)
	}
	return nil
}

// SyncState is the persisted outcome of the last push or pull of a domain.
type SyncState struct {
	Failed      bool   `json:"failed"`
	LastError   string `json:"last_error,omitempty"`
	LastSuccess int64  `json:"last_success,omitempty"`
}

// SyncState returns the stored state of d. A missing or unreadable entry is
// the zero state.
func (s *Session) SyncState(ctx context.Context, d model.Domain) (SyncState, error) {
	raw, ok, err := s.store.GetString(ctx, KeySyncStatusPrefix+string(d))
	if err != nil {
		return SyncState{}, fmt.Errorf("reading sync status of %s: %w", d, err)
	}
	var st SyncState
	if !ok || raw == "" {
		return st, nil
	}
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		return SyncState{}, nil
	}
	return st, nil
}

func (s *Session) SaveSyncState(ctx context.Context, d model.Domain, st SyncState) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encoding sync status of %s: %w", d, err)
	}
	if err := s.store.PutString(ctx, KeySyncStatusPrefix+string(d), string(data)); err != nil {
		return fmt.Errorf("saving sync status of %s: %w", d, err)
	}
	return nil
}
