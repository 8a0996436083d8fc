// Package devserver is a reference sync server speaking the same protocol as
// the production one. It keeps every blob in a prefs.Store and is meant for
// local development and integration tests.
package devserver

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/Tiliavir/daybook/internal/api"
	"github.com/Tiliavir/daybook/internal/logging"
	"github.com/Tiliavir/daybook/internal/metrics"
	"github.com/Tiliavir/daybook/internal/model"
	"github.com/Tiliavir/daybook/internal/prefs"
)

// Response codes carried in the envelope.
const (
	CodeOK           = 0
	CodeBadRequest   = 1
	CodeUnauthorized = 2
	CodeForbidden    = 3
	CodeInternal     = 4
)

const (
	userPrefix  = "server_user:"
	tokenPrefix = "server_token:"
	blobPrefix  = "server_blob:"
)

type Server struct {
	store   prefs.Store
	logger  logging.Logger
	metrics *metrics.Provider
}

// New creates a server over store. A nil provider disables /metrics.
func New(store prefs.Store, logger logging.Logger, provider *metrics.Provider) *Server {
	if logger == nil {
		logger = logging.Nop{}
	}
	return &Server{store: store, logger: logger, metrics: provider}
}

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, api.Envelope{Code: CodeOK})
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/login", s.handleLogin)
		r.Post("/{domain}/sync", s.handlePush)
		r.Get("/{domain}/get", s.handlePull)
	})

	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler())
	}
	return r
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	s.logger.Infof(logging.TypeNet, "Dev server listening on %s", addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		if s.metrics != nil {
			s.metrics.ObserveRequest(route, ww.Status(), time.Since(start))
		}
		s.logger.Debugf(logging.TypeNet, "%s %s -> %d", r.Method, route, ww.Status())
	})
}

func writeEnvelope(w http.ResponseWriter, status int, env api.Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}

func writeError(w http.ResponseWriter, status, code int, msg string) {
	writeEnvelope(w, status, api.Envelope{Code: code, Message: msg})
}

func hashPassword(username, password string) string {
	sum := sha256.Sum256([]byte(username + "\x00" + password))
	return hex.EncodeToString(sum[:])
}

// handleLogin registers unknown users on first login and issues a fresh
// token on every successful login.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req api.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "username and password are required")
		return
	}

	ctx := r.Context()
	want := hashPassword(req.Username, req.Password)
	got, ok, err := s.store.GetString(ctx, userPrefix+req.Username)
	if err != nil {
		s.internalError(w, err)
		return
	}
	if !ok {
		if err := s.store.PutString(ctx, userPrefix+req.Username, want); err != nil {
			s.internalError(w, err)
			return
		}
		s.logger.Infof(logging.TypeNet, "Registered user %s", req.Username)
	} else if got != want {
		writeError(w, http.StatusUnauthorized, CodeUnauthorized, "wrong username or password")
		return
	}

	token := uuid.NewString()
	if err := s.store.PutString(ctx, tokenPrefix+token, req.Username); err != nil {
		s.internalError(w, err)
		return
	}
	data, _ := json.Marshal(api.LoginData{Token: token})
	writeEnvelope(w, http.StatusOK, api.Envelope{Code: CodeOK, Data: data})
}

// authorize resolves the raw Authorization token to its user.
func (s *Server) authorize(w http.ResponseWriter, r *http.Request) (string, bool) {
	token := r.Header.Get("Authorization")
	if token == "" {
		writeError(w, http.StatusUnauthorized, CodeUnauthorized, "missing token")
		return "", false
	}
	user, ok, err := s.store.GetString(r.Context(), tokenPrefix+token)
	if err != nil {
		s.internalError(w, err)
		return "", false
	}
	if !ok {
		writeError(w, http.StatusUnauthorized, CodeUnauthorized, "invalid token")
		return "", false
	}
	return user, true
}

func domainParam(w http.ResponseWriter, r *http.Request) (model.Domain, bool) {
	d, err := model.ParseDomain(chi.URLParam(r, "domain"))
	if err != nil {
		writeError(w, http.StatusNotFound, CodeBadRequest, err.Error())
		return "", false
	}
	return d, true
}

func blobKey(d model.Domain, user string) string {
	return blobPrefix + string(d) + ":" + user
}

func (s *Server) handlePush(w http.ResponseWriter, r *http.Request) {
	d, ok := domainParam(w, r)
	if !ok {
		return
	}
	user, ok := s.authorize(w, r)
	if !ok {
		return
	}

	var body map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid JSON body")
		return
	}
	var username string
	if err := json.Unmarshal(body["username"], &username); err != nil || username == "" {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "username is required")
		return
	}
	if username != user {
		writeError(w, http.StatusForbidden, CodeForbidden, "token does not belong to "+username)
		return
	}
	list, ok := body[d.Field()]
	if !ok || string(list) == "null" {
		list = json.RawMessage("[]")
	}
	var items []json.RawMessage
	if err := json.Unmarshal(list, &items); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, d.Field()+" must be a list")
		return
	}

	blob, err := json.Marshal(map[string]json.RawMessage{d.Field(): list})
	if err != nil {
		s.internalError(w, err)
		return
	}
	if err := s.store.PutString(r.Context(), blobKey(d, user), string(blob)); err != nil {
		s.internalError(w, err)
		return
	}
	s.logger.Infof(logging.TypeNet, "Stored %d %s records for %s", len(items), d, user)
	writeEnvelope(w, http.StatusOK, api.Envelope{Code: CodeOK})
}

func (s *Server) handlePull(w http.ResponseWriter, r *http.Request) {
	d, ok := domainParam(w, r)
	if !ok {
		return
	}
	user, ok := s.authorize(w, r)
	if !ok {
		return
	}
	if username := r.URL.Query().Get("username"); username != user {
		writeError(w, http.StatusForbidden, CodeForbidden, "token does not belong to "+username)
		return
	}

	blob, found, err := s.store.GetString(r.Context(), blobKey(d, user))
	if err != nil {
		s.internalError(w, err)
		return
	}
	if !found {
		blob = `{"` + d.Field() + `":[]}`
	}
	writeEnvelope(w, http.StatusOK, api.Envelope{Code: CodeOK, Data: json.RawMessage(blob)})
}

func (s *Server) internalError(w http.ResponseWriter, err error) {
	s.logger.Errorf(logging.TypeNet, "Request failed: %s", err)
	writeError(w, http.StatusInternalServerError, CodeInternal, "internal error")
}
