package devserver

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/Tiliavir/daybook/internal/api"
	"github.com/Tiliavir/daybook/internal/logging"
	"github.com/Tiliavir/daybook/internal/metrics"
	"github.com/Tiliavir/daybook/internal/model"
	"github.com/Tiliavir/daybook/internal/prefs"
)

func newTestServer(t *testing.T) (*httptest.Server, *api.Client, *metrics.Provider) {
	t.Helper()
	provider := metrics.New()
	srv := httptest.NewServer(New(prefs.NewMemoryStore(), logging.Nop{}, provider).Handler())
	t.Cleanup(srv.Close)
	return srv, api.NewClientWithHTTP(srv.URL, &http.Client{Timeout: 5 * time.Second}, nil), provider
}

func TestServer_LoginRegistersThenChecksPassword(t *testing.T) {
	_, c, _ := newTestServer(t)
	ctx := context.Background()

	first, err := c.Login(ctx, "alice", "pw")
	require.NoError(t, err)
	second, err := c.Login(ctx, "alice", "pw")
	require.NoError(t, err)
	assert.NotEqual(t, first.AccessToken, second.AccessToken)

	_, err = c.Login(ctx, "alice", "wrong")
	var se *api.ServerError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, CodeUnauthorized, se.Code)

	_, err = c.Login(ctx, "", "pw")
	require.ErrorAs(t, err, &se)
	assert.Equal(t, CodeBadRequest, se.Code)
}

func TestServer_PushThenPull(t *testing.T) {
	_, c, _ := newTestServer(t)
	ctx := context.Background()
	tok, err := c.Login(ctx, "alice", "pw")
	require.NoError(t, err)
	ts := oauth2.StaticTokenSource(tok)

	empty, err := api.Pull[model.Memo](ctx, c, model.DomainMemo, ts, "alice")
	require.NoError(t, err)
	assert.Empty(t, empty)

	group := "work"
	memos := []model.Memo{
		{ID: "m1", Text: "one", IsPin: true, CreateTime: 1, ModifyTime: 1, Group: &group},
		{ID: "m2", Text: "two", IsTodo: true, CreateTime: 2, ModifyTime: 3},
	}
	require.NoError(t, c.Push(ctx, ts, &model.SyncRequest{Username: "alice", Domain: model.DomainMemo, Records: memos}))

	got, err := api.Pull[model.Memo](ctx, c, model.DomainMemo, ts, "alice")
	require.NoError(t, err)
	assert.Equal(t, memos, got)

	// Push replaces the server copy.
	require.NoError(t, c.Push(ctx, ts, &model.SyncRequest{Username: "alice", Domain: model.DomainMemo, Records: memos[:1]}))
	got, err = api.Pull[model.Memo](ctx, c, model.DomainMemo, ts, "alice")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestServer_UsersAreIsolated(t *testing.T) {
	_, c, _ := newTestServer(t)
	ctx := context.Background()
	aliceTok, err := c.Login(ctx, "alice", "pw")
	require.NoError(t, err)
	bobTok, err := c.Login(ctx, "bob", "pw")
	require.NoError(t, err)
	alice, bob := oauth2.StaticTokenSource(aliceTok), oauth2.StaticTokenSource(bobTok)

	require.NoError(t, c.Push(ctx, alice, &model.SyncRequest{
		Username: "alice", Domain: model.DomainDeposit,
		Records: []model.DepositMonth{{MonthStartTime: 1, CurrentAmount: 5}},
	}))

	got, err := api.Pull[model.DepositMonth](ctx, c, model.DomainDeposit, bob, "bob")
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = api.Pull[model.DepositMonth](ctx, c, model.DomainDeposit, bob, "alice")
	var se *api.ServerError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, CodeForbidden, se.Code)

	err = c.Push(ctx, bob, &model.SyncRequest{Username: "alice", Domain: model.DomainDeposit})
	require.ErrorAs(t, err, &se)
	assert.Equal(t, CodeForbidden, se.Code)
}

func TestServer_RejectsBadTokenAndDomain(t *testing.T) {
	srv, c, _ := newTestServer(t)
	ctx := context.Background()

	err := c.Push(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "forged"}), &model.SyncRequest{Username: "a", Domain: model.DomainMemo})
	var se *api.ServerError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, CodeUnauthorized, se.Code)

	resp, err := http.Get(srv.URL + "/api/weather/get?username=a")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_RejectsNonListPayload(t *testing.T) {
	srv, c, _ := newTestServer(t)
	tok, err := c.Login(context.Background(), "alice", "pw")
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/memo/sync", strings.NewReader(`{"username":"alice","memos":{"x":1}}`))
	require.NoError(t, err)
	req.Header.Set("Authorization", tok.AccessToken)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServer_Metrics(t *testing.T) {
	srv, c, _ := newTestServer(t)
	_, err := c.Login(context.Background(), "alice", "pw")
	require.NoError(t, err)

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), `daybook_server_requests_total{route="/api/login",status="2xx"} 1`)
}

func TestServer_ListenAndServeStopsOnCancel(t *testing.T) {
	s := New(prefs.NewMemoryStore(), nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx, "127.0.0.1:0") }()

	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
