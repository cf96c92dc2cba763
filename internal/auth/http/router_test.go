package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	httpapi "github.com/aussiebroadwan/realmauth/internal/auth/http"
	"github.com/aussiebroadwan/realmauth/internal/auth/service"
	"github.com/aussiebroadwan/realmauth/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/realmauth/pkg/authsdk"
	"github.com/aussiebroadwan/realmauth/pkg/httpx"
	"github.com/aussiebroadwan/realmauth/pkg/jwtx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const inviteCode = "let-me-in"

type outbox struct {
	mu        sync.Mutex
	tokens    map[string]string // email -> last token
	passwords map[string]string
}

func newOutbox() *outbox {
	return &outbox{tokens: map[string]string{}, passwords: map[string]string{}}
}

func (o *outbox) SendConfirmation(_ context.Context, token, email string, _ uint32) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.tokens["confirm:"+email] = token
	return nil
}

func (o *outbox) SendRecovery(_ context.Context, token, email string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.tokens["recover:"+email] = token
	return nil
}

func (o *outbox) SendPassword(_ context.Context, password, email string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.passwords[email] = password
	return nil
}

func (o *outbox) get(m map[string]string, key string) string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return m[key]
}

type testServer struct {
	client *authsdk.SDKClient
	url    string
	outbox *outbox
	store  *sqlite.Store
}

func newTestServer(t *testing.T, limits httpx.Profiles) *testServer {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	signer, err := jwtx.NewHMACSigner([]byte("test-secret"), "", 0)
	require.NoError(t, err)

	box := newOutbox()
	router := httpapi.NewRouter(signer, "test", st, st, limits, nil)
	router.AccountService = &service.AccountService{
		Config:   service.Config{InviteCode: inviteCode},
		Accounts: st,
		Tokens:   st,
		Sessions: signer,
		Mailer:   box,
		Pepper:   []byte("0123456789abcdef"),
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewCounter(prometheus.CounterOpts{Name: "realmauth_test_total", Help: "test"}))
	router.Gatherer = reg
	router.ApplyRoutes()

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &testServer{
		client: authsdk.NewSDKClient(srv.URL),
		url:    srv.URL,
		outbox: box,
		store:  st,
	}
}

func unlimited() httpx.Profiles { return httpx.Profiles{} }

func TestAccountFlow(t *testing.T) {
	ctx := context.Background()
	ts := newTestServer(t, unlimited())

	reg, err := ts.client.Register(ctx, authsdk.RegisterRequest{
		InviteCode: inviteCode, Username: "Bob", Password: "secret123", Email: "bob@x.com",
	})
	require.NoError(t, err)
	require.Equal(t, uint32(1), reg.ID)
	require.NotEmpty(t, reg.Token)

	login, err := ts.client.LoginRaw(ctx, "bob", "SECRET123")
	require.NoError(t, err)
	assert.Equal(t, "BOB", login.Username)
	assert.Equal(t, "bob@x.com", login.Email)
	assert.Equal(t, uint8(0), login.AccessLevel)

	sess := ts.client.NewSession(login.ID, login.Token)

	name, err := sess.Username(ctx, login.ID)
	require.NoError(t, err)
	assert.Equal(t, "BOB", name)

	require.NoError(t, sess.ChangePassword(ctx, "secret123", "newpass"))
	_, err = ts.client.Login(ctx, "bob", "secret123")
	require.ErrorIs(t, err, authsdk.ErrInvalidLoginBadPassword)

	sess, err = ts.client.Login(ctx, "bob", "newpass")
	require.NoError(t, err)

	require.NoError(t, sess.ChangeEmail(ctx, "new@x.com"))
	token := ts.outbox.get(ts.outbox.tokens, "confirm:new@x.com")
	require.Regexp(t, `^[0-9a-f]{40}$`, token)

	text, err := ts.client.Activate(ctx, sess.AccountID(), token)
	require.NoError(t, err)
	assert.Equal(t, httpapi.TextActivated, text)

	text, err = ts.client.Activate(ctx, sess.AccountID(), token)
	require.NoError(t, err)
	assert.Equal(t, httpapi.TextAlreadyActivated, text)

	require.NoError(t, sess.ResendConfirmation(ctx, "new@x.com"))
}

func TestRegisterErrors(t *testing.T) {
	ctx := context.Background()
	ts := newTestServer(t, unlimited())

	_, err := ts.client.Register(ctx, authsdk.RegisterRequest{
		InviteCode: "wrong", Username: "bob", Password: "secret123", Email: "bob@x.com",
	})
	var apiErr *authsdk.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	assert.Equal(t, authsdk.ErrorCodeInvalidInviteCode, apiErr.Code)

	_, err = ts.client.Register(ctx, authsdk.RegisterRequest{
		InviteCode: inviteCode, Username: "bob", Password: "secret123", Email: "bob@x.com",
	})
	require.NoError(t, err)

	_, err = ts.client.Register(ctx, authsdk.RegisterRequest{
		InviteCode: inviteCode, Username: "BOB", Password: "secret123", Email: "b2@x.com",
	})
	require.ErrorIs(t, err, authsdk.ErrDuplicateUsername)
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.StatusCode)

	_, err = ts.client.Register(ctx, authsdk.RegisterRequest{
		InviteCode: inviteCode, Username: "x", Password: "secret123", Email: "b2@x.com",
	})
	require.ErrorIs(t, err, authsdk.ErrInvalidUsername)

	_, err = ts.client.LoginRaw(ctx, "bob@x.com", "secret123")
	require.ErrorIs(t, err, authsdk.ErrInvalidLoginIsEmail)
}

func TestMalformedBody(t *testing.T) {
	ts := newTestServer(t, unlimited())

	for _, body := range []string{`{`, `{"username":"bob","extra":1}`, `{"username":"bob"}{}`} {
		resp, err := http.Post(ts.url+"/v1/accounts/login", "application/json", strings.NewReader(body))
		require.NoError(t, err)

		var out authsdk.ErrorResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
		_ = resp.Body.Close()

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, body)
		assert.Equal(t, authsdk.ErrorCodeInvalidRequest, out.Error, body)
	}
}

func TestSignedInEndpointsRequireSession(t *testing.T) {
	ctx := context.Background()
	ts := newTestServer(t, unlimited())

	anon := ts.client.NewSession(1, "")
	require.ErrorIs(t, anon.ChangePassword(ctx, "a", "bbbb"), authsdk.ErrNotSignedIn)
	require.ErrorIs(t, anon.ChangeEmail(ctx, "a@x.com"), authsdk.ErrNotSignedIn)
	require.ErrorIs(t, anon.ResendConfirmation(ctx, "a@x.com"), authsdk.ErrNotSignedIn)

	forged := ts.client.NewSession(1, "not.a.jwt")
	_, err := forged.Username(ctx, 1)
	require.ErrorIs(t, err, authsdk.ErrNotSignedIn)
}

func TestRecoveryLinks(t *testing.T) {
	ctx := context.Background()
	ts := newTestServer(t, unlimited())

	_, err := ts.client.Register(ctx, authsdk.RegisterRequest{
		InviteCode: inviteCode, Username: "bob", Password: "secret123", Email: "bob@x.com",
	})
	require.NoError(t, err)

	text, err := ts.client.ConsumeRecoveryLink(ctx, "nobody@x.com", "x")
	require.NoError(t, err)
	assert.Equal(t, httpapi.TextRecoveryNoAccount, text)

	err = ts.client.RecoverPassword(ctx, "nobody@x.com")
	require.ErrorIs(t, err, authsdk.ErrInvalidEmail)

	require.NoError(t, ts.client.RecoverPassword(ctx, "bob@x.com"))
	token := ts.outbox.get(ts.outbox.tokens, "recover:bob@x.com")
	require.NotEmpty(t, token)

	text, err = ts.client.ConsumeRecoveryLink(ctx, "bob@x.com", "wrong")
	require.NoError(t, err)
	assert.Equal(t, httpapi.TextRecoveryMismatch, text)

	text, err = ts.client.ConsumeRecoveryLink(ctx, "bob@x.com", token)
	require.NoError(t, err)
	assert.Equal(t, httpapi.TextPasswordSent, text)

	password := ts.outbox.get(ts.outbox.passwords, "bob@x.com")
	_, err = ts.client.Login(ctx, "bob", password)
	require.NoError(t, err)

	text, err = ts.client.ConsumeRecoveryLink(ctx, "bob@x.com", token)
	require.NoError(t, err)
	assert.Equal(t, httpapi.TextRecoveryMismatch, text)
}

func TestActivationLinkErrors(t *testing.T) {
	ctx := context.Background()
	ts := newTestServer(t, unlimited())

	text, err := ts.client.Activate(ctx, 42, "x")
	require.NoError(t, err)
	assert.Equal(t, httpapi.TextActivationNotFound, text)

	_, err = ts.client.Register(ctx, authsdk.RegisterRequest{
		InviteCode: inviteCode, Username: "bob", Password: "secret123", Email: "bob@x.com",
	})
	require.NoError(t, err)

	text, err = ts.client.Activate(ctx, 1, "wrong")
	require.NoError(t, err)
	assert.Equal(t, httpapi.TextActivationMismatch, text)

	resp, err := http.Get(ts.url + "/activation/not-a-number/x")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/plain; charset=utf-8", resp.Header.Get("Content-Type"))
}

func TestHealthAndMetrics(t *testing.T) {
	ctx := context.Background()
	ts := newTestServer(t, unlimited())

	live, err := ts.client.GetLiveness(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ok", live.Status)
	assert.Equal(t, "test", live.Version)

	ready, err := ts.client.GetReadiness(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ok", ready.Status)
	require.NotNil(t, ready.Checks)
	assert.Equal(t, "ok", ready.Checks.Accounts)

	resp, err := http.Get(ts.url + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(ts.url + "/swagger/doc.json")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestReadyzDegraded(t *testing.T) {
	ts := newTestServer(t, unlimited())
	require.NoError(t, ts.store.Close())

	ready, err := ts.client.GetReadiness(context.Background())
	require.Error(t, err)
	require.Nil(t, ready)
}

type pingerFunc func(context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestReadyzHandler(t *testing.T) {
	ok := pingerFunc(func(context.Context) error { return nil })
	down := pingerFunc(func(context.Context) error { return errors.New("connection refused") })

	rec := httptest.NewRecorder()
	httpapi.ReadyzHandler(time.Now(), "v", ok, down).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var out authsdk.HealthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	assert.Equal(t, "degraded", out.Status)
	assert.Equal(t, "ok", out.Checks.Accounts)
	assert.Equal(t, "error: connection refused", out.Checks.Tokens)
}

func TestLoginRateLimit(t *testing.T) {
	ctx := context.Background()
	limits := httpx.DefaultProfiles()
	limits.Strict = httpx.RateLimitConfig{RequestsPerWindow: 2, Window: time.Minute, Burst: 2}
	ts := newTestServer(t, limits)

	for range 2 {
		_, err := ts.client.LoginRaw(ctx, "nobody", "secret")
		require.ErrorIs(t, err, authsdk.ErrInvalidLoginBadUsername)
	}

	_, err := ts.client.LoginRaw(ctx, "nobody", "secret")
	var apiErr *authsdk.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
	assert.Equal(t, "rate_limit_exceeded", apiErr.Code)
}
