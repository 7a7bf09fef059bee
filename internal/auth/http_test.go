package auth

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"MiniInventory/internal/store"
	"MiniInventory/pkg/kit"
)

type authTS struct {
	*httptest.Server
	store    *store.Store
	resolver *Resolver
}

func newAuthTS(t *testing.T) authTS {
	t.Helper()

	s := newTestStore(t)
	tm := NewTokenMaker(testSecret)
	rv := NewResolver(s, tm, zap.NewNop())

	srv := &Server{
		Log:         zap.NewNop(),
		Credentials: NewService(s, tm, zap.NewNop()),
		Resolver:    rv,
	}

	r := chi.NewRouter()
	r.Mount("/api/v1", srv.Routes(kit.NewIPRateLimiter(3, time.Minute).Middleware, nil))
	r.With(rv.Guard(store.RoleManager)...).Get("/manager-only", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	ts := httptest.NewServer(r)
	t.Cleanup(ts.Close)
	return authTS{Server: ts, store: s, resolver: rv}
}

func send(t *testing.T, url string, body any, headers map[string]string) (*http.Response, []byte) {
	t.Helper()

	b, err := json.Marshal(body)
	require.NoError(t, err)

	method := http.MethodPost
	var r io.Reader = bytes.NewReader(b)
	if body == nil {
		method, r = http.MethodGet, nil
	}

	req, err := http.NewRequest(method, url, r)
	require.NoError(t, err)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, raw
}

func TestHTTP_RegisterLoginWhoAmI(t *testing.T) {
	ts := newAuthTS(t)

	resp, raw := send(t, ts.URL+"/api/v1/register", map[string]any{
		"name": "Bob", "email": "bob@example.com", "password": "hunter22", "role": "Employee",
	}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))

	var reg tokenResp
	require.NoError(t, json.Unmarshal(raw, &reg))
	assert.Equal(t, "Successfully Registered.", reg.Message)
	assert.NotEmpty(t, reg.JWT)

	resp, raw = send(t, ts.URL+"/api/v1/auth", map[string]any{
		"email": "bob@example.com", "password": "hunter22",
	}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))

	var login tokenResp
	require.NoError(t, json.Unmarshal(raw, &login))
	assert.Equal(t, "Logged in Successfully", login.Message)

	resp, raw = send(t, ts.URL+"/api/v1/whoami", nil, map[string]string{"Authorization": "Bearer " + login.JWT})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	assert.JSONEq(t, `{"id":1,"name":"Bob","username":"bob@example.com","role":"Employee"}`, string(raw))
}

func TestHTTP_RegisterRejects(t *testing.T) {
	ts := newAuthTS(t)

	resp, raw := send(t, ts.URL+"/api/v1/register", map[string]any{
		"name": "Eve", "email": "eve@example.com", "password": "pw", "role": "Admin",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, string(raw))

	resp, raw = send(t, ts.URL+"/api/v1/register", map[string]any{
		"name": "Eve", "email": "not-an-email", "password": "pw", "role": "Employee",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, string(raw))

	assert.Empty(t, ts.store.GetAllUsers())
}

func TestHTTP_RegisterIsRateLimited(t *testing.T) {
	ts := newAuthTS(t)

	for i := 0; i < 3; i++ {
		resp, _ := send(t, ts.URL+"/api/v1/register", map[string]any{"role": "Nope"}, nil)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	}
	resp, _ := send(t, ts.URL+"/api/v1/register", map[string]any{"role": "Nope"}, nil)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}

func TestHTTP_RoleChangeAppliesToExistingToken(t *testing.T) {
	ts := newAuthTS(t)

	tm := ts.resolver.Tokens
	_, err := ts.store.SaveUser(store.NewUser{
		Name: "Bob", Username: "bob@example.com", Password: "pw", Role: store.RoleEmployee,
	}, store.WriteThrough)
	require.NoError(t, err)

	tok, err := tm.New("bob@example.com")
	require.NoError(t, err)
	auth := map[string]string{"Authorization": "Bearer " + tok}

	resp, _ := send(t, ts.URL+"/manager-only", nil, auth)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	_, err = ts.store.UpdateUserRole("bob@example.com", store.RoleManager)
	require.NoError(t, err)

	resp, _ = send(t, ts.URL+"/manager-only", nil, auth)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
