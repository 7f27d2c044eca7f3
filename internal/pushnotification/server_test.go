package pushnotification

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tasknest/tasknest/internal/config"
	"github.com/tasknest/tasknest/internal/pushsubscription"
	"github.com/tasknest/tasknest/internal/pushsubscription/repositoryimpl"
	"github.com/tasknest/tasknest/pkg/cerr"
	"github.com/tasknest/tasknest/pkg/storage"
)

func newTestServer(t *testing.T, vapidEnv *config.VAPIDEnv) (*httptest.Server, pushsubscription.Repository) {
	t.Helper()
	st, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	repo := repositoryimpl.NewYAMLRepository(st)
	sender := NewSender(vapidEnv, repo)

	r := chi.NewRouter()
	r.Use(cerr.NewJSONResponseChiMiddleware())
	NewServer(vapidEnv, repo, sender).Routes(r)
	return httptest.NewServer(r), repo
}

func postJSON(t *testing.T, url string, body map[string]string) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	return resp
}

func TestGetKey(t *testing.T) {
	ts, _ := newTestServer(t, &config.VAPIDEnv{VAPIDPublicKey: "pub-key"})
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/push/key")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body keyResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "pub-key", body.PublicKey)
}

func TestGetKeyUnconfigured(t *testing.T) {
	ts, _ := newTestServer(t, &config.VAPIDEnv{})
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/push/key")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusPreconditionFailed, resp.StatusCode)
}

func TestRegisterSubscription(t *testing.T) {
	ts, repo := newTestServer(t, &config.VAPIDEnv{VAPIDPublicKey: "pub"})
	defer ts.Close()

	resp := postJSON(t, ts.URL+"/push/subscriptions", map[string]string{
		"endpoint":   "https://push.example.com/sub-1",
		"p256dh_key": "p256dh",
		"auth_key":   "auth",
	})
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	sub, err := repo.FindByEndpoint(context.Background(), "https://push.example.com/sub-1")
	require.NoError(t, err)
	assert.Equal(t, "p256dh", sub.P256dhKey)

	// Re-registering the same endpoint replaces the keys instead of
	// accumulating subscriptions.
	resp = postJSON(t, ts.URL+"/push/subscriptions", map[string]string{
		"endpoint":   "https://push.example.com/sub-1",
		"p256dh_key": "rotated",
		"auth_key":   "auth",
	})
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	all, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "rotated", all[0].P256dhKey)
}

func TestRegisterSubscriptionValidation(t *testing.T) {
	ts, _ := newTestServer(t, &config.VAPIDEnv{})
	defer ts.Close()

	resp := postJSON(t, ts.URL+"/push/subscriptions", map[string]string{
		"p256dh_key": "p256dh",
		"auth_key":   "auth",
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUnregisterSubscription(t *testing.T) {
	ts, repo := newTestServer(t, &config.VAPIDEnv{})
	defer ts.Close()

	resp := postJSON(t, ts.URL+"/push/subscriptions", map[string]string{
		"endpoint":   "https://push.example.com/sub-2",
		"p256dh_key": "p256dh",
		"auth_key":   "auth",
	})
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	data, err := json.Marshal(map[string]string{"endpoint": "https://push.example.com/sub-2"})
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/push/subscriptions", bytes.NewReader(data))
	require.NoError(t, err)
	del, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	del.Body.Close()
	require.Equal(t, http.StatusOK, del.StatusCode)

	all, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}
