package commerce_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amoghku/marketplace-pim/internal/commerce"
	"github.com/amoghku/marketplace-pim/internal/config"
)

func newClient(t *testing.T, baseURL, secret string, timeout time.Duration) (*commerce.Client, *test.Hook) {
	t.Helper()
	logger, hook := test.NewNullLogger()
	cfg := config.SyncConfig{BaseURL: baseURL, Secret: secret, Timeout: timeout}
	return commerce.NewClient(cfg, logger), hook
}

func TestSyncCategories_SendsSecretEverywhere(t *testing.T) {
	var (
		path    string
		headers http.Header
		body    map[string]interface{}
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		headers = r.Header.Clone()
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"synced":1}`))
	}))
	defer server.Close()

	client, _ := newClient(t, server.URL+"/", "s3cret", time.Second)
	result := client.SyncCategories(context.Background(), []map[string]string{{"slug": "shoes"}})

	require.True(t, result.OK)
	assert.Equal(t, http.StatusOK, result.Status)
	assert.Equal(t, float64(1), result.Body["synced"])

	assert.Equal(t, "/admin/strapi-sync/categories", path)
	assert.Equal(t, "s3cret", headers.Get("X-Sync-Secret"))
	assert.Equal(t, "Bearer s3cret", headers.Get("Authorization"))
	assert.Equal(t, "application/json", headers.Get("Content-Type"))
	assert.Equal(t, "s3cret", body["__sync_secret"])
	assert.Equal(t, []interface{}{map[string]interface{}{"slug": "shoes"}}, body["items"])
}

func TestSyncCollections_Route(t *testing.T) {
	var path string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client, _ := newClient(t, server.URL, "s3cret", time.Second)
	result := client.SyncCollections(context.Background(), []string{})

	assert.True(t, result.OK)
	assert.Equal(t, http.StatusNoContent, result.Status)
	assert.Nil(t, result.Body)
	assert.Equal(t, "/admin/strapi-sync/collections", path)
}

func TestPostResource_MissingSecretMakesNoCall(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer server.Close()

	client, hook := newClient(t, server.URL, "", time.Second)
	first := client.SyncCategories(context.Background(), nil)
	second := client.SyncCategories(context.Background(), nil)

	assert.Equal(t, commerce.Result{OK: false, Status: 0, Error: commerce.ErrMissingSecret}, first)
	assert.Equal(t, first, second)
	assert.Zero(t, atomic.LoadInt32(&hits))

	// The warning is logged once per client.
	require.Len(t, hook.AllEntries(), 1)
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
}

func TestPostResource_MissingSecretIsQuietInProduction(t *testing.T) {
	client, hook := newClient(t, "http://localhost:1", "", time.Second)
	client.WithProduction(true)

	result := client.SyncCollections(context.Background(), nil)

	assert.Equal(t, commerce.ErrMissingSecret, result.Error)
	assert.Empty(t, hook.AllEntries())
}

func TestPostResource_ErrorMessages(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{"error field", http.StatusUnauthorized, `{"error":"Invalid sync secret"}`, "Invalid sync secret"},
		{"no error field", http.StatusInternalServerError, `{"message":"boom"}`, "Request failed with status 500"},
		{"non json body", http.StatusBadGateway, `<html>bad gateway</html>`, "Request failed with status 502"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client, _ := newClient(t, server.URL, "s3cret", time.Second)
			result := client.SyncCategories(context.Background(), nil)

			assert.False(t, result.OK)
			assert.Equal(t, tt.status, result.Status)
			assert.Equal(t, tt.wantErr, result.Error)
		})
	}
}

func TestPostResource_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	client, _ := newClient(t, server.URL, "s3cret", 50*time.Millisecond)
	result := client.SyncCategories(context.Background(), nil)

	assert.Equal(t, commerce.Result{OK: false, Status: 0, Error: commerce.ErrTimedOut}, result)
}

func TestPostResource_ConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client, _ := newClient(t, url, "s3cret", time.Second)
	result := client.SyncCategories(context.Background(), nil)

	assert.False(t, result.OK)
	assert.Zero(t, result.Status)
	assert.NotEmpty(t, result.Error)
	assert.NotEqual(t, commerce.ErrTimedOut, result.Error)
}

func TestLogConfiguration(t *testing.T) {
	logger, hook := test.NewNullLogger()

	commerce.LogConfiguration(config.SyncConfig{BaseURL: "http://shop:9000/", Secret: "s3cret", Timeout: config.SyncTimeout}, logger)

	require.Len(t, hook.AllEntries(), 1)
	entry := hook.LastEntry()
	assert.Equal(t, logrus.InfoLevel, entry.Level)
	assert.Equal(t, "http://shop:9000", entry.Data["base_url"])
	assert.Equal(t, 6, entry.Data["secret_length"])
	assert.NotContains(t, entry.Message, "s3cret")

	hook.Reset()
	commerce.LogConfiguration(config.SyncConfig{}, logger)

	require.Len(t, hook.AllEntries(), 2)
	assert.Equal(t, 0, hook.AllEntries()[0].Data["secret_length"])
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	assert.Contains(t, hook.LastEntry().Message, "sync secret is not configured")
}
