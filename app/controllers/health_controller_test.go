package controllers

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/le10del10/paybridge/internal/pkg/docstore"
)

type fakeCounters struct {
	counts map[string]int64
	err    error
}

func (f *fakeCounters) Snapshot(ctx context.Context) (map[string]int64, error) {
	return f.counts, f.err
}

func newHealthAppWithCounters(store docstore.Store, counters CounterSnapshotter) *fiber.App {
	h := NewHealthController(store, counters)
	app := fiber.New()
	app.Get("/health", h.HandleHealth)
	app.Get("/debug/store-ping", h.HandleStorePing)
	app.Get("/debug/webhook-counters", h.HandleWebhookCounters)
	return app
}

func newHealthApp(store docstore.Store) *fiber.App {
	return newHealthAppWithCounters(store, nil)
}

func TestHealth(t *testing.T) {
	resp, err := newHealthApp(nil).Test(httptest.NewRequest(fiber.MethodGet, "/health", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestStorePing(t *testing.T) {
	store := docstore.NewMemoryStore()

	resp, err := newHealthApp(store).Test(httptest.NewRequest(fiber.MethodGet, "/debug/store-ping", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, store.Count(docstore.CollectionDiagnostics))
}

func TestStorePing_StoreDisabled(t *testing.T) {
	resp, err := newHealthApp(nil).Test(httptest.NewRequest(fiber.MethodGet, "/debug/store-ping", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
}

func TestStorePing_WriteFailure(t *testing.T) {
	store := docstore.NewMemoryStore()
	store.FailWith = errors.New("permission denied")

	resp, err := newHealthApp(store).Test(httptest.NewRequest(fiber.MethodGet, "/debug/store-ping", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
}

func TestWebhookCounters(t *testing.T) {
	counters := &fakeCounters{counts: map[string]int64{"stripe:processed": 3}}

	resp, err := newHealthAppWithCounters(nil, counters).Test(httptest.NewRequest(fiber.MethodGet, "/debug/webhook-counters", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.JSONEq(t, `{"counters":{"stripe:processed":3}}`, string(body))
}

func TestWebhookCounters_Unavailable(t *testing.T) {
	resp, err := newHealthApp(nil).Test(httptest.NewRequest(fiber.MethodGet, "/debug/webhook-counters", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)

	failing := &fakeCounters{err: errors.New("connection refused")}
	resp, err = newHealthAppWithCounters(nil, failing).Test(httptest.NewRequest(fiber.MethodGet, "/debug/webhook-counters", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
}
