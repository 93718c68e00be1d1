package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DRSN-tech/catalog-gateway/internal/usecase"
	"github.com/DRSN-tech/catalog-gateway/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebhook_RequestIngest(t *testing.T) {
	var got webhookRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	hook := NewWebhook(srv.URL, time.Second)
	require.NoError(t, hook.RequestIngest(context.Background(), usecase.NewIngestReq("tenant/brand/")))
	assert.Equal(t, "tenant/brand/", got.Path)
}

func TestWebhook_Non2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "pipeline busy", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	err := NewWebhook(srv.URL, time.Second).RequestIngest(context.Background(), usecase.NewIngestReq("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
	assert.Contains(t, err.Error(), "pipeline busy")
}

type stubTarget struct {
	calls int
	err   error
}

func (s *stubTarget) RequestIngest(context.Context, *usecase.IngestReq) error {
	s.calls++
	return s.err
}

func TestDispatcher(t *testing.T) {
	ctx := context.Background()
	req := usecase.NewIngestReq("x")

	empty := NewDispatcher(logger.Nop{}).Add("webhook", nil)
	assert.True(t, empty.Empty())

	ok, failing := &stubTarget{}, &stubTarget{err: errors.New("down")}
	d := NewDispatcher(logger.Nop{}).Add("webhook", failing).Add("kafka", ok)
	assert.False(t, d.Empty())
	require.NoError(t, d.RequestIngest(ctx, req))
	assert.Equal(t, 1, ok.calls)
	assert.Equal(t, 1, failing.calls)

	allFail := NewDispatcher(logger.Nop{}).Add("webhook", failing)
	assert.ErrorContains(t, allFail.RequestIngest(ctx, req), "down")
}
