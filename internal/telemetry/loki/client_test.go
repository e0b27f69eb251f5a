package loki

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"multitenant-cms/internal/telemetry/domain"
)

func TestPush(t *testing.T) {
	var got PushRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/loki/api/v1/push", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	acct := int64(7)
	at := time.Unix(1700000000, 5).UTC()
	c := NewClient(srv.URL+"/", nil)
	err := c.Push(context.Background(), &domain.Event{
		ID: "e1", Type: domain.EventSessionIssued, Source: "session manager", AccountID: &acct, OccurredAt: at,
	})
	require.NoError(t, err)

	require.Len(t, got.Streams, 1)
	s := got.Streams[0]
	assert.Equal(t, map[string]string{
		"job": "cms", "event_type": "session_issued", "source": "session_manager", "account_id": "7",
	}, s.Stream)
	require.Len(t, s.Values, 1)
	assert.Equal(t, "1700000000000000005", s.Values[0][0])
	assert.Contains(t, s.Values[0][1], `"id":"e1"`)
}

func TestPush_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	err := NewClient(srv.URL, nil).Push(context.Background(), &domain.Event{Type: "x"})
	assert.ErrorContains(t, err, "400")
}

func TestNewClient_Disabled(t *testing.T) {
	c := NewClient("  ", nil)
	assert.Nil(t, c)
	assert.NoError(t, c.Push(context.Background(), &domain.Event{Type: "x"}))
}
