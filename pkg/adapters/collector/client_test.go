package collector_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aretw0/funnel/pkg/adapters/collector"
	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ ports.LeadCollector = (*collector.Client)(nil)
	_ ports.LeadCollector = collector.Nop{}
)

func TestClient_Submit(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	err := collector.New(srv.URL).Submit(context.Background(), domain.Lead{
		Name:      "Ana",
		Whatsapp:  "11987654321",
		Timestamp: ts,
		Source:    domain.SourceContactPage,
	})
	require.NoError(t, err)

	assert.Equal(t, "Ana", got["name"])
	assert.Equal(t, "11987654321", got["whatsapp"])
	assert.Equal(t, "2026-03-01T12:00:00Z", got["timestamp"])
	assert.Equal(t, "usuario-page", got["source"])
}

func TestClient_Non2xxIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	err := collector.New(srv.URL).Submit(context.Background(), domain.Lead{Source: domain.SourceExitPopup})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	err := collector.New(srv.URL, collector.WithTimeout(20*time.Millisecond)).
		Submit(context.Background(), domain.Lead{})
	assert.Error(t, err)
}
