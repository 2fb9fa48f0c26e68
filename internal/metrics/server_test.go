package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServerExposesBotCounters(t *testing.T) {
	UpdatesProcessed.WithLabelValues("message").Inc()
	OracleRequests.WithLabelValues("nutrition", "ok").Inc()

	srv := httptest.NewServer(NewServer(":0").Handler)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `pitashka_bot_updates_processed_total{kind="message"}`)
	assert.Contains(t, string(body), `pitashka_oracle_requests_total{operation="nutrition",outcome="ok"}`)
}

func TestServeDisabledReturnsImmediately(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	Serve(ctx, "")
}
