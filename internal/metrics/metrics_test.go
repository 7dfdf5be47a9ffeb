package metrics

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupExposesCounters(t *testing.T) {
	m, handler, err := Setup("blog-test")
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordHTTPRequest(ctx, http.MethodPost, "/author", http.StatusOK, 5*time.Millisecond)
	m.RecordStoreOperation(ctx, "memory", "create_author", nil)
	m.RecordStoreOperation(ctx, "memory", "create_post", errors.New("boom"))
	m.RecordEventPublished(ctx, "authors")
	m.IncrementConnections(ctx, "sse")
	m.DecrementConnections(ctx, "sse")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	text := string(body)
	assert.Contains(t, text, "blog_http_requests_total")
	assert.Contains(t, text, "blog_store_operations_total")
	assert.Contains(t, text, `outcome="error"`)
	assert.Contains(t, text, "blog_events_published_total")
	assert.Contains(t, text, "go_goroutines")
}

func TestSetupTwice(t *testing.T) {
	_, _, err := Setup("first")
	require.NoError(t, err)
	_, _, err = Setup("second")
	require.NoError(t, err)
}
