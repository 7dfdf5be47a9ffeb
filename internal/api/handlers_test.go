package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noobjs/blog-backend/internal/blog"
	"github.com/noobjs/blog-backend/internal/db"
	"github.com/noobjs/blog-backend/internal/db/backends/mongodb"
	"github.com/noobjs/blog-backend/internal/db/interfaces"
	"github.com/noobjs/blog-backend/internal/events"
)

// Mock metrics for testing
type MockMetrics struct {
	mock.Mock
}

func (m *MockMetrics) RecordHTTPRequest(ctx context.Context, method, path string, status int, duration time.Duration) {
	m.Called(method, path, status)
}

type testServer struct {
	router http.Handler
	store  interfaces.Relational
	broker *events.Broker
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()
	logger := zap.NewNop().Sugar()

	store := db.NewInMemoryDatabase()
	require.NoError(t, db.ConnectAndMigrate(ctx, store))
	t.Cleanup(func() { _ = store.Disconnect(ctx) })

	broker := events.NewMemoryBroker(logger, nil)
	svc := blog.NewService(store, broker, nil, logger)
	handler := NewHandler(svc, broker, nil, nil, logger)

	return &testServer{
		router: handler.Routes(NewMiddleware(logger, nil), RouteOptions{}),
		store:  store,
		broker: broker,
	}
}

func (s *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func TestHello(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Hello World!", rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")
}

func TestCreateAuthor(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/author", `{"firstName":"Seb","lastName":"Ceb"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var got map[string]any
	decodeBody(t, rec, &got)
	assert.Equal(t, "Seb", got["firstName"])
	assert.Equal(t, "Ceb", got["lastName"])
	assert.Equal(t, float64(1), got["id"])
	assert.NotEmpty(t, got["createdAt"])

	rec = s.do(t, http.MethodGet, "/authors", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"id":1,"firstName":"Seb","lastName":"Ceb"}]`, rec.Body.String())
}

func TestCreateAuthorTwiceYieldsTwoIDs(t *testing.T) {
	s := newTestServer(t)
	body := `{"firstName":"Ada","lastName":"Lovelace"}`

	var first, second map[string]any
	decodeBody(t, s.do(t, http.MethodPost, "/author", body), &first)
	decodeBody(t, s.do(t, http.MethodPost, "/author", body), &second)

	assert.NotEqual(t, first["id"], second["id"])
}

func TestCreateAuthorDefaults(t *testing.T) {
	s := newTestServer(t)

	for _, body := range []string{"", "{}"} {
		rec := s.do(t, http.MethodPost, "/author", body)
		require.Equal(t, http.StatusOK, rec.Code)

		var got map[string]any
		decodeBody(t, rec, &got)
		assert.Equal(t, "", got["firstName"])
		assert.Equal(t, "", got["lastName"])
	}
}

func TestCreateAuthorRejectsBadInput(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name   string
		body   string
		status int
		code   string
		field  string
	}{
		{"malformed", `{"firstName":`, http.StatusBadRequest, CodeInvalidJSON, ""},
		{"wrong type", `{"firstName":42}`, http.StatusBadRequest, CodeInvalidJSON, ""},
		{"too long", fmt.Sprintf(`{"firstName":%q}`, strings.Repeat("a", 256)), http.StatusUnprocessableEntity, CodeValidationFailed, "firstName"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, "/author", tt.body)
			assert.Equal(t, tt.status, rec.Code)

			var errResp ErrorResponse
			decodeBody(t, rec, &errResp)
			assert.Equal(t, tt.code, errResp.Code)
			if tt.field != "" {
				assert.Contains(t, errResp.Details, tt.field)
			}
		})
	}
}

func TestListAuthorsEmpty(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/authors", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestListAuthorsOrderedByID(t *testing.T) {
	s := newTestServer(t)
	for i := 0; i < 5; i++ {
		rec := s.do(t, http.MethodPost, "/author", fmt.Sprintf(`{"firstName":"f%d"}`, i))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	var authors []map[string]any
	decodeBody(t, s.do(t, http.MethodGet, "/authors", ""), &authors)

	require.Len(t, authors, 5)
	for i := 1; i < len(authors); i++ {
		assert.Less(t, authors[i-1]["id"].(float64), authors[i]["id"].(float64))
	}
	assert.NotContains(t, authors[0], "createdAt")
}

func TestCreatePost(t *testing.T) {
	s := newTestServer(t)
	s.do(t, http.MethodPost, "/author", `{"firstName":"Seb","lastName":"Ceb"}`)

	rec := s.do(t, http.MethodPost, "/post", `{"title":"Hello","content":"World","AuthorId":1}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var post map[string]any
	decodeBody(t, rec, &post)
	assert.Equal(t, "Hello", post["title"])
	assert.Equal(t, "World", post["content"])
	assert.Equal(t, float64(1), post["AuthorId"])
	assert.Equal(t, float64(1), post["id"])

	var posts []map[string]any
	decodeBody(t, s.do(t, http.MethodGet, "/authors/1/posts", ""), &posts)
	require.Len(t, posts, 1)
	assert.Equal(t, "Hello", posts[0]["title"])
}

func TestCreatePostWithoutAuthor(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/post", `{"title":"Orphan"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var post map[string]any
	decodeBody(t, rec, &post)
	assert.Nil(t, post["AuthorId"])
	assert.Equal(t, "", post["content"])
}

func TestCreatePostRejected(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"missing author", `{"title":"t","AuthorId":99}`, http.StatusUnprocessableEntity, CodeAuthorNotFound},
		{"missing title", `{"content":"c"}`, http.StatusUnprocessableEntity, CodeValidationFailed},
		{"negative author", `{"title":"t","AuthorId":-1}`, http.StatusUnprocessableEntity, CodeValidationFailed},
		{"author not numeric", `{"title":"t","AuthorId":"one"}`, http.StatusBadRequest, CodeInvalidJSON},
		{"author beyond 32 bits", `{"title":"t","AuthorId":3000000000}`, http.StatusUnprocessableEntity, CodeAuthorNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, "/post", tt.body)
			assert.Equal(t, tt.status, rec.Code)

			var errResp ErrorResponse
			decodeBody(t, rec, &errResp)
			assert.Equal(t, tt.code, errResp.Code)
		})
	}

	// nothing dangling was stored
	posts, err := s.store.Posts().ListByAuthor(context.Background(), interfaces.IntID(99))
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestCreatePostCoercesNumericAuthorID(t *testing.T) {
	s := newTestServer(t)
	s.do(t, http.MethodPost, "/author", `{"firstName":"Seb"}`)

	rec := s.do(t, http.MethodPost, "/post", `{"title":"Hello","AuthorId":"1"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var post map[string]any
	decodeBody(t, rec, &post)
	assert.Equal(t, float64(1), post["AuthorId"])
}

func (s *testServer) postForm(t *testing.T, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func TestFormEncodedBodies(t *testing.T) {
	s := newTestServer(t)

	rec := s.postForm(t, "/author", url.Values{"firstName": {"Seb"}, "lastName": {"Ceb"}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var author map[string]any
	decodeBody(t, rec, &author)
	assert.Equal(t, "Seb", author["firstName"])
	assert.Equal(t, "Ceb", author["lastName"])

	rec = s.postForm(t, "/post", url.Values{"title": {"Hello"}, "content": {"World"}, "AuthorId": {"1"}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var post map[string]any
	decodeBody(t, rec, &post)
	assert.Equal(t, "Hello", post["title"])
	assert.Equal(t, float64(1), post["AuthorId"])

	rec = s.postForm(t, "/authors/1/post", url.Values{"title": {"Bound"}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.postForm(t, "/post", url.Values{"title": {"Bad"}, "AuthorId": {"x"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var errResp ErrorResponse
	decodeBody(t, rec, &errResp)
	assert.Equal(t, CodeInvalidForm, errResp.Code)
}

func TestRejectsTrailingJSON(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/author", `{"firstName":"Seb"} {"bogus`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var errResp ErrorResponse
	decodeBody(t, rec, &errResp)
	assert.Equal(t, CodeInvalidJSON, errResp.Code)

	// nothing was stored
	authors, err := s.store.Catalog().List(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, authors)

	rec = s.do(t, http.MethodPost, "/author", "{\"firstName\":\"Seb\"}\n  ")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRejectsUnsupportedContentType(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/author", strings.NewReader("firstName=Seb"))
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestLargeIDsAreNotFound(t *testing.T) {
	s := newTestServer(t)

	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/authors/3000000000/posts", "").Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/posts/3000000000/author", "").Code)
	assert.Equal(t, http.StatusUnprocessableEntity, s.do(t, http.MethodPost, "/authors/3000000000/post", `{"title":"t"}`).Code)
}

func TestCreatePostForAuthor(t *testing.T) {
	s := newTestServer(t)
	s.do(t, http.MethodPost, "/author", `{"firstName":"Seb"}`)

	rec := s.do(t, http.MethodPost, "/authors/1/post", `{"title":"Bound","content":"x","AuthorId":7}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var post map[string]any
	decodeBody(t, rec, &post)
	assert.Equal(t, float64(1), post["AuthorId"])

	rec = s.do(t, http.MethodPost, "/authors/2/post", `{"title":"Nobody"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestPostsByAuthorNotFound(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/authors/42/posts", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodGet, "/authors/abc/posts", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var errResp ErrorResponse
	decodeBody(t, rec, &errResp)
	assert.Equal(t, CodeInvalidID, errResp.Code)
}

func TestAuthorOfPost(t *testing.T) {
	s := newTestServer(t)
	s.do(t, http.MethodPost, "/author", `{"firstName":"Seb","lastName":"Ceb"}`)
	s.do(t, http.MethodPost, "/post", `{"title":"t","AuthorId":1}`)

	rec := s.do(t, http.MethodGet, "/posts/1/author", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var author map[string]any
	decodeBody(t, rec, &author)
	assert.Equal(t, "Seb", author["firstName"])

	// deleting the author nulls the reference
	require.NoError(t, s.store.Catalog().Delete(context.Background(), interfaces.IntID(1)))

	rec = s.do(t, http.MethodGet, "/posts/1/author", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	post, err := s.store.Posts().Get(context.Background(), interfaces.IntID(1))
	require.NoError(t, err)
	assert.Nil(t, post.AuthorID)
}

func TestCreatePublishesEvent(t *testing.T) {
	s := newTestServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sub, err := s.broker.Subscribe(ctx, events.TopicAuthors)
	require.NoError(t, err)
	defer sub.Close()

	rec := s.do(t, http.MethodPost, "/author", `{"firstName":"Seb"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	select {
	case msg := <-sub.Channel():
		var event events.Event
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &event))
		assert.Equal(t, events.TypeAuthorCreated, event.Type)
		assert.Contains(t, string(event.Data), `"firstName":"Seb"`)
	case <-time.After(2 * time.Second):
		t.Fatal("no event published")
	}
}

func TestReadyz(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/readyz", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var dto HealthDTO
	decodeBody(t, rec, &dto)
	assert.Equal(t, "ok", dto.Status)
	assert.Equal(t, "memory", dto.Backend)
	assert.Equal(t, "ok", dto.Checks["storage"])
	assert.Equal(t, "ok", dto.Checks["events"])

	require.NoError(t, s.store.Disconnect(context.Background()))
	rec = s.do(t, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestDocumentBackendRoutes(t *testing.T) {
	logger := zap.NewNop().Sugar()
	store := mongodb.NewDatabase(mongodb.Config{URI: "mongodb://localhost/noobjs_test", Database: "noobjs_test"}, logger)
	svc := blog.NewService(store, nil, nil, logger)
	router := NewHandler(svc, nil, nil, nil, logger).Routes(NewMiddleware(logger, nil), RouteOptions{})

	// never connected
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/author", strings.NewReader(`{"firstName":"Seb"}`)))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	// relational routes are not mounted
	for _, route := range []struct{ method, path string }{
		{http.MethodGet, "/authors"},
		{http.MethodPost, "/post"},
		{http.MethodGet, "/authors/1/posts"},
	} {
		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(route.method, route.path, bytes.NewReader(nil)))
		assert.Equal(t, http.StatusNotFound, rec.Code, route.path)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{interfaces.Wrap("create post", interfaces.ErrForeignKeyConstraint), http.StatusUnprocessableEntity, CodeAuthorNotFound},
		{interfaces.ErrNotNullConstraint, http.StatusUnprocessableEntity, CodeValidationFailed},
		{interfaces.ErrUniqueConstraint, http.StatusConflict, CodeConflict},
		{interfaces.ErrInvalidID, http.StatusBadRequest, CodeInvalidID},
		{fmt.Errorf("get: %w", interfaces.ErrNotFound), http.StatusNotFound, CodeNotFound},
		{interfaces.ErrUnsupported, http.StatusNotImplemented, CodeNotImplemented},
		{interfaces.ErrDatabaseNotConnected, http.StatusServiceUnavailable, CodeStorageUnavailable},
		{errors.New("boom"), http.StatusInternalServerError, CodeStorageError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			status, code := statusFor(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, code)
		})
	}
}
