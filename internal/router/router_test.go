package router

import (
	"CommentUI/internal/models"
	"CommentUI/internal/router/handlers"
	"CommentUI/internal/service"
	"CommentUI/internal/session"
	"CommentUI/internal/web"
	"encoding/json"
	"errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"
)

const listPayload = `[{"id":"1","author":"Ann","text":"first comment","date":"2024-05-01T13:30:00Z","likes":2}]`

// browser replays the session cookie across requests.
type browser struct {
	t       *testing.T
	h       http.Handler
	cookies []*http.Cookie
}

func (b *browser) do(method, path string, form url.Values) *httptest.ResponseRecorder {
	b.t.Helper()
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, path, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	for _, c := range b.cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	b.h.ServeHTTP(rec, req)
	if cs := rec.Result().Cookies(); len(cs) > 0 {
		b.cookies = cs
	}
	return rec
}

func newTestBrowser(t *testing.T) (*browser, *service.MockRepository) {
	t.Helper()
	log := zap.NewNop()
	repo := new(service.MockRepository)
	svc := service.NewService(repo, session.NewMemoryStore(time.Hour), log)
	render, err := web.NewRenderer()
	require.NoError(t, err)
	r := NewRouter("test", handlers.NewCommentHandler(svc, render, log), Options{SessionMaxAge: 3600}, log)
	return &browser{t: t, h: r.Handler()}, repo
}

func TestHome_RendersList(t *testing.T) {
	b, repo := newTestBrowser(t)
	repo.On("List", mock.Anything).Return(json.RawMessage(listPayload), nil).Once()

	rec := b.do(http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "first comment")
	assert.Contains(t, body, "Comments (1)")
	assert.Contains(t, body, "2 likes")
	assert.NotEmpty(t, b.cookies)
	assert.Contains(t, rec.Header().Get("Content-Security-Policy"), "img-src *")

	// Mounted: the second visit does not refetch.
	rec = b.do(http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	repo.AssertExpectations(t)
}

func TestHome_FetchErrorOffersRetry(t *testing.T) {
	b, repo := newTestBrowser(t)
	repo.On("List", mock.Anything).Return(json.RawMessage(`{"items":[]}`), nil).Once()
	repo.On("List", mock.Anything).Return(json.RawMessage(`[]`), nil).Once()

	body := b.do(http.MethodGet, "/", nil).Body.String()
	assert.Contains(t, body, "Received data in an unexpected format")
	assert.Contains(t, body, "Failed to load comments")
	assert.Contains(t, body, `action="/comments/retry"`)

	rec := b.do(http.MethodPost, "/comments/retry", url.Values{})
	require.Equal(t, http.StatusSeeOther, rec.Code)

	body = b.do(http.MethodGet, "/", nil).Body.String()
	assert.Contains(t, body, "No comments yet. Be the first to comment!")
	repo.AssertExpectations(t)
}

func TestCreate_InvalidDraftIsNotSent(t *testing.T) {
	b, repo := newTestBrowser(t)
	repo.On("List", mock.Anything).Return(json.RawMessage(listPayload), nil).Once()

	rec := b.do(http.MethodPost, "/comments", url.Values{"text": {"   "}, "image": {"not a url"}})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Comment text is required")
	assert.Contains(t, body, "Please enter a valid URL")
	assert.Contains(t, body, `value="not a url"`)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreate_RefreshesList(t *testing.T) {
	b, repo := newTestBrowser(t)
	repo.On("List", mock.Anything).Return(json.RawMessage(listPayload), nil).Once()
	repo.On("Create", mock.Anything, models.Draft{Text: "hello"}, "").
		Return(&models.Comment{ID: "2", Text: "hello"}, nil).Once()
	repo.On("List", mock.Anything).
		Return(json.RawMessage(`{"comments":[{"id":"1","text":"first comment"},{"id":"2","text":"hello"}]}`), nil).Once()

	b.do(http.MethodGet, "/", nil)
	rec := b.do(http.MethodPost, "/comments", url.Values{"text": {"hello"}, "image": {""}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	body := b.do(http.MethodGet, "/", nil).Body.String()
	assert.Contains(t, body, "Comment added successfully")
	assert.Contains(t, body, "Comments (2)")
	repo.AssertExpectations(t)
}

func TestCreate_APIFailureKeepsDraft(t *testing.T) {
	b, repo := newTestBrowser(t)
	repo.On("List", mock.Anything).Return(json.RawMessage(listPayload), nil).Once()
	repo.On("Create", mock.Anything, models.Draft{Text: "hello"}, "").Return(nil, errors.New("boom")).Once()

	b.do(http.MethodGet, "/", nil)
	rec := b.do(http.MethodPost, "/comments", url.Values{"text": {"hello"}})
	require.Equal(t, http.StatusBadGateway, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Failed to add comment")
	assert.Contains(t, body, ">hello</textarea>")
}

func TestUpdate_ThroughMethodOverride(t *testing.T) {
	b, repo := newTestBrowser(t)
	repo.On("List", mock.Anything).Return(json.RawMessage(listPayload), nil).Once()
	repo.On("Update", mock.Anything, "1", models.Draft{Text: "edited"}, mock.Anything).
		Return(&models.Comment{ID: "1", Author: "Ann", Text: "edited", Date: "2024-05-01T13:30:00Z", Likes: 2}, nil).Once()

	b.do(http.MethodGet, "/", nil)

	rec := b.do(http.MethodPost, "/comments/1/edit", url.Values{})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	body := b.do(http.MethodGet, "/", nil).Body.String()
	assert.Contains(t, body, `name="_method" value="PUT"`)
	assert.Contains(t, body, ">first comment</textarea>")

	rec = b.do(http.MethodPost, "/comments/1", url.Values{"_method": {"PUT"}, "text": {"edited"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/#comment-1", rec.Header().Get("Location"))

	body = b.do(http.MethodGet, "/", nil).Body.String()
	assert.Contains(t, body, "Comment updated successfully")
	assert.Contains(t, body, "edited")
	assert.NotContains(t, body, `value="PUT"`)
	repo.AssertExpectations(t)
}

func TestUpdate_InvalidKeepsEditForm(t *testing.T) {
	b, repo := newTestBrowser(t)
	repo.On("List", mock.Anything).Return(json.RawMessage(listPayload), nil).Once()

	b.do(http.MethodGet, "/", nil)
	rec := b.do(http.MethodPost, "/comments/1", url.Values{"_method": {"PUT"}, "text": {""}})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Comment text is required")
	assert.Contains(t, body, `value="PUT"`)
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCancelEdit(t *testing.T) {
	b, repo := newTestBrowser(t)
	repo.On("List", mock.Anything).Return(json.RawMessage(listPayload), nil).Once()

	b.do(http.MethodGet, "/", nil)
	b.do(http.MethodPost, "/comments/1/edit", url.Values{})
	rec := b.do(http.MethodPost, "/comments/1/cancel", url.Values{})
	require.Equal(t, http.StatusSeeOther, rec.Code)

	body := b.do(http.MethodGet, "/", nil).Body.String()
	assert.NotContains(t, body, `value="PUT"`)
	assert.Contains(t, body, `action="/comments/1/edit"`)
}

func TestEditToggle_IgnoresGet(t *testing.T) {
	b, repo := newTestBrowser(t)
	repo.On("List", mock.Anything).Return(json.RawMessage(listPayload), nil).Once()

	b.do(http.MethodGet, "/", nil)
	rec := b.do(http.MethodGet, "/comments/1/edit", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	body := b.do(http.MethodGet, "/", nil).Body.String()
	assert.NotContains(t, body, `value="PUT"`)
}

func TestDelete_ConfirmThenDelete(t *testing.T) {
	b, repo := newTestBrowser(t)
	repo.On("List", mock.Anything).Return(json.RawMessage(listPayload), nil).Once()
	repo.On("Delete", mock.Anything, "1").Return(nil).Once()

	b.do(http.MethodGet, "/", nil)

	rec := b.do(http.MethodGet, "/comments/1/delete", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Are you sure you want to delete this comment?")
	repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)

	rec = b.do(http.MethodPost, "/comments/1", url.Values{"_method": {"DELETE"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)

	body := b.do(http.MethodGet, "/", nil).Body.String()
	assert.Contains(t, body, "Comment deleted successfully")
	assert.Contains(t, body, "No comments yet.")
	repo.AssertExpectations(t)
}

func TestDelete_FailureKeepsComment(t *testing.T) {
	b, repo := newTestBrowser(t)
	repo.On("List", mock.Anything).Return(json.RawMessage(listPayload), nil).Once()
	repo.On("Delete", mock.Anything, "1").Return(errors.New("boom")).Once()

	b.do(http.MethodGet, "/", nil)
	rec := b.do(http.MethodPost, "/comments/1", url.Values{"_method": {"DELETE"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)

	body := b.do(http.MethodGet, "/", nil).Body.String()
	assert.Contains(t, body, "Failed to delete comment")
	assert.Contains(t, body, "first comment")
	assert.NotContains(t, body, "Deleting...")
}

func TestReply(t *testing.T) {
	b, repo := newTestBrowser(t)
	repo.On("List", mock.Anything).Return(json.RawMessage(listPayload), nil).Once()
	repo.On("Create", mock.Anything, models.Draft{Text: "a reply"}, "1").
		Return(&models.Comment{ID: "2", Parent: "1", Text: "a reply"}, nil).Once()

	b.do(http.MethodGet, "/", nil)

	rec := b.do(http.MethodGet, "/comments/1/reply", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `action="/comments/1/replies"`)

	rec = b.do(http.MethodPost, "/comments/1/replies", url.Values{"text": {"a reply"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/#comment-2", rec.Header().Get("Location"))
	repo.AssertExpectations(t)
}

func TestUnknownComment(t *testing.T) {
	b, repo := newTestBrowser(t)
	repo.On("List", mock.Anything).Return(json.RawMessage(listPayload), nil).Once()

	b.do(http.MethodGet, "/", nil)
	for _, path := range []string{"/comments/99/delete", "/comments/99/reply"} {
		rec := b.do(http.MethodGet, path, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
		assert.Contains(t, rec.Body.String(), "Comment not found", path)
	}
	rec := b.do(http.MethodPost, "/comments/99/edit", url.Values{})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Comment not found")
}

func TestHealthAndStatic(t *testing.T) {
	b, _ := newTestBrowser(t)

	rec := b.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
	assert.Empty(t, rec.Result().Cookies())

	rec = b.do(http.MethodGet, "/static/app.js", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "comment-image")

	rec = b.do(http.MethodGet, "/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAPIProxy(t *testing.T) {
	var gotPath, gotHost string
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotHost = r.Host
		_, _ = w.Write([]byte(`[]`))
	}))
	defer backend.Close()

	proxy, err := NewAPIProxy(backend.URL, zap.NewNop())
	require.NoError(t, err)

	log := zap.NewNop()
	svc := service.NewService(new(service.MockRepository), session.NewMemoryStore(time.Hour), log)
	render, err := web.NewRenderer()
	require.NoError(t, err)
	r := NewRouter("test", handlers.NewCommentHandler(svc, render, log), Options{APIProxy: proxy}, log)

	req := httptest.NewRequest(http.MethodGet, "/api/comments/all", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", rec.Body.String())
	assert.Equal(t, "/api/comments/all", gotPath)
	assert.Equal(t, strings.TrimPrefix(backend.URL, "http://"), gotHost)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestAPIProxy_KeepsMethodAndBody(t *testing.T) {
	var gotMethod, gotBody string
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.WriteHeader(http.StatusCreated)
	}))
	defer backend.Close()

	proxy, err := NewAPIProxy(backend.URL, zap.NewNop())
	require.NoError(t, err)
	log := zap.NewNop()
	svc := service.NewService(new(service.MockRepository), session.NewMemoryStore(time.Hour), log)
	render, err := web.NewRenderer()
	require.NoError(t, err)
	r := NewRouter("test", handlers.NewCommentHandler(svc, render, log), Options{APIProxy: proxy}, log)

	form := url.Values{"_method": {"DELETE"}, "text": {"hi"}}.Encode()
	req := httptest.NewRequest(http.MethodPost, "/api/comments/post", strings.NewReader(form))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, form, gotBody)
}

func TestNewAPIProxy_InvalidURL(t *testing.T) {
	_, err := NewAPIProxy("not-a-url", zap.NewNop())
	assert.Error(t, err)
}
