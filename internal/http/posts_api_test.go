package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"inkwell/internal/http/middleware"
	"inkwell/internal/notify"
	"inkwell/internal/posts"
	"inkwell/internal/users"
)

func jsonBody(s string) io.Reader { return strings.NewReader(s) }
func strBody(s string) io.Reader  { return strings.NewReader(s) }

func formReq(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func asUser(req *http.Request, uid string) *http.Request {
	return req.WithContext(context.WithValue(req.Context(), middleware.CtxUserID, uid))
}

func TestPostsAPICreateRequiresAuthorRole(t *testing.T) {
	t.Parallel()

	store := &fakePostStore{}
	userStore := &fakeUserStore{byID: map[string]users.User{
		"uid-reader": {ID: "uid-reader", Username: "ron", Role: users.RoleReader},
		"uid-author": {ID: "uid-author", Username: "amy", Role: users.RoleAuthor},
	}}
	h := &PostsAPIHandler{Posts: store, Users: userStore}

	body := `{"title":"New Post","body":"text","tags":["a"],"allow_comments":true}`

	req := asUser(httptest.NewRequest(http.MethodPost, "/api/v1/posts", jsonBody(body)), "uid-reader")
	rec := httptest.NewRecorder()
	h.Create(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Empty(t, store.created)

	req = asUser(httptest.NewRequest(http.MethodPost, "/api/v1/posts", jsonBody(body)), "uid-author")
	rec = httptest.NewRecorder()
	h.Create(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, []string{"New Post"}, store.created)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "new-post", resp["slug"])
}

func TestPostsAPICreateValidation(t *testing.T) {
	t.Parallel()

	userStore := &fakeUserStore{byID: map[string]users.User{
		"uid-author": {ID: "uid-author", Role: users.RoleAuthor},
	}}
	h := &PostsAPIHandler{Posts: &fakePostStore{}, Users: userStore}

	req := asUser(httptest.NewRequest(http.MethodPost, "/api/v1/posts", jsonBody(`not json`)), "uid-author")
	rec := httptest.NewRecorder()
	h.Create(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	req = asUser(httptest.NewRequest(http.MethodPost, "/api/v1/posts",
		jsonBody(`{"title":"  ","body":""}`)), "uid-author")
	rec = httptest.NewRecorder()
	h.Create(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPostsAPICreateConflict(t *testing.T) {
	t.Parallel()

	userStore := &fakeUserStore{byID: map[string]users.User{
		"uid-author": {ID: "uid-author", Role: users.RoleAuthor},
	}}
	h := &PostsAPIHandler{Posts: &fakePostStore{err: posts.ErrSlugTaken}, Users: userStore}

	req := asUser(httptest.NewRequest(http.MethodPost, "/api/v1/posts",
		jsonBody(`{"title":"Dup","body":"text"}`)), "uid-author")
	rec := httptest.NewRecorder()
	h.Create(rec, req)
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestPostsAPIList(t *testing.T) {
	t.Parallel()

	h := &PostsAPIHandler{
		Posts: &fakePostStore{list: []posts.Post{samplePost()}, next: 7},
		Users: &fakeUserStore{},
	}
	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/api/v1/posts", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Posts []postResp `json:"posts"`
		Next  int64      `json:"next"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Posts, 1)
	require.Equal(t, "first-post", resp.Posts[0].Slug)
	require.Equal(t, int64(7), resp.Next)
}

func TestPostsAPIGet(t *testing.T) {
	t.Parallel()

	mux := buildMux(
		&fakePostStore{list: []posts.Post{samplePost()}},
		&fakeUserStore{}, newRenderer(t), notify.Noop{}, newUploads(t),
	)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/posts/1", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp postResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "First Post", resp.Title)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/posts/999", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/posts/abc", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPostsAPIListBetween(t *testing.T) {
	t.Parallel()

	h := &PostsAPIHandler{
		Posts: &fakePostStore{list: []posts.Post{samplePost()}},
		Users: &fakeUserStore{},
	}

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet,
		"/api/v1/posts?from=2023-11-01T00:00:00Z&to=2023-12-01T00:00:00Z", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "first-post")

	// Sample post published 2023-11-14; a January window excludes it.
	rec = httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet,
		"/api/v1/posts?from=2024-01-01T00:00:00Z&to=2024-02-01T00:00:00Z", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotContains(t, rec.Body.String(), "first-post")

	rec = httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/api/v1/posts?from=not-a-time", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPostsAPIUpdate(t *testing.T) {
	t.Parallel()

	userStore := &fakeUserStore{byID: map[string]users.User{
		"uid-author": {ID: "uid-author", Role: users.RoleAuthor},
		"uid-other":  {ID: "uid-other", Role: users.RoleAuthor},
		"uid-admin":  {ID: "uid-admin", Role: users.RoleAdmin},
	}}

	newReq := func(uid, id, body string) *http.Request {
		req := httptest.NewRequest(http.MethodPatch, "/api/v1/posts/"+id, jsonBody(body))
		req.SetPathValue("id", id)
		return asUser(req, uid)
	}

	t.Run("author edits own post", func(t *testing.T) {
		t.Parallel()
		store := &fakePostStore{list: []posts.Post{samplePost()}}
		h := &PostsAPIHandler{Posts: store, Users: userStore}
		rec := httptest.NewRecorder()
		h.Update(rec, newReq("uid-author", "1", `{"title":"Renamed","pinned":true}`))
		require.Equal(t, http.StatusNoContent, rec.Code)
		require.Equal(t, "Renamed", store.list[0].Title)
		require.True(t, store.list[0].Pinned)
		require.Equal(t, "Contents of the first post.", store.list[0].Body)
	})

	t.Run("admin edits any post", func(t *testing.T) {
		t.Parallel()
		store := &fakePostStore{list: []posts.Post{samplePost()}}
		h := &PostsAPIHandler{Posts: store, Users: userStore}
		rec := httptest.NewRecorder()
		h.Update(rec, newReq("uid-admin", "1", `{"allow_comments":false}`))
		require.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("other author is forbidden", func(t *testing.T) {
		t.Parallel()
		h := &PostsAPIHandler{Posts: &fakePostStore{list: []posts.Post{samplePost()}}, Users: userStore}
		rec := httptest.NewRecorder()
		h.Update(rec, newReq("uid-other", "1", `{"title":"Hijacked"}`))
		require.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("blank title rejected", func(t *testing.T) {
		t.Parallel()
		h := &PostsAPIHandler{Posts: &fakePostStore{list: []posts.Post{samplePost()}}, Users: userStore}
		rec := httptest.NewRecorder()
		h.Update(rec, newReq("uid-author", "1", `{"title":"  "}`))
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing post is 404", func(t *testing.T) {
		t.Parallel()
		h := &PostsAPIHandler{Posts: &fakePostStore{}, Users: userStore}
		rec := httptest.NewRecorder()
		h.Update(rec, newReq("uid-author", "9", `{"title":"x"}`))
		require.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestPostsAPICreateUnauthenticated(t *testing.T) {
	t.Parallel()

	mux := buildMux(&fakePostStore{}, &fakeUserStore{}, newRenderer(t), notify.Noop{}, newUploads(t))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/posts",
		jsonBody(`{"title":"x","body":"y"}`)))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
