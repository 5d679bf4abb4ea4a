package community

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommunityHandlers(t *testing.T) {
	e := newEnv(t)
	h := NewHandler(e.svc)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/community/posts", h.HandleCreatePost)
	mux.HandleFunc("GET /v1/community/posts", h.HandleListPosts)
	mux.HandleFunc("DELETE /v1/community/posts/{id}", h.HandleDeletePost)
	mux.HandleFunc("POST /v1/community/posts/{id}/like", h.HandleLike)
	mux.HandleFunc("DELETE /v1/community/posts/{id}/like", h.HandleUnlike)

	send := func(ctx context.Context, method, target, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, target, bytes.NewBufferString(body)).WithContext(ctx)
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, req)
		return w
	}

	w := send(e.alice, http.MethodPost, "/v1/community/posts", `{"body":"morning ride"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var post PostDTO
	require.NoError(t, json.NewDecoder(w.Body).Decode(&post))

	w = send(e.bob, http.MethodPost, "/v1/community/posts/"+post.ID.String()+"/like", "")
	require.Equal(t, http.StatusOK, w.Code)
	var like LikeResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&like))
	assert.True(t, like.Liked)
	assert.Equal(t, 1, like.LikeCount)

	w = send(e.bob, http.MethodDelete, "/v1/community/posts/"+post.ID.String()+"/like", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = send(e.bob, http.MethodGet, "/v1/community/posts?limit=x", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = send(e.bob, http.MethodGet, "/v1/community/posts?limit=10", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list ListPostsResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&list))
	assert.Len(t, list.Posts, 1)

	w = send(e.bob, http.MethodDelete, "/v1/community/posts/"+post.ID.String(), "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = send(e.alice, http.MethodDelete, "/v1/community/posts/"+post.ID.String(), "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = send(context.Background(), http.MethodGet, "/v1/community/posts", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
