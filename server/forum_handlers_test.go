package server_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xquti/mdb-backend/forum"
	"github.com/xquti/mdb-backend/users"
)

func createThread(t *testing.T, f *testFixture, access, title string) forum.Thread {
	t.Helper()
	body := fmt.Sprintf(`{"title":%q,"content":"some discussion body","category":"general"}`, title)
	w := f.do(t, "POST", "/api/forums/threads", access, body)
	require.Equal(t, http.StatusCreated, w.Code)

	var thread forum.Thread
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &thread))
	return thread
}

func TestCreateThreadRequiresAuthentication(t *testing.T) {
	f := newTestFixture(t)

	w := f.do(t, "POST", "/api/forums/threads", "", `{"title":"anonymous thread","content":"body"}`)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateThreadValidatesPayload(t *testing.T) {
	f := newTestFixture(t)
	access := f.login(t, "alice@example.com")

	// Title too short.
	w := f.do(t, "POST", "/api/forums/threads", access, `{"title":"ab","content":"body"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	// Unknown field.
	w = f.do(t, "POST", "/api/forums/threads", access, `{"title":"valid title","content":"body","admin":true}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestThreadLifecycle(t *testing.T) {
	f := newTestFixture(t)
	access := f.login(t, "alice@example.com")

	thread := createThread(t, f, access, "a fine thread")
	require.NotZero(t, thread.ID)

	w := f.do(t, "GET", fmt.Sprintf("/api/forums/threads/%d", thread.ID), "", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, "GET", "/api/forums/threads", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var page forum.Page[forum.Thread]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	require.Equal(t, int64(1), page.TotalElements)
	require.Equal(t, 20, page.Size)

	w = f.do(t, "GET", "/api/forums/threads/9999", "", "")
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteThreadAuthorizationRules(t *testing.T) {
	f := newTestFixture(t)
	authorAccess := f.login(t, "alice@example.com")
	otherAccess := f.login(t, "bob@example.com")
	adminAccess := f.login(t, "admin@example.com", users.RoleUser, users.RoleAdmin)

	thread := createThread(t, f, authorAccess, "delete me")

	w := f.do(t, "DELETE", fmt.Sprintf("/api/forums/threads/%d", thread.ID), "", "")
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.do(t, "DELETE", fmt.Sprintf("/api/forums/threads/%d", thread.ID), otherAccess, "")
	require.Equal(t, http.StatusForbidden, w.Code)

	w = f.do(t, "DELETE", fmt.Sprintf("/api/forums/threads/%d", thread.ID), adminAccess, "")
	require.Equal(t, http.StatusNoContent, w.Code)

	w = f.do(t, "GET", fmt.Sprintf("/api/forums/threads/%d", thread.ID), "", "")
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestPostLifecycle(t *testing.T) {
	f := newTestFixture(t)
	access := f.login(t, "alice@example.com")

	thread := createThread(t, f, access, "post target")

	w := f.do(t, "POST", fmt.Sprintf("/api/forums/threads/%d/posts", thread.ID), access, `{"content":"first reply"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	var post forum.Post
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &post))
	require.Equal(t, thread.ID, post.ThreadID)

	w = f.do(t, "GET", fmt.Sprintf("/api/forums/threads/%d/posts", thread.ID), "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var page forum.Page[forum.Post]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	require.Equal(t, int64(1), page.TotalElements)
}

func TestCreatePostOnLockedThread(t *testing.T) {
	f := newTestFixture(t)
	access := f.login(t, "alice@example.com")

	thread := createThread(t, f, access, "soon locked")
	f.forumRepo.Lock(thread.ID)

	w := f.do(t, "POST", fmt.Sprintf("/api/forums/threads/%d/posts", thread.ID), access, `{"content":"too late"}`)
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestSearchEndpointFindsIndexedThreads(t *testing.T) {
	f := newTestFixture(t)
	access := f.login(t, "alice@example.com")

	createThread(t, f, access, "observability with zerolog")

	w := f.do(t, "GET", "/api/search/threads?q=observability", "", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Results []struct {
			ID    int64  `json:"id"`
			Title string `json:"title"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 1)
	require.Equal(t, "observability with zerolog", resp.Results[0].Title)

	w = f.do(t, "GET", "/api/search/threads", "", "")
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPaginationCapsSize(t *testing.T) {
	f := newTestFixture(t)

	w := f.do(t, "GET", "/api/forums/threads?size=5000", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var page forum.Page[forum.Thread]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	require.Equal(t, 100, page.Size)
}
