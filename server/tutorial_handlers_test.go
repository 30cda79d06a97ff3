package server_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xquti/mdb-backend/tutorials"
	"github.com/xquti/mdb-backend/users"
)

func TestSaveModuleRequiresAdminRole(t *testing.T) {
	f := newTestFixture(t)
	userAccess := f.login(t, "alice@example.com")
	adminAccess := f.login(t, "admin@example.com", users.RoleUser, users.RoleAdmin)

	body := `{"title":"Go basics","description":"start here","category":"go","difficulty":"beginner","orderIndex":1,"isPublished":true}`

	w := f.do(t, "POST", "/api/tutorials/modules", "", body)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.do(t, "POST", "/api/tutorials/modules", userAccess, body)
	require.Equal(t, http.StatusForbidden, w.Code)

	w = f.do(t, "POST", "/api/tutorials/modules", adminAccess, body)
	require.Equal(t, http.StatusCreated, w.Code)
}

func TestModuleAndLessonFlow(t *testing.T) {
	f := newTestFixture(t)
	adminAccess := f.login(t, "admin@example.com", users.RoleUser, users.RoleAdmin)

	w := f.do(t, "POST", "/api/tutorials/modules", adminAccess,
		`{"title":"Go basics","difficulty":"beginner","orderIndex":1,"isPublished":true}`)
	require.Equal(t, http.StatusCreated, w.Code)
	var module tutorials.Module
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &module))

	w = f.do(t, "POST", fmt.Sprintf("/api/tutorials/modules/%d/lessons", module.ID), adminAccess,
		`{"title":"Hello world","content":"# Lesson","type":"text","orderIndex":1,"isPublished":true}`)
	require.Equal(t, http.StatusCreated, w.Code)

	w = f.do(t, "GET", "/api/tutorials/modules", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var modules []tutorials.Module
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &modules))
	require.Len(t, modules, 1)

	w = f.do(t, "GET", fmt.Sprintf("/api/tutorials/modules/%d/lessons", module.ID), "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var lessons []tutorials.Lesson
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &lessons))
	require.Len(t, lessons, 1)

	// Update via PUT.
	w = f.do(t, "PUT", fmt.Sprintf("/api/tutorials/modules/%d", module.ID), adminAccess,
		`{"title":"Go fundamentals","difficulty":"beginner","orderIndex":1,"isPublished":true}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, "GET", fmt.Sprintf("/api/tutorials/modules/%d", module.ID), "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var updated tutorials.Module
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	require.Equal(t, "Go fundamentals", updated.Title)
}

func TestDraftModulesAreHidden(t *testing.T) {
	f := newTestFixture(t)
	adminAccess := f.login(t, "admin@example.com", users.RoleUser, users.RoleAdmin)

	w := f.do(t, "POST", "/api/tutorials/modules", adminAccess,
		`{"title":"unfinished draft","orderIndex":1,"isPublished":false}`)
	require.Equal(t, http.StatusCreated, w.Code)
	var module tutorials.Module
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &module))

	w = f.do(t, "GET", "/api/tutorials/modules", "", "")
	var modules []tutorials.Module
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &modules))
	require.Empty(t, modules)

	w = f.do(t, "GET", fmt.Sprintf("/api/tutorials/modules/%d", module.ID), "", "")
	require.Equal(t, http.StatusNotFound, w.Code)
}
