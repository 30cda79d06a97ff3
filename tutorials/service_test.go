package tutorials_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	apperrors "github.com/xquti/mdb-backend/internal/errors"
	"github.com/xquti/mdb-backend/tutorials"
	"github.com/xquti/mdb-backend/tutorials/repofake"
	"github.com/xquti/mdb-backend/users"
)

var (
	admin  = &users.User{ID: 1, Email: "admin@example.com", Roles: []string{users.RoleUser, users.RoleAdmin}}
	reader = &users.User{ID: 2, Email: "bob@example.com", Roles: []string{users.RoleUser}}
)

func newTutorialService(t *testing.T) (*tutorials.Service, *repofake.FakeRepo) {
	t.Helper()
	repo := repofake.New()
	service, err := tutorials.NewService(repo)
	require.NoError(t, err)
	return service, repo
}

func TestSaveModuleRequiresAdmin(t *testing.T) {
	service, _ := newTutorialService(t)
	ctx := context.Background()

	_, err := service.SaveModule(ctx, reader, &tutorials.Module{Title: "Go basics", Published: true})
	require.ErrorIs(t, err, apperrors.ErrForbidden)

	module, err := service.SaveModule(ctx, admin, &tutorials.Module{Title: "Go basics", Published: true})
	require.NoError(t, err)
	require.NotZero(t, module.ID)
}

func TestListModulesSortsByOrderIndexAndHidesDrafts(t *testing.T) {
	service, _ := newTutorialService(t)
	ctx := context.Background()

	_, err := service.SaveModule(ctx, admin, &tutorials.Module{Title: "second", OrderIndex: 2, Published: true})
	require.NoError(t, err)
	_, err = service.SaveModule(ctx, admin, &tutorials.Module{Title: "first", OrderIndex: 1, Published: true})
	require.NoError(t, err)
	_, err = service.SaveModule(ctx, admin, &tutorials.Module{Title: "draft", OrderIndex: 0, Published: false})
	require.NoError(t, err)

	modules, err := service.ListModules(ctx, "")
	require.NoError(t, err)
	require.Len(t, modules, 2)
	require.Equal(t, "first", modules[0].Title)
	require.Equal(t, "second", modules[1].Title)
}

func TestListModulesFiltersByCategory(t *testing.T) {
	service, _ := newTutorialService(t)
	ctx := context.Background()

	_, err := service.SaveModule(ctx, admin, &tutorials.Module{Title: "go", Category: "go", Published: true})
	require.NoError(t, err)
	_, err = service.SaveModule(ctx, admin, &tutorials.Module{Title: "sql", Category: "databases", Published: true})
	require.NoError(t, err)

	modules, err := service.ListModules(ctx, "databases")
	require.NoError(t, err)
	require.Len(t, modules, 1)
	require.Equal(t, "sql", modules[0].Title)
}

func TestGetModuleHidesDrafts(t *testing.T) {
	service, _ := newTutorialService(t)
	ctx := context.Background()

	draft, err := service.SaveModule(ctx, admin, &tutorials.Module{Title: "draft", Published: false})
	require.NoError(t, err)

	_, err = service.GetModule(ctx, draft.ID)
	require.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = service.GetModule(ctx, 999)
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestLessonsFollowModuleLifecycle(t *testing.T) {
	service, _ := newTutorialService(t)
	ctx := context.Background()

	module, err := service.SaveModule(ctx, admin, &tutorials.Module{Title: "go", Published: true})
	require.NoError(t, err)

	_, err = service.SaveLesson(ctx, reader, &tutorials.Lesson{ModuleID: module.ID, Title: "intro", Published: true})
	require.ErrorIs(t, err, apperrors.ErrForbidden)

	_, err = service.SaveLesson(ctx, admin, &tutorials.Lesson{ModuleID: 999, Title: "intro", Published: true})
	require.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = service.SaveLesson(ctx, admin, &tutorials.Lesson{ModuleID: module.ID, Title: "second", OrderIndex: 2, Published: true})
	require.NoError(t, err)
	_, err = service.SaveLesson(ctx, admin, &tutorials.Lesson{ModuleID: module.ID, Title: "first", OrderIndex: 1, Published: true})
	require.NoError(t, err)
	_, err = service.SaveLesson(ctx, admin, &tutorials.Lesson{ModuleID: module.ID, Title: "draft", OrderIndex: 3, Published: false})
	require.NoError(t, err)

	lessons, err := service.ListLessons(ctx, module.ID)
	require.NoError(t, err)
	require.Len(t, lessons, 2)
	require.Equal(t, "first", lessons[0].Title)
	require.Equal(t, "second", lessons[1].Title)
}
