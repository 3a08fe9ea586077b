//go:build integration

package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/scullers68/sprintintel/errs"
	"github.com/scullers68/sprintintel/model"
)

// setupPostgresContainer starts a throwaway PostgreSQL container and
// returns a migrated *DB plus a teardown func, mirroring the pattern used
// for every real-database-backed test in this module.
func setupPostgresContainer(t *testing.T) (*DB, func()) {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "testuser",
			"POSTGRES_PASSWORD": "testpass",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err, "failed to start postgres container")

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := fmt.Sprintf("host=%s port=%s user=testuser password=testpass dbname=testdb sslmode=disable", host, port.Port())

	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	db := &DB{gdb}
	require.NoError(t, db.Migrate())

	return db, func() { _ = container.Terminate(ctx) }
}

func TestSprintRepository_SaveAndRetrieveByTrackerID(t *testing.T) {
	db, teardown := setupPostgresContainer(t)
	defer teardown()

	repo := NewSprintRepository(db)
	sprint := &model.Sprint{
		TrackerSprintID:   101,
		Name:              "Sprint 1",
		State:             model.SprintStateActive,
		TrackerProjectKey: "SI",
		BoardID:           55,
	}
	require.NoError(t, repo.SaveSprint(context.Background(), sprint))

	found, err := repo.SprintByTrackerID(context.Background(), 101)
	require.NoError(t, err)
	assert.Equal(t, "Sprint 1", found.Name)
}

func TestSprintRepository_SprintByTrackerID_NotFoundReturnsNotFoundKind(t *testing.T) {
	db, teardown := setupPostgresContainer(t)
	defer teardown()

	repo := NewSprintRepository(db)
	_, err := repo.SprintByTrackerID(context.Background(), 9999)
	require.Error(t, err)
	assert.True(t, errs.IsKind(err, errs.KindNotFound))
}

func TestSprintRepository_SprintsForProject_ExcludesActiveWhenNotIncluded(t *testing.T) {
	db, teardown := setupPostgresContainer(t)
	defer teardown()

	repo := NewSprintRepository(db)
	require.NoError(t, repo.SaveSprint(context.Background(), &model.Sprint{
		TrackerSprintID: 1, Name: "Closed Sprint", State: model.SprintStateClosed, TrackerProjectKey: "SI",
	}))
	require.NoError(t, repo.SaveSprint(context.Background(), &model.Sprint{
		TrackerSprintID: 2, Name: "Active Sprint", State: model.SprintStateActive, TrackerProjectKey: "SI",
	}))

	sprints, err := repo.SprintsForProject(context.Background(), "SI", 10, false)
	require.NoError(t, err)
	require.Len(t, sprints, 1)
	assert.Equal(t, "Closed Sprint", sprints[0].Name)
}

func TestSprintRepository_MostRecentActiveSprintForBoard(t *testing.T) {
	db, teardown := setupPostgresContainer(t)
	defer teardown()

	repo := NewSprintRepository(db)
	require.NoError(t, repo.SaveSprint(context.Background(), &model.Sprint{
		TrackerSprintID: 3, Name: "Active", State: model.SprintStateActive, BoardID: 77,
	}))

	sprint, err := repo.MostRecentActiveSprintForBoard(context.Background(), 77)
	require.NoError(t, err)
	assert.Equal(t, "Active", sprint.Name)
}
