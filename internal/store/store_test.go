package store

import (
	"context"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pmarks/fightpool/internal/pool"
	"github.com/stretchr/testify/require"
)

// setupTestDB creates an in-memory SQLite database and applies migrations
func setupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	database, err := sqlx.Connect("sqlite3", "file::memory:")
	require.NoError(t, err, "Failed to connect to in-memory DB")
	database.SetMaxOpenConns(1)

	_, err = database.Exec("PRAGMA foreign_keys = ON;")
	require.NoError(t, err)

	driver, err := sqlite3.WithInstance(database.DB, &sqlite3.Config{})
	require.NoError(t, err, "Failed to create migrate driver instance")

	m, err := migrate.NewWithDatabaseInstance(
		"file://../../migrations",
		"sqlite3",
		driver,
	)
	require.NoError(t, err, "Failed to create migrate instance")

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		require.NoError(t, err, "Failed to apply migrations")
	}

	return database
}

func createTestPool(t *testing.T, db *sqlx.DB) *pool.Pool {
	t.Helper()

	p := &pool.Pool{
		ID:        pool.NewID(),
		Name:      "Test Pool",
		Status:    pool.StatusOpen,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, NewPoolStore(db).CreatePool(context.Background(), p))
	return p
}

func createTestParticipant(t *testing.T, db *sqlx.DB, poolID, name string) *pool.Participant {
	t.Helper()

	p := &pool.Participant{
		ID:          uuid.New(),
		PoolID:      poolID,
		DisplayName: name,
		PINHash:     "hash",
		JoinedAt:    time.Now().UTC(),
	}
	require.NoError(t, NewParticipantStore(db).CreateParticipant(context.Background(), p))
	return p
}

func createTestMatch(t *testing.T, db *sqlx.DB, poolID string, order int) *pool.Match {
	t.Helper()

	m := pool.Match{
		ID:         uuid.New(),
		PoolID:     poolID,
		SideA:      "Side A",
		SideB:      "Side B",
		Multiplier: 1,
		MatchOrder: order,
		CreatedAt:  time.Now().UTC(),
	}

	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)
	require.NoError(t, NewMatchStore(db).CreateMatches(context.Background(), tx, []pool.Match{m}))
	require.NoError(t, tx.Commit())
	return &m
}
