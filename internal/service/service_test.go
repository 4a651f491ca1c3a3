package service

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
	"github.com/pmarks/fightpool/internal/store"
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

func createPool(t *testing.T, db *sqlx.DB, status pool.Status) *pool.Pool {
	t.Helper()

	p := &pool.Pool{
		ID:        pool.NewID(),
		Name:      "Test Pool",
		Status:    status,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, store.NewPoolStore(db).CreatePool(context.Background(), p))
	return p
}

// createParticipant inserts directly with a placeholder hash; tests that
// care about PIN verification go through AuthService.Join instead.
func createParticipant(t *testing.T, db *sqlx.DB, poolID, name string) *pool.Participant {
	t.Helper()

	p := &pool.Participant{
		ID:          uuid.New(),
		PoolID:      poolID,
		DisplayName: name,
		PINHash:     "not-a-real-hash",
		JoinedAt:    time.Now().UTC(),
	}
	require.NoError(t, store.NewParticipantStore(db).CreateParticipant(context.Background(), p))
	return p
}

func newMatchService(db *sqlx.DB) *MatchService {
	return NewMatchService(db, store.NewPoolStore(db), store.NewMatchStore(db), nil, nil)
}

func newPredictionService(db *sqlx.DB) *PredictionService {
	return NewPredictionService(db, store.NewPoolStore(db), store.NewMatchStore(db), store.NewPredictionStore(db))
}
