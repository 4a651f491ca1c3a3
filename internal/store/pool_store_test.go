package store

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pmarks/fightpool/internal/pool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAndGetPool(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	store := NewPoolStore(db)

	p := &pool.Pool{
		ID:          pool.NewID(),
		Name:        "UFC 300",
		Description: "Main card only",
		Status:      pool.StatusOpen,
		CreatedAt:   time.Now().UTC(),
	}
	require.NoError(t, store.CreatePool(context.Background(), p))

	fetched, err := store.GetPool(context.Background(), p.ID)
	require.NoError(t, err)

	assert.Equal(t, p.ID, fetched.ID)
	assert.Equal(t, p.Name, fetched.Name)
	assert.Equal(t, p.Description, fetched.Description)
	assert.Equal(t, pool.StatusOpen, fetched.Status)
	assert.WithinDuration(t, p.CreatedAt, fetched.CreatedAt, time.Second)
}

func TestGetPool_NotFound(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	_, err := NewPoolStore(db).GetPool(context.Background(), "nope")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestUpdatePoolStatus(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	store := NewPoolStore(db)
	p := createTestPool(t, db)

	require.NoError(t, store.UpdatePoolStatus(context.Background(), p.ID, pool.StatusLocked))

	fetched, err := store.GetPool(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, pool.StatusLocked, fetched.Status)
}

func TestDeletePool_Cascades(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	p := createTestPool(t, db)
	participant := createTestParticipant(t, db, p.ID, "Alice")
	match := createTestMatch(t, db, p.ID, 0)

	prediction := &pool.Prediction{
		ID:            uuid.New(),
		ParticipantID: participant.ID,
		MatchID:       match.ID,
		Pick:          pool.PickA,
	}
	require.NoError(t, NewPredictionStore(db).UpsertPrediction(context.Background(), prediction))

	require.NoError(t, NewPoolStore(db).DeletePool(context.Background(), p.ID))

	var count int
	require.NoError(t, db.Get(&count, "SELECT COUNT(*) FROM participants WHERE pool_id = ?", p.ID))
	assert.Zero(t, count)
	require.NoError(t, db.Get(&count, "SELECT COUNT(*) FROM matches WHERE pool_id = ?", p.ID))
	assert.Zero(t, count)
	require.NoError(t, db.Get(&count, "SELECT COUNT(*) FROM predictions"))
	assert.Zero(t, count)
}
