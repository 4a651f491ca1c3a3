package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pmarks/fightpool/internal/middleware"
	"github.com/pmarks/fightpool/internal/pool"
	"github.com/pmarks/fightpool/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthService(db *sqlx.DB, limit int, window time.Duration) *AuthService {
	return NewAuthService(db, store.NewParticipantStore(db), middleware.NewMemoryRateLimiter(), limit, window)
}

func TestJoinAndSignIn(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	p := createPool(t, db, pool.StatusOpen)
	authService := newAuthService(db, 5, time.Minute)
	ctx := context.Background()

	joined, err := authService.Join(ctx, p.ID, "  Alice  ", "1234")
	require.NoError(t, err)
	assert.Equal(t, "Alice", joined.DisplayName, "display names are trimmed")
	assert.NotContains(t, joined.PINHash, "1234", "the raw PIN is never stored")

	signedIn, err := authService.SignIn(ctx, p.ID, "Alice", "1234", "10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, joined.ID, signedIn.ID)
}

func TestJoin_NameTakenWithinPool(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	p := createPool(t, db, pool.StatusOpen)
	other := createPool(t, db, pool.StatusOpen)
	authService := newAuthService(db, 5, time.Minute)
	ctx := context.Background()

	_, err := authService.Join(ctx, p.ID, "Alice", "1234")
	require.NoError(t, err)

	_, err = authService.Join(ctx, p.ID, "Alice", "9999")
	assert.ErrorIs(t, err, pool.ErrNameTaken)

	_, err = authService.Join(ctx, other.ID, "Alice", "9999")
	assert.NoError(t, err, "names are only unique per pool")
}

func TestSignIn_WrongPINAndUnknownNameLookAlike(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	p := createPool(t, db, pool.StatusOpen)
	authService := newAuthService(db, 100, time.Minute)
	ctx := context.Background()

	_, err := authService.Join(ctx, p.ID, "Alice", "1234")
	require.NoError(t, err)

	_, wrongPIN := authService.SignIn(ctx, p.ID, "Alice", "0000", "10.0.0.1")
	_, unknownName := authService.SignIn(ctx, p.ID, "Mallory", "1234", "10.0.0.1")

	assert.ErrorIs(t, wrongPIN, pool.ErrInvalidCredentials)
	assert.ErrorIs(t, unknownName, pool.ErrInvalidCredentials)
	assert.Equal(t, wrongPIN.Error(), unknownName.Error(),
		"the error must not reveal whether the name exists")
}

func TestSignIn_RateLimitedPerSource(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	p := createPool(t, db, pool.StatusOpen)
	authService := newAuthService(db, 5, time.Minute)
	ctx := context.Background()

	_, err := authService.Join(ctx, p.ID, "Alice", "1234")
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, err := authService.SignIn(ctx, p.ID, "Alice", "0000", "10.0.0.1")
		assert.ErrorIs(t, err, pool.ErrInvalidCredentials, fmt.Sprintf("attempt %d", i+1))
	}

	_, err = authService.SignIn(ctx, p.ID, "Alice", "1234", "10.0.0.1")
	assert.ErrorIs(t, err, pool.ErrRateLimited,
		"the sixth attempt is throttled even with the right PIN")

	_, err = authService.SignIn(ctx, p.ID, "Alice", "1234", "10.0.0.2")
	assert.NoError(t, err, "a different source has its own window")
}

func TestValidPIN(t *testing.T) {
	assert.True(t, ValidPIN("0000"))
	assert.True(t, ValidPIN("1234"))

	assert.False(t, ValidPIN("123"))
	assert.False(t, ValidPIN("12345"))
	assert.False(t, ValidPIN("12a4"))
	assert.False(t, ValidPIN(""))
	assert.False(t, ValidPIN("١٢٣٤"), "only ASCII digits count")
}
