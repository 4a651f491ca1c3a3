package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pmarks/fightpool/internal/pool"
	"github.com/pmarks/fightpool/internal/store"
	"golang.org/x/crypto/bcrypt"
)

type AuthService struct {
	db           *sqlx.DB
	participants *store.ParticipantStore
	limiter      pool.RateLimiter
	signinLimit  int
	signinWindow time.Duration
}

func NewAuthService(db *sqlx.DB, participants *store.ParticipantStore, limiter pool.RateLimiter, signinLimit int, signinWindow time.Duration) *AuthService {
	return &AuthService{
		db:           db,
		participants: participants,
		limiter:      limiter,
		signinLimit:  signinLimit,
		signinWindow: signinWindow,
	}
}

// ValidPIN reports whether pin is exactly four ASCII digits.
func ValidPIN(pin string) bool {
	if len(pin) != 4 {
		return false
	}
	for _, c := range pin {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// Join creates a participant in the pool. The display name must be unique
// within the pool; the raw PIN is never stored, only its bcrypt hash.
func (s *AuthService) Join(ctx context.Context, poolID, displayName, pin string) (*pool.Participant, error) {
	displayName = strings.TrimSpace(displayName)

	_, err := s.participants.GetParticipantByName(ctx, poolID, displayName)
	if err == nil {
		return nil, pool.ErrNameTaken
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to check name: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash PIN: %w", err)
	}

	participant := &pool.Participant{
		ID:          uuid.New(),
		PoolID:      poolID,
		DisplayName: displayName,
		PINHash:     string(hash),
		JoinedAt:    time.Now().UTC(),
	}

	if err := s.participants.CreateParticipant(ctx, participant); err != nil {
		return nil, fmt.Errorf("failed to create participant: %w", err)
	}
	return participant, nil
}

// SignIn re-authenticates an existing participant. Attempts are throttled
// per source: a 4-digit PIN has only 10,000 values, so unthrottled guessing
// would walk the whole space in minutes. The failure is identical whether
// the name is unknown or the PIN is wrong.
func (s *AuthService) SignIn(ctx context.Context, poolID, displayName, pin, source string) (*pool.Participant, error) {
	allowed, err := s.limiter.Allow(ctx, "signin:"+source, s.signinLimit, s.signinWindow)
	if err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}
	if !allowed {
		return nil, pool.ErrRateLimited
	}

	participant, err := s.participants.GetParticipantByName(ctx, poolID, strings.TrimSpace(displayName))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Burn a hash comparison anyway so an unknown name costs the
			// same as a wrong PIN.
			bcrypt.CompareHashAndPassword(dummyHash, []byte(pin))
			return nil, pool.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up participant: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(participant.PINHash), []byte(pin)); err != nil {
		return nil, pool.ErrInvalidCredentials
	}
	return participant, nil
}

// bcrypt hash of an unguessable value, compared against when the name
// does not exist.
var dummyHash = func() []byte {
	h, _ := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), bcrypt.DefaultCost)
	return h
}()
