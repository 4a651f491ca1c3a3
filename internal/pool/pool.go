package pool

import (
	"encoding/hex"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusOpen     Status = "open"
	StatusLocked   Status = "locked"
	StatusFinished Status = "finished"
)

// Operation classes gated by the pool lifecycle. Every mutating call
// checks one of these before touching the store.
func (s Status) CanEditMatches() bool       { return s != StatusFinished }
func (s Status) CanSubmitPredictions() bool { return s == StatusOpen }
func (s Status) CanSetResults() bool        { return s == StatusLocked || s == StatusFinished }

type Pool struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	Status      Status    `db:"status" json:"status"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// NewID returns a short unguessable pool token. Pools are shared by URL,
// so the id doubles as the invite secret.
func NewID() string {
	u := uuid.New()
	return hex.EncodeToString(u[:])[:12]
}

// Lock freezes prediction entry. Locking an already locked pool is a no-op.
func (p *Pool) Lock() error {
	switch p.Status {
	case StatusFinished:
		return ErrPoolFinished
	default:
		p.Status = StatusLocked
		return nil
	}
}

// Reopen allows predictions again. Finished pools cannot be reopened.
func (p *Pool) Reopen() error {
	switch p.Status {
	case StatusFinished:
		return ErrPoolFinished
	default:
		p.Status = StatusOpen
		return nil
	}
}

// Finish makes the leaderboard final. Only a locked pool can be finished;
// results do not have to be complete, unset results simply never score.
func (p *Pool) Finish() error {
	switch p.Status {
	case StatusOpen:
		return ErrPoolNotLocked
	default:
		p.Status = StatusFinished
		return nil
	}
}
