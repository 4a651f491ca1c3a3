package pool

import (
	"time"

	"github.com/google/uuid"
)

type Participant struct {
	ID          uuid.UUID `db:"id" json:"id"`
	PoolID      string    `db:"pool_id" json:"pool_id"`
	DisplayName string    `db:"display_name" json:"display_name"`
	PINHash     string    `db:"pin_hash" json:"-"`
	JoinedAt    time.Time `db:"joined_at" json:"joined_at"`
}

type Prediction struct {
	ID            uuid.UUID `db:"id" json:"id"`
	ParticipantID uuid.UUID `db:"participant_id" json:"participant_id"`
	MatchID       uuid.UUID `db:"match_id" json:"match_id"`
	Pick          Pick      `db:"pick" json:"pick"`
}
