package store

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pmarks/fightpool/internal/pool"
)

type ParticipantStore struct {
	db *sqlx.DB
}

const (
	createParticipantQuery = `INSERT INTO participants (id, pool_id, display_name, pin_hash, joined_at)
        VALUES (:id, :pool_id, :display_name, :pin_hash, :joined_at)`
	getParticipantByNameQuery = `
        SELECT * FROM participants
        WHERE pool_id = ?
        AND display_name = ?
    `
)

func NewParticipantStore(db *sqlx.DB) *ParticipantStore {
	return &ParticipantStore{db: db}
}

func (s *ParticipantStore) CreateParticipant(ctx context.Context, p *pool.Participant) error {
	_, err := s.db.NamedExecContext(ctx, createParticipantQuery, p)
	return err
}

func (s *ParticipantStore) GetParticipant(ctx context.Context, id interface{}) (*pool.Participant, error) {
	var p pool.Participant
	err := s.db.GetContext(ctx, &p, "SELECT * FROM participants WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *ParticipantStore) GetParticipantByName(ctx context.Context, poolID, displayName string) (*pool.Participant, error) {
	var p pool.Participant
	err := s.db.GetContext(ctx, &p, getParticipantByNameQuery, poolID, displayName)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *ParticipantStore) GetParticipants(ctx context.Context, poolID string) ([]pool.Participant, error) {
	var participants []pool.Participant
	err := s.db.SelectContext(ctx, &participants,
		"SELECT * FROM participants WHERE pool_id = ? ORDER BY joined_at ASC", poolID)
	return participants, err
}
