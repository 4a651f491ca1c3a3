package store

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pmarks/fightpool/internal/pool"
)

type PoolStore struct {
	db *sqlx.DB
}

const (
	createPoolQuery = `INSERT INTO pools (id, name, description, status, created_at)
        VALUES (:id, :name, :description, :status, :created_at)`
	updatePoolInfoQuery = `UPDATE pools SET name = :name, description = :description WHERE id = :id`
)

func NewPoolStore(db *sqlx.DB) *PoolStore {
	return &PoolStore{db: db}
}

func (s *PoolStore) CreatePool(ctx context.Context, p *pool.Pool) error {
	_, err := s.db.NamedExecContext(ctx, createPoolQuery, p)
	return err
}

func (s *PoolStore) GetPool(ctx context.Context, id string) (*pool.Pool, error) {
	var p pool.Pool
	err := s.db.GetContext(ctx, &p, "SELECT * FROM pools WHERE id = ?", id)
	return &p, err
}

func (s *PoolStore) UpdatePoolInfo(ctx context.Context, p *pool.Pool) error {
	_, err := s.db.NamedExecContext(ctx, updatePoolInfoQuery, p)
	return err
}

func (s *PoolStore) UpdatePoolStatus(ctx context.Context, id string, status pool.Status) error {
	_, err := s.db.ExecContext(ctx, "UPDATE pools SET status = ? WHERE id = ?", status, id)
	return err
}

// DeletePool removes the pool; matches, participants and predictions go
// with it through the FK cascades.
func (s *PoolStore) DeletePool(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM pools WHERE id = ?", id)
	return err
}
