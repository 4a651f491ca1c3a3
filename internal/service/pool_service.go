package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pmarks/fightpool/internal/pool"
	"github.com/pmarks/fightpool/internal/store"
)

type PoolService struct {
	db    *sqlx.DB
	pools *store.PoolStore
}

func NewPoolService(db *sqlx.DB, pools *store.PoolStore) *PoolService {
	return &PoolService{db: db, pools: pools}
}

func (s *PoolService) CreatePool(ctx context.Context, name, description string) (*pool.Pool, error) {
	p := &pool.Pool{
		ID:          pool.NewID(),
		Name:        strings.TrimSpace(name),
		Description: strings.TrimSpace(description),
		Status:      pool.StatusOpen,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.pools.CreatePool(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	return p, nil
}

func (s *PoolService) GetPool(ctx context.Context, id string) (*pool.Pool, error) {
	return s.pools.GetPool(ctx, id)
}

// EditPool updates name and description. A blank name keeps the old one.
func (s *PoolService) EditPool(ctx context.Context, id, name, description string) (*pool.Pool, error) {
	p, err := s.pools.GetPool(ctx, id)
	if err != nil {
		return nil, err
	}

	if name = strings.TrimSpace(name); name != "" {
		p.Name = name
	}
	p.Description = strings.TrimSpace(description)

	if err := s.pools.UpdatePoolInfo(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to update pool: %w", err)
	}
	return p, nil
}

func (s *PoolService) DeletePool(ctx context.Context, id string) error {
	if _, err := s.pools.GetPool(ctx, id); err != nil {
		return err
	}
	return s.pools.DeletePool(ctx, id)
}

// Lock, Reopen and Finish drive the pool lifecycle. The transition rules
// themselves live on pool.Pool; these persist the outcome.

func (s *PoolService) Lock(ctx context.Context, id string) (*pool.Pool, error) {
	return s.transition(ctx, id, (*pool.Pool).Lock)
}

func (s *PoolService) Reopen(ctx context.Context, id string) (*pool.Pool, error) {
	return s.transition(ctx, id, (*pool.Pool).Reopen)
}

func (s *PoolService) Finish(ctx context.Context, id string) (*pool.Pool, error) {
	return s.transition(ctx, id, (*pool.Pool).Finish)
}

func (s *PoolService) transition(ctx context.Context, id string, step func(*pool.Pool) error) (*pool.Pool, error) {
	p, err := s.pools.GetPool(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := step(p); err != nil {
		return nil, err
	}
	if err := s.pools.UpdatePoolStatus(ctx, id, p.Status); err != nil {
		return nil, fmt.Errorf("failed to update pool status: %w", err)
	}
	return p, nil
}
