// Package pgstore is the Postgres-backed player.Store used in production.
package pgstore

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/open-rails/playkit/player"
)

type Store struct {
	db *bun.DB
}

func New(db *bun.DB) *Store {
	return &Store{db: db}
}

func (s *Store) GetProfile(ctx context.Context, userID string) (*player.Profile, error) {
	p := new(player.Profile)
	err := s.db.NewSelect().Model(p).Where("user_id = ?", userID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Store) UpsertProfile(ctx context.Context, p *player.Profile) error {
	_, err := s.db.NewInsert().
		Model(p).
		On("CONFLICT (user_id) DO UPDATE").
		Set("display_name = EXCLUDED.display_name").
		Set("avatar_url = EXCLUDED.avatar_url").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}

func (s *Store) InsertScore(ctx context.Context, sc *player.Score) error {
	_, err := s.db.NewInsert().Model(sc).Exec(ctx)
	return err
}

func (s *Store) InsertMessage(ctx context.Context, m *player.Message) error {
	_, err := s.db.NewInsert().Model(m).Exec(ctx)
	return err
}

func (s *Store) ListInbox(ctx context.Context, toUserID string, page, size int) ([]player.Message, error) {
	page, size = player.ClampPage(page, size)
	msgs := make([]player.Message, 0, size)
	err := s.db.NewSelect().
		Model(&msgs).
		Where("to_user_id = ?", toUserID).
		OrderExpr("created_at DESC").
		Limit(size).
		Offset((page - 1) * size).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return msgs, nil
}

func (s *Store) MarkDelivered(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := s.db.NewUpdate().
		Model((*player.Message)(nil)).
		Set("delivered_at = ?", at).
		Where("id = ?", id).
		Exec(ctx)
	return err
}
