// Package player holds the domain records the route handlers act on once the
// caller's identity is verified, plus the storage contract their
// implementations satisfy.
package player

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Profile is a player's public profile row.
type Profile struct {
	bun.BaseModel `bun:"table:profiles"`

	UserID      string    `bun:"user_id,pk" json:"user_id"`
	DisplayName string    `bun:"display_name" json:"display_name"`
	AvatarURL   string    `bun:"avatar_url" json:"avatar_url"`
	UpdatedAt   time.Time `bun:"updated_at" json:"updated_at"`
}

// Score is one submitted score for one game.
type Score struct {
	bun.BaseModel `bun:"table:scores"`

	ID        uuid.UUID `bun:"id,pk" json:"id"`
	UserID    string    `bun:"user_id" json:"user_id"`
	GameID    string    `bun:"game_id" json:"game_id"`
	Points    int64     `bun:"points" json:"points"`
	CreatedAt time.Time `bun:"created_at" json:"created_at"`
}

// Message is a player-to-player message. DeliveredAt is set by the background
// delivery worker, not at send time.
type Message struct {
	bun.BaseModel `bun:"table:messages"`

	ID          uuid.UUID  `bun:"id,pk" json:"id"`
	FromUserID  string     `bun:"from_user_id" json:"from_user_id"`
	ToUserID    string     `bun:"to_user_id" json:"to_user_id"`
	Body        string     `bun:"body" json:"body"`
	CreatedAt   time.Time  `bun:"created_at" json:"created_at"`
	DeliveredAt *time.Time `bun:"delivered_at" json:"delivered_at,omitempty"`
}

// Paging bounds. MaxPage keeps offset arithmetic far from integer overflow
// even at the largest page size.
const (
	MaxPage         = 1_000_000
	DefaultPageSize = 50
	MaxPageSize     = 200
)

// ClampPage normalizes paging inputs. Query strings can carry anything up to
// math.MaxInt; the returned values are always safe to use as
// (page-1)*size offset arithmetic.
func ClampPage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if page > MaxPage {
		page = MaxPage
	}
	if size < 1 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return page, size
}

// Store is the persistence contract the handlers and the delivery worker use.
// Lookups that find nothing return (nil, nil), not an error.
type Store interface {
	GetProfile(ctx context.Context, userID string) (*Profile, error)
	UpsertProfile(ctx context.Context, p *Profile) error

	InsertScore(ctx context.Context, s *Score) error

	InsertMessage(ctx context.Context, m *Message) error
	ListInbox(ctx context.Context, toUserID string, page, size int) ([]Message, error)
	MarkDelivered(ctx context.Context, id uuid.UUID, at time.Time) error
}
