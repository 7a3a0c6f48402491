// Package memorystore is an in-memory player.Store for tests and no-database
// development runs.
package memorystore

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/open-rails/playkit/player"
)

// Store keeps all rows in maps guarded by one mutex. Single-node only.
type Store struct {
	mu       sync.Mutex
	profiles map[string]player.Profile
	scores   []player.Score
	messages map[uuid.UUID]player.Message
}

func New() *Store {
	return &Store{
		profiles: make(map[string]player.Profile),
		messages: make(map[uuid.UUID]player.Message),
	}
}

func (s *Store) GetProfile(ctx context.Context, userID string) (*player.Profile, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[userID]
	if !ok {
		return nil, nil
	}
	cp := p
	return &cp, nil
}

func (s *Store) UpsertProfile(ctx context.Context, p *player.Profile) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[p.UserID] = *p
	return nil
}

func (s *Store) InsertScore(ctx context.Context, sc *player.Score) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scores = append(s.scores, *sc)
	return nil
}

func (s *Store) InsertMessage(ctx context.Context, m *player.Message) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages[m.ID] = *m
	return nil
}

func (s *Store) ListInbox(ctx context.Context, toUserID string, page, size int) ([]player.Message, error) {
	_ = ctx
	page, size = player.ClampPage(page, size)
	s.mu.Lock()
	defer s.mu.Unlock()

	var inbox []player.Message
	for _, m := range s.messages {
		if m.ToUserID == toUserID {
			inbox = append(inbox, m)
		}
	}
	// Newest first, matching the SQL ordering.
	sort.Slice(inbox, func(i, j int) bool { return inbox[i].CreatedAt.After(inbox[j].CreatedAt) })

	start := (page - 1) * size
	if start >= len(inbox) {
		return []player.Message{}, nil
	}
	end := start + size
	if end > len(inbox) {
		end = len(inbox)
	}
	return inbox[start:end], nil
}

func (s *Store) MarkDelivered(ctx context.Context, id uuid.UUID, at time.Time) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.messages[id]
	if !ok {
		return errors.New("memorystore: message not found")
	}
	m.DeliveredAt = &at
	s.messages[id] = m
	return nil
}
