package memory

import (
	"context"
	"sync"
	"time"

	"github.com/anonto42/nano-social/backend/internal/models"
	"github.com/anonto42/nano-social/backend/internal/repositories"
)

// SessionRepository keeps refresh-token sessions in memory. It is used when
// no PostgreSQL connection string is configured.
type SessionRepository struct {
	mu     sync.Mutex
	nextID uint
	byID   map[uint]*models.RefreshToken
}

func NewSessionRepository() *SessionRepository {
	return &SessionRepository{byID: make(map[uint]*models.RefreshToken)}
}

func (r *SessionRepository) CreateSession(_ context.Context, session *models.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	session.ID = r.nextID
	session.CreatedAt = time.Now()
	stored := *session
	r.byID[stored.ID] = &stored
	return nil
}

func (r *SessionRepository) GetSessionByHash(_ context.Context, tokenHash string) (*models.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.byID {
		if s.TokenHash == tokenHash {
			out := *s
			return &out, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *SessionRepository) RevokeSession(_ context.Context, id uint, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byID[id]
	if !ok || s.RevokedAt != nil {
		return repositories.ErrNotFound
	}
	s.RevokedAt = &at
	return nil
}

func (r *SessionRepository) RevokeUserSessions(_ context.Context, userID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.byID {
		if s.UserID == userID && s.RevokedAt == nil {
			revokedAt := at
			s.RevokedAt = &revokedAt
		}
	}
	return nil
}
