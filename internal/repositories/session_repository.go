package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/anonto42/nano-social/backend/internal/models"
	"gorm.io/gorm"
)

// SessionRepository stores refresh-token sessions
type SessionRepository interface {
	CreateSession(ctx context.Context, session *models.RefreshToken) error
	GetSessionByHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error)
	RevokeSession(ctx context.Context, id uint, at time.Time) error
	RevokeUserSessions(ctx context.Context, userID string, at time.Time) error
}

// PostgresSessionRepository implements SessionRepository for PostgreSQL
type PostgresSessionRepository struct {
	db *gorm.DB
}

// NewPostgresSessionRepository creates a new PostgresSessionRepository
func NewPostgresSessionRepository(db *gorm.DB) *PostgresSessionRepository {
	return &PostgresSessionRepository{db: db}
}

func (r *PostgresSessionRepository) CreateSession(ctx context.Context, session *models.RefreshToken) error {
	return r.db.WithContext(ctx).Create(session).Error
}

func (r *PostgresSessionRepository) GetSessionByHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error) {
	var session models.RefreshToken
	err := r.db.WithContext(ctx).Where("token_hash = ?", tokenHash).First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *PostgresSessionRepository) RevokeSession(ctx context.Context, id uint, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("id = ? AND revoked_at IS NULL", id).
		Update("revoked_at", at)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresSessionRepository) RevokeUserSessions(ctx context.Context, userID string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("user_id = ? AND revoked_at IS NULL", userID).
		Update("revoked_at", at).Error
}
