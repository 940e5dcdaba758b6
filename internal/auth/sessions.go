package auth

import (
	"context"
	"errors"
	"time"

	"github.com/EmpoweredVote/news-portal/internal/apperr"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const DefaultSessionTTL = 7 * 24 * time.Hour

func sessionFailure(op string, err error) error {
	return apperr.E(apperr.StorageFailure, op, "session operation failed", err)
}

// SessionStore persists sessions in the sessions table.
type SessionStore struct {
	db  *gorm.DB
	ttl time.Duration
	now func() time.Time
}

func NewSessionStore(db *gorm.DB, ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionStore{db: db, ttl: ttl, now: time.Now}
}

func (s *SessionStore) Create(ctx context.Context, userID int64) (Session, error) {
	session := Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		ExpiresAt: s.now().Add(s.ttl).UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&session).Error; err != nil {
		return Session{}, sessionFailure("auth.CreateSession", err)
	}
	return session, nil
}

// Resolve returns nil for unknown or expired ids. Expired rows are left for
// whatever cleanup job owns them.
func (s *SessionStore) Resolve(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return nil, nil
	}

	var session Session
	err := s.db.WithContext(ctx).Where("id = ?", id).Take(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, sessionFailure("auth.ResolveSession", err)
	}
	if !session.ActiveAt(s.now()) {
		return nil, nil
	}
	return &session, nil
}

func (s *SessionStore) Destroy(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	if err := s.db.WithContext(ctx).Where("id = ?", id).Delete(&Session{}).Error; err != nil {
		return sessionFailure("auth.DestroySession", err)
	}
	return nil
}
