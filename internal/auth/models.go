package auth

import "time"

type User struct {
	ID           int64  `gorm:"primaryKey" json:"id"`
	Email        string `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"column:password;not null" json:"-"`
	Name         string `gorm:"not null;default:''" json:"name"`
	Role         string `gorm:"not null;default:'editor'" json:"role"`
}

// Session is one login. A user may hold several at once.
type Session struct {
	ID        string    `gorm:"primaryKey" json:"-"`
	UserID    int64     `gorm:"not null;index" json:"user_id"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
}

// ActiveAt is the only place session validity is decided.
func (s Session) ActiveAt(now time.Time) bool {
	return s.ExpiresAt.After(now)
}

func (User) TableName() string    { return "users" }
func (Session) TableName() string { return "sessions" }

// withoutHash returns a copy that is safe to hand to handlers.
func (u User) withoutHash() *User {
	u.PasswordHash = ""
	return &u
}
