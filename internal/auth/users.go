package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/EmpoweredVote/news-portal/internal/apperr"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// UserRepository reads users for the gate. Writes only happen from portalctl.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByEmail returns nil, nil when no user has that exact email.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	var user User
	err := r.db.WithContext(ctx).Where("email = ?", email).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Storage("auth.FindByEmail", err)
	}
	return &user, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (*User, error) {
	var user User
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Storage("auth.FindByID", err)
	}
	return &user, nil
}

// Create hashes password and inserts the user.
func (r *UserRepository) Create(ctx context.Context, email, name, role, password string) (*User, error) {
	const op = "auth.CreateUser"

	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, apperr.E(apperr.Validation, op, "email and password are required", nil)
	}
	if role == "" {
		role = "editor"
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperr.E(apperr.Invalid, op, "could not hash password", err)
	}

	user := User{Email: email, Name: name, Role: role, PasswordHash: string(hashed)}
	if err := r.db.WithContext(ctx).Create(&user).Error; err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, apperr.E(apperr.ConstraintViolation, op, "email already registered", err)
		}
		return nil, apperr.Storage(op, err)
	}
	return user.withoutHash(), nil
}
