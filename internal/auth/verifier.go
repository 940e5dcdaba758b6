package auth

import (
	"context"

	"github.com/EmpoweredVote/news-portal/internal/apperr"
	"golang.org/x/crypto/bcrypt"
)

type UserFinder interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id int64) (*User, error)
}

// Verifier checks an email/password pair against the stored bcrypt hash.
type Verifier struct {
	users UserFinder
	// dummy is compared against on a lookup miss.
	dummy []byte
}

func NewVerifier(users UserFinder) *Verifier {
	dummy, err := bcrypt.GenerateFromPassword([]byte("news-portal-timing-guard"), bcrypt.DefaultCost)
	if err != nil {
		panic("auth: generate dummy hash: " + err.Error())
	}
	return &Verifier{users: users, dummy: dummy}
}

var errInvalidCredentials = apperr.E(apperr.Invalid, "auth.Verify", "invalid credentials", nil)

// Verify returns the user without its hash, or an Invalid error. A lookup
// miss still pays for one bcrypt comparison so both failures take about
// the same time.
func (v *Verifier) Verify(ctx context.Context, email, password string) (*User, error) {
	user, err := v.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		_ = bcrypt.CompareHashAndPassword(v.dummy, []byte(password))
		return nil, errInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, errInvalidCredentials
	}
	return user.withoutHash(), nil
}
