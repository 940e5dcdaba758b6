package content

import (
	"errors"
	"strings"

	"github.com/EmpoweredVote/news-portal/internal/apperr"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// classify turns a driver error into an apperr kind. Unique and foreign key
// violations become ConstraintViolation; everything else is a storage
// failure.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return apperr.E(apperr.ConstraintViolation, op, duplicateMessage(pgErr.ConstraintName), err)
		case pgForeignKeyViolation:
			return apperr.E(apperr.ConstraintViolation, op, "referenced category or tag does not exist", err)
		}
	}
	return apperr.Storage(op, err)
}

func duplicateMessage(constraint string) string {
	switch {
	case strings.Contains(constraint, "slug"):
		return "slug already in use"
	case strings.Contains(constraint, "name"):
		return "name already in use"
	case strings.Contains(constraint, "pkey"):
		return "duplicate association"
	default:
		return "duplicate value (" + constraint + ")"
	}
}
