package repositories

import (
	"context"
	stderrors "errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// queryCanceled is raised by Postgres when statement_timeout fires.
const queryCanceled = "57014"

// IsStoreTimeout reports whether err comes from a context deadline or a
// server-side statement timeout.
func IsStoreTimeout(err error) bool {
	if err == nil {
		return false
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var pgErr *pgconn.PgError
	if stderrors.As(err, &pgErr) {
		return pgErr.Code == queryCanceled
	}
	return false
}

func IsDuplicateKey(err error) bool {
	return stderrors.Is(err, gorm.ErrDuplicatedKey)
}
