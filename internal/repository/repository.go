// internal/repository/repository.go
package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// PageParams bounds list queries.
type PageParams struct {
	Offset int
	Limit  int
}

const defaultPageLimit = 100

func (p PageParams) apply(db *gorm.DB) *gorm.DB {
	limit := p.Limit
	if limit <= 0 || limit > 1000 {
		limit = defaultPageLimit
	}
	db = db.Limit(limit)
	if p.Offset > 0 {
		db = db.Offset(p.Offset)
	}
	return db
}

// IsUniqueViolation reports whether err came from a unique constraint.
// Postgres reports SQLSTATE 23505; sqlite only reports it in the message.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// Transact runs fn inside a database transaction bound to ctx.
// Any error returned by fn rolls the transaction back.
func Transact(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	return db.WithContext(ctx).Transaction(fn)
}
