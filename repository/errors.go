package repository

import (
	"database/sql"
	stderrors "errors"
	"strings"

	"github.com/goliatone/go-errors"
	"github.com/lib/pq"
	"go.mongodb.org/mongo-driver/mongo"
)

const pqUniqueViolation = "23505"

// isUniqueViolation recognizes unique constraint failures from every backend
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pqErr *pq.Error
	if stderrors.As(err, &pqErr) {
		return string(pqErr.Code) == pqUniqueViolation
	}
	if mongo.IsDuplicateKeyError(err) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}

func isNoRows(err error) bool {
	return stderrors.Is(err, sql.ErrNoRows) || stderrors.Is(err, mongo.ErrNoDocuments)
}

func internal(err error, msg string) error {
	return errors.Wrap(err, errors.CategoryInternal, msg)
}
