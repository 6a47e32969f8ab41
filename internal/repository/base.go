// Package repository implements the data access layer for the application.
package repository

import (
	"errors"
	"strings"

	"viralpik/internal/database"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const (
	defaultPageSize = 24
	maxPageSize     = 100
)

func readDB(primary *gorm.DB) *gorm.DB {
	return database.Reader(primary)
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// isUniqueViolation reports SQLSTATE 23505 (or the sqlite equivalent).
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if pgCode(err) == "23505" || errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}

// isCheckViolation reports SQLSTATE 23514 (or the sqlite equivalent).
func isCheckViolation(err error) bool {
	if err == nil {
		return false
	}
	if pgCode(err) == "23514" || errors.Is(err, gorm.ErrCheckConstraintViolated) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "check constraint")
}
