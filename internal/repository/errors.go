// Package repository holds the persistence layer of the API.  Each store
// has a MySQL implementation and an in-memory one that honour the same
// contract, including the sentinel errors below, so handlers never need to
// know which backend is active.
package repository

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when the addressed row does not exist.  Handlers
// translate it into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when an operation cannot be performed because of
// the current state of the record.  Handlers translate it into 409.
var ErrConflict = errors.New("conflict")

// ErrEmailExists and ErrUsernameExists report unique key violations on the
// users table.
var (
	ErrEmailExists    = errors.New("email already exists")
	ErrUsernameExists = errors.New("username already exists")
)

// duplicateKey maps a MySQL 1062 error onto the matching sentinel.  Any
// other error is returned unchanged.
func duplicateKey(err error) error {
	var me *mysql.MySQLError
	if !errors.As(err, &me) || me.Number != 1062 {
		return err
	}
	msg := strings.ToLower(me.Message)
	switch {
	case strings.Contains(msg, "username"):
		return ErrUsernameExists
	case strings.Contains(msg, "email"):
		return ErrEmailExists
	}
	return ErrConflict
}

// likePattern builds a case-insensitive substring pattern for LIKE with
// the wildcard characters of the term escaped.
func likePattern(term string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.ToLower(term)) + "%"
}

// placeholders returns "?,?,?" for n arguments.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
