package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// Domain error kinds. Services wrap these with fmt.Errorf("%w: ...") so
// handlers can map them to HTTP statuses with errors.Is while still
// returning a descriptive message.
var (
	ErrNotFound         = errors.New("not found")
	ErrNotOwner         = errors.New("not authorized")
	ErrAlreadyCompleted = errors.New("quest already completed")
	ErrOutOfRange       = errors.New("page is out of range")
	ErrValidation       = errors.New("invalid input")
	ErrConflict         = errors.New("conflict")
)

// isDuplicateKey reports whether err is a unique-constraint violation.
// Postgres reports through gorm.ErrDuplicatedKey; the sqlite driver used in
// tests only surfaces the message text.
func isDuplicateKey(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) ||
		strings.Contains(err.Error(), "UNIQUE") ||
		strings.Contains(err.Error(), "duplicate")
}
