package mysql

import (
	"errors"
	"strings"

	"github.com/aussiebroadwan/realmauth/internal/auth/store"
	driver "github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

// erDupEntry is MySQL's ER_DUP_ENTRY.
const erDupEntry = 1062

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return store.ErrNotFound
	}

	var myErr *driver.MySQLError
	if errors.As(err, &myErr) && myErr.Number == erDupEntry {
		switch key := duplicateKey(myErr.Message); {
		case strings.Contains(key, "email"):
			return store.ErrDuplicateEmail
		case strings.Contains(key, "username"):
			return store.ErrDuplicateUsername
		default:
			return store.ErrAlreadyExists
		}
	}

	return err
}

// duplicateKey returns the lowercased key name from an ER_DUP_ENTRY message,
// e.g. "account.idx_username" from
// "Duplicate entry 'BOB' for key 'account.idx_username'". The duplicated value
// comes first in the message and never takes part.
func duplicateKey(msg string) string {
	i := strings.LastIndex(msg, "for key '")
	if i < 0 {
		return ""
	}
	key := msg[i+len("for key '"):]
	key, _, _ = strings.Cut(key, "'")
	return strings.ToLower(key)
}

// expectAffected turns an UPDATE that matched no row into ErrNotFound.
func expectAffected(tx *gorm.DB) error {
	if tx.Error != nil {
		return mapError(tx.Error)
	}
	if tx.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}
