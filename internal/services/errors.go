package services

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	// ErrConfigEntryNotFound indicates the requested config key is not stored.
	ErrConfigEntryNotFound = errors.New("config service: entry not found")
	// ErrUnknownConfigKey indicates the key has no registered section type.
	ErrUnknownConfigKey = errors.New("config service: unknown key")
	// ErrInvalidConfigValue indicates the value failed decoding or validation.
	ErrInvalidConfigValue = errors.New("config service: invalid value")
	// ErrConfigNotDeletable indicates a required section was targeted for deletion.
	ErrConfigNotDeletable = errors.New("config service: section cannot be deleted")

	// ErrItemNotFound indicates the requested list item does not exist.
	ErrItemNotFound = errors.New("collection service: item not found")
	// ErrItemConflict indicates a uniqueness constraint rejected the write.
	ErrItemConflict = errors.New("collection service: item conflicts with an existing item")
	// ErrInvalidItem indicates the item failed validation.
	ErrInvalidItem = errors.New("collection service: invalid item")
	// ErrInvalidReorder indicates a malformed reorder request.
	ErrInvalidReorder = errors.New("collection service: invalid reorder request")
)

// isUniqueConstraintError detects database uniqueness constraint violations across vendors.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr != nil && pgErr.Code == pgerrcode.UniqueViolation {
		return true
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr != nil && myErr.Number == 1062 {
		return true
	}

	lower := strings.ToLower(err.Error())
	return strings.Contains(lower, "unique") ||
		strings.Contains(lower, "duplicate")
}
