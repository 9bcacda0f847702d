package services

import (
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"
)

var (
	// ErrStorage marks a failed read or write against the backing store.
	ErrStorage = errors.New("storage error")
	// ErrNotFound is returned by stores when the requested row does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned by stores when an insert hits a unique constraint.
	ErrDuplicate = errors.New("duplicate key")
	// ErrBadgeNotFound means a badge name or id is not in the catalog.
	ErrBadgeNotFound = errors.New("badge not found")
	// ErrStreakConflict means the streak row changed between read and write.
	ErrStreakConflict = errors.New("streak modified concurrently")
	// ErrInvalidPeriod is returned for anything other than morning, afternoon or evening.
	ErrInvalidPeriod = errors.New("invalid period")
)

func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStorage, err)
}

// isDuplicateKey recognizes unique-constraint violations from every supported driver.
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1062
	}
	var pgErr *pq.Error
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
