package repository

import (
	"errors"

	"gorm.io/gorm"
)

// IsNotFound reports whether the error is a gorm record-not-found.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// IsDuplicate reports whether the error is a translated unique-constraint
// violation. Connections are opened with TranslateError so that duplicate-key
// errors from the driver surface as gorm.ErrDuplicatedKey; services remap
// them to the same Conflict sentinels as their precondition checks.
func IsDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
