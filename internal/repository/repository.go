package repository

import (
	"errors"

	"gorm.io/gorm"
)

// ErrGuardRejected is returned when a conditional stock update matched no row.
var ErrGuardRejected = errors.New("conditional update matched no row")

// conn picks the transaction when one is given so tx-aware methods also work standalone.
func conn(db, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return db
}
