// Package repository implements the domain repositories on gorm/postgres.
// Every method runs on the transaction carried by ctx when there is one.
package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"hrms/database"
)

// The upsert takes a row lock on the year's counter, so concurrent
// allocations for one year serialize and each gets a distinct serial.
const nextSerialSQL = `
INSERT INTO identifier_counters (year, last_serial)
VALUES (?, 1)
ON CONFLICT (year) DO UPDATE SET last_serial = identifier_counters.last_serial + 1
RETURNING last_serial`

// Counters allocates identifier serials per join year.
type Counters struct {
	db *gorm.DB
}

func NewCounters(db *gorm.DB) *Counters {
	return &Counters{db: db}
}

func (c *Counters) NextSerial(ctx context.Context, year int) (int, error) {
	var serial int
	if err := database.Conn(ctx, c.db).Raw(nextSerialSQL, year).Scan(&serial).Error; err != nil {
		return 0, fmt.Errorf("repository: next serial for %d: %w", year, err)
	}
	return serial, nil
}
