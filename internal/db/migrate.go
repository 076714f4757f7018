package db

import (
	"shorttrack/internal/models"
)

func AutoMigrate(db *DB) error {
	if db == nil || db.Gorm == nil || db.SQL == nil {
		return nil
	}

	return db.Gorm.AutoMigrate(
		&models.Disclosure{},
		&models.InstrumentMapping{},
		&models.MarketSnapshot{},
		&models.AggregateState{},
	)
}
