package models

import "time"

// InstrumentMapping associates an issuer's ISIN with its tradable ticker.
// Written once on first resolution and treated as immutable afterwards.
type InstrumentMapping struct {
	ISIN       string    `gorm:"primaryKey;type:text;column:isin"`
	Ticker     string    `gorm:"type:text;index;not null"`
	ResolvedAt time.Time `gorm:"not null"`
}

func (InstrumentMapping) TableName() string {
	return "instrument_mappings"
}
