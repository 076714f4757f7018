package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Disclosure is the latest known net short position per (isin, holder).
// Rows absent from the latest pull are left in place: the table is a
// last-known-value cache, not an event log.
type Disclosure struct {
	ISIN         string          `gorm:"primaryKey;type:text;column:isin"`
	Holder       string          `gorm:"primaryKey;type:text"`
	Issuer       string          `gorm:"type:text;not null"`
	Position     decimal.Decimal `gorm:"type:numeric(10,4);not null"`
	PositionDate time.Time       `gorm:"type:date;not null"`
	Raw          datatypes.JSON  `gorm:"type:json"`
	UpdatedAt    time.Time       `gorm:"not null"`
}

func (Disclosure) TableName() string {
	return "disclosures"
}
