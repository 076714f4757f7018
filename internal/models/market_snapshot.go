package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MarketSnapshot holds the latest quote per ticker, overwritten daily.
type MarketSnapshot struct {
	Ticker            string          `gorm:"primaryKey;type:text"`
	Price             decimal.Decimal `gorm:"type:numeric(20,6);not null"`
	Volume            int64           `gorm:"not null"`
	SharesOutstanding int64           `gorm:"not null"`
	SnapshotDate      time.Time       `gorm:"type:date;not null"`
	UpdatedAt         time.Time       `gorm:"not null"`
}

func (MarketSnapshot) TableName() string {
	return "market_snapshots"
}
