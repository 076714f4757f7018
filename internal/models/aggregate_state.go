package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AggregateState records the aggregate short interest per ticker as of the
// last report run. The next run reads it to compute day-over-day change.
type AggregateState struct {
	Ticker    string          `gorm:"primaryKey;type:text"`
	Aggregate decimal.Decimal `gorm:"type:numeric(10,4);not null"`
	AsOf      time.Time       `gorm:"type:date;not null"`
	UpdatedAt time.Time       `gorm:"not null"`
}

func (AggregateState) TableName() string {
	return "aggregate_states"
}
