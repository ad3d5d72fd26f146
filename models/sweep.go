package models

import "time"

// SweepRun records that the daily sweep already ran for a given UTC day.
// The unique Day column is what stops an at-least-once scheduler from
// penalizing users twice in the same cycle.
type SweepRun struct {
	ID    uint      `gorm:"primaryKey" json:"id"`
	Day   string    `gorm:"uniqueIndex;size:10;not null" json:"day"` // YYYY-MM-DD (UTC)
	RanAt time.Time `gorm:"autoCreateTime" json:"ran_at"`
}
