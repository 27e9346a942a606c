package models

import "time"

// RFIDItem registers a tag as a known component. Order tags live in the
// orders table instead; classification checks both.
type RFIDItem struct {
	UID         string    `gorm:"column:uid;type:text;primaryKey"`
	Name        string    `gorm:"column:name;type:text;not null"`
	Description string    `gorm:"column:description;type:text"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (RFIDItem) TableName() string { return "rfid_items" }
