package models

import "time"

// ItemLocation is the mutable "where is it now" row, one per tag ever seen.
// Stage is empty while the tag is between stations. Rows are upserted on
// every accepted scan and never deleted.
type ItemLocation struct {
	TagUID    string    `gorm:"column:tag_uid;type:text;primaryKey"`
	Stage     string    `gorm:"column:stage;type:text;not null;default:''"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (ItemLocation) TableName() string { return "item_locations" }
