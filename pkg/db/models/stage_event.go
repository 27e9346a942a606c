package models

import (
	"time"

	"github.com/mhsadiq/cartrace-backend/pkg/enums"
)

// StageEvent is one row of the append-only scan history. Seq is assigned per
// tag under the scan lock and orders a tag's history independently of wall
// clocks.
type StageEvent struct {
	ID                 int64             `gorm:"column:id;primaryKey;autoIncrement"`
	TagUID             string            `gorm:"column:tag_uid;type:text;not null;uniqueIndex:ux_stage_events_tag_seq,priority:1"`
	Stage              enums.Stage       `gorm:"column:stage;type:text;not null"`
	Status             enums.StageStatus `gorm:"column:status;type:text;not null"`
	Seq                int64             `gorm:"column:seq;not null;uniqueIndex:ux_stage_events_tag_seq,priority:2"`
	TransactionAddress *string           `gorm:"column:transaction_address;type:text"`
	CreatedAt          time.Time         `gorm:"column:created_at;autoCreateTime"`
}

func (StageEvent) TableName() string { return "stage_events" }
