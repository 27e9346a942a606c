package models

import (
	"time"

	"github.com/mhsadiq/cartrace-backend/pkg/enums"
)

// Order represents a registered vehicle build. The car body carries the
// CarRFID tag; the numeric ID is what the traceability contract anchors.
type Order struct {
	ID                 int64             `gorm:"column:id;primaryKey;autoIncrement"`
	CarRFID            string            `gorm:"column:car_rfid;type:text;not null;uniqueIndex:ux_orders_car_rfid"`
	Name               string            `gorm:"column:name;type:text;not null"`
	Description        string            `gorm:"column:description;type:text"`
	Brand              string            `gorm:"column:brand;type:text"`
	EngineType         string            `gorm:"column:engine_type;type:text"`
	EngineCC           string            `gorm:"column:engine_cc;type:text"`
	BodyType           string            `gorm:"column:body_type;type:text"`
	ImageURL           string            `gorm:"column:image_url;type:text"`
	Status             enums.OrderStatus `gorm:"column:status;type:text;not null;default:'incomplete'"`
	TransactionAddress *string           `gorm:"column:transaction_address;type:text"`
	CreatedAt          time.Time         `gorm:"column:created_at;autoCreateTime"`
	FinishedAt         *time.Time        `gorm:"column:finished_at"`
}

func (Order) TableName() string { return "orders" }
