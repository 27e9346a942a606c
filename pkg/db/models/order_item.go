package models

import (
	"time"

	"github.com/mhsadiq/cartrace-backend/pkg/enums"
)

// OrderItem links a component tag to the order it was assembled into. The
// unique index on item_uid enforces that a component belongs to at most one
// order, ever.
type OrderItem struct {
	ID                 int64       `gorm:"column:id;primaryKey;autoIncrement"`
	OrderID            int64       `gorm:"column:order_id;not null;index:ix_order_items_order_id"`
	ItemUID            string      `gorm:"column:item_uid;type:text;not null;uniqueIndex:ux_order_items_item_uid"`
	Stage              enums.Stage `gorm:"column:stage;type:text;not null"`
	TransactionAddress *string     `gorm:"column:transaction_address;type:text"`
	CreatedAt          time.Time   `gorm:"column:created_at;autoCreateTime"`
}

func (OrderItem) TableName() string { return "order_items" }
