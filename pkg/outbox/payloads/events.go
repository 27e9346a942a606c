package payloads

import (
	"time"

	"github.com/mhsadiq/cartrace-backend/pkg/enums"
)

// ScanRecordedEvent is emitted after a scan's stage event row is committed.
type ScanRecordedEvent struct {
	TagUID             string            `json:"tag_uid"`
	TagKind            enums.TagKind     `json:"tag_kind"`
	Stage              enums.Stage       `json:"stage"`
	Status             enums.StageStatus `json:"status"`
	Seq                int64             `json:"seq"`
	TransactionAddress string            `json:"transaction_address,omitempty"`
	ScannedAt          time.Time         `json:"scanned_at"`
}

// OrderRegisteredEvent is emitted when a vehicle order is created.
type OrderRegisteredEvent struct {
	OrderID            int64  `json:"order_id"`
	CarRFID            string `json:"car_rfid"`
	Name               string `json:"name"`
	TransactionAddress string `json:"transaction_address,omitempty"`
}

// ComponentAssignedEvent is emitted when a component tag is linked to an order.
type ComponentAssignedEvent struct {
	OrderID            int64       `json:"order_id"`
	ItemUID            string      `json:"item_uid"`
	Stage              enums.Stage `json:"stage"`
	TransactionAddress string      `json:"transaction_address,omitempty"`
}
