package orders

import (
	"time"

	"github.com/mhsadiq/cartrace-backend/pkg/db/models"
	"github.com/mhsadiq/cartrace-backend/pkg/enums"
)

// CreateOrderInput carries the registration form for a new vehicle order.
type CreateOrderInput struct {
	CarRFID     string
	Name        string
	Description string
	Brand       string
	EngineType  string
	EngineCC    string
	BodyType    string
	ImageURL    string
}

// CreateOrderResult reports the registered order plus the chain outcome.
// A failed chain submission does not undo the registration; the error is
// carried here instead.
type CreateOrderResult struct {
	Order      OrderDTO `json:"order"`
	ChainError *string  `json:"chain_error,omitempty"`
}

// OrderDTO is the transport shape for one order.
type OrderDTO struct {
	ID                 int64             `json:"id"`
	CarRFID            string            `json:"car_rfid"`
	Name               string            `json:"name"`
	Description        string            `json:"description,omitempty"`
	Brand              string            `json:"brand,omitempty"`
	EngineType         string            `json:"engine_type,omitempty"`
	EngineCC           string            `json:"engine_cc,omitempty"`
	BodyType           string            `json:"body_type,omitempty"`
	ImageURL           string            `json:"image_url,omitempty"`
	Status             enums.OrderStatus `json:"status"`
	TransactionAddress *string           `json:"transaction_address,omitempty"`
	CreatedAt          time.Time         `json:"created_at"`
	FinishedAt         *time.Time        `json:"finished_at,omitempty"`
}

// OrderItemDTO is the transport shape for one associated component.
type OrderItemDTO struct {
	ID                 int64       `json:"id"`
	OrderID            int64       `json:"order_id"`
	ItemUID            string      `json:"item_uid"`
	Stage              enums.Stage `json:"stage"`
	TransactionAddress *string     `json:"transaction_address,omitempty"`
	CreatedAt          time.Time   `json:"created_at"`
}

// OrderDetail bundles an order with its associated components.
type OrderDetail struct {
	Order OrderDTO       `json:"order"`
	Items []OrderItemDTO `json:"items"`
}

func orderDTO(order models.Order) OrderDTO {
	return OrderDTO{
		ID:                 order.ID,
		CarRFID:            order.CarRFID,
		Name:               order.Name,
		Description:        order.Description,
		Brand:              order.Brand,
		EngineType:         order.EngineType,
		EngineCC:           order.EngineCC,
		BodyType:           order.BodyType,
		ImageURL:           order.ImageURL,
		Status:             order.Status,
		TransactionAddress: order.TransactionAddress,
		CreatedAt:          order.CreatedAt,
		FinishedAt:         order.FinishedAt,
	}
}

func orderItemDTO(item models.OrderItem) OrderItemDTO {
	return OrderItemDTO{
		ID:                 item.ID,
		OrderID:            item.OrderID,
		ItemUID:            item.ItemUID,
		Stage:              item.Stage,
		TransactionAddress: item.TransactionAddress,
		CreatedAt:          item.CreatedAt,
	}
}
