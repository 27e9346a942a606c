package orders

import (
	"context"

	"gorm.io/gorm"

	"github.com/mhsadiq/cartrace-backend/pkg/db/models"
)

// Repository defines persistence operations for orders and order items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error)
	FindOrderByID(ctx context.Context, id int64) (*models.Order, error)
	FindOrderByCarRFID(ctx context.Context, carRFID string) (*models.Order, error)
	ListOrders(ctx context.Context) ([]models.Order, error)
	OrderExistsForCarRFID(ctx context.Context, carRFID string) (bool, error)
	UpdateOrderTransactionAddress(ctx context.Context, orderID int64, address string) error

	CreateOrderItem(ctx context.Context, item *models.OrderItem) (*models.OrderItem, error)
	ListItemsByOrder(ctx context.Context, orderID int64) ([]models.OrderItem, error)
	FindItemByUID(ctx context.Context, itemUID string) (*models.OrderItem, error)
	ItemExistsForUID(ctx context.Context, itemUID string) (bool, error)
	UpdateItemTransactionAddress(ctx context.Context, itemID int64, address string) error

	EnsureRFIDItem(ctx context.Context, item *models.RFIDItem) error
}
