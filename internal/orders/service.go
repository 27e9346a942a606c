package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/mhsadiq/cartrace-backend/pkg/chain"
	"github.com/mhsadiq/cartrace-backend/pkg/db"
	"github.com/mhsadiq/cartrace-backend/pkg/db/models"
	"github.com/mhsadiq/cartrace-backend/pkg/enums"
	pkgerrors "github.com/mhsadiq/cartrace-backend/pkg/errors"
	"github.com/mhsadiq/cartrace-backend/pkg/logger"
	"github.com/mhsadiq/cartrace-backend/pkg/metrics"
	"github.com/mhsadiq/cartrace-backend/pkg/outbox"
	"github.com/mhsadiq/cartrace-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type orderLedger interface {
	LogOrder(ctx context.Context, orderID int64, carRFID string) (string, error)
}

// Service defines order registration, component association, and reads.
type Service interface {
	CreateOrder(ctx context.Context, input CreateOrderInput, actor *outbox.ActorRef) (*CreateOrderResult, error)
	AssociateComponent(ctx context.Context, orderID int64, itemUID string, stage enums.Stage, actor *outbox.ActorRef) (*models.OrderItem, error)
	SetOrderItemTransactionAddress(ctx context.Context, itemID int64, address string) error
	GetOrder(ctx context.Context, id int64) (*OrderDTO, error)
	GetOrderByTag(ctx context.Context, carRFID string) (*OrderDTO, error)
	GetOrderDetail(ctx context.Context, id int64) (*OrderDetail, error)
	ListOrders(ctx context.Context) ([]OrderDTO, error)
	ListOrderItems(ctx context.Context, orderID int64) ([]OrderItemDTO, error)
}

type service struct {
	repo    Repository
	tx      txRunner
	outbox  outboxPublisher
	ledger  orderLedger
	metrics *metrics.TrackingMetrics
	logg    *logger.Logger
}

// ServiceParams bundles the dependencies required to build an orders service.
type ServiceParams struct {
	Repo    Repository
	Tx      txRunner
	Outbox  outboxPublisher
	Ledger  orderLedger
	Metrics *metrics.TrackingMetrics
	Logger  *logger.Logger
}

// NewService builds the orders service. Metrics may be nil.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if params.Ledger == nil {
		return nil, fmt.Errorf("chain ledger required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:    params.Repo,
		tx:      params.Tx,
		outbox:  params.Outbox,
		ledger:  params.Ledger,
		metrics: params.Metrics,
		logg:    params.Logger,
	}, nil
}

// CreateOrder registers a vehicle order for the car tag and anchors it on
// chain. A chain failure after the insert is reported in the result rather
// than undoing the registration.
func (s *service) CreateOrder(ctx context.Context, input CreateOrderInput, actor *outbox.ActorRef) (*CreateOrderResult, error) {
	carRFID := strings.TrimSpace(input.CarRFID)
	if carRFID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "car rfid required")
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order name required")
	}

	ctx = s.logg.WithTagUID(ctx, carRFID)

	var order *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		assigned, err := repo.ItemExistsForUID(ctx, carRFID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check component assignment")
		}
		if assigned {
			return pkgerrors.New(pkgerrors.CodeConflict, "tag is already assigned to an order as a component")
		}

		exists, err := repo.OrderExistsForCarRFID(ctx, carRFID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check existing order")
		}
		if exists {
			return pkgerrors.New(pkgerrors.CodeConflict, "an order already exists for this tag")
		}

		if err := repo.EnsureRFIDItem(ctx, &models.RFIDItem{
			UID:         carRFID,
			Name:        name,
			Description: input.Description,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "register rfid item")
		}

		order = &models.Order{
			CarRFID:     carRFID,
			Name:        name,
			Description: input.Description,
			Brand:       input.Brand,
			EngineType:  input.EngineType,
			EngineCC:    input.EngineCC,
			BodyType:    input.BodyType,
			ImageURL:    input.ImageURL,
			Status:      enums.OrderStatusIncomplete,
		}
		if _, err := repo.CreateOrder(ctx, order); err != nil {
			if db.IsUniqueViolation(err, "ux_orders_car_rfid") {
				return pkgerrors.New(pkgerrors.CodeConflict, "an order already exists for this tag")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert order")
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderRegistered,
			AggregateType: enums.AggregateOrder,
			AggregateID:   fmt.Sprintf("%d", order.ID),
			Version:       1,
			Actor:         actor,
			Data: payloads.OrderRegisteredEvent{
				OrderID: order.ID,
				CarRFID: order.CarRFID,
				Name:    order.Name,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	result := &CreateOrderResult{Order: orderDTO(*order)}

	start := time.Now()
	txHash, err := s.ledger.LogOrder(ctx, order.ID, order.CarRFID)
	s.metrics.ObserveChainLatency(chain.MethodLogOrder, time.Since(start))
	if err != nil {
		msg := err.Error()
		result.ChainError = &msg
		s.logg.Error(ctx, "order registered but chain submission failed", err)
		return result, nil
	}

	if err := s.repo.UpdateOrderTransactionAddress(ctx, order.ID, txHash); err != nil {
		msg := fmt.Sprintf("backfill transaction address: %v", err)
		result.ChainError = &msg
		s.logg.Error(ctx, "order anchored but backfill failed", err)
		return result, nil
	}
	result.Order.TransactionAddress = &txHash

	s.logg.Info(ctx, "order registered")
	return result, nil
}

// AssociateComponent links a component tag to an order. A component belongs
// to at most one order, ever; an order tag can never be a component.
func (s *service) AssociateComponent(ctx context.Context, orderID int64, itemUID string, stage enums.Stage, actor *outbox.ActorRef) (*models.OrderItem, error) {
	itemUID = strings.TrimSpace(itemUID)
	if itemUID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item uid required")
	}

	var item *models.OrderItem
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := repo.FindOrderByID(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}

		if itemUID == order.CarRFID {
			return pkgerrors.New(pkgerrors.CodeConflict, "order tag cannot be assigned as a component")
		}
		isOrderTag, err := repo.OrderExistsForCarRFID(ctx, itemUID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check tag registration")
		}
		if isOrderTag {
			return pkgerrors.New(pkgerrors.CodeConflict, "order tag cannot be assigned as a component")
		}

		assigned, err := repo.ItemExistsForUID(ctx, itemUID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check component assignment")
		}
		if assigned {
			return pkgerrors.New(pkgerrors.CodeConflict, "component is already assigned to an order")
		}

		item = &models.OrderItem{
			OrderID: order.ID,
			ItemUID: itemUID,
			Stage:   stage,
		}
		if _, err := repo.CreateOrderItem(ctx, item); err != nil {
			if db.IsUniqueViolation(err, "ux_order_items_item_uid") {
				return pkgerrors.New(pkgerrors.CodeConflict, "component is already assigned to an order")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert order item")
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventComponentAssigned,
			AggregateType: enums.AggregateOrderItem,
			AggregateID:   itemUID,
			Version:       1,
			Actor:         actor,
			Data: payloads.ComponentAssignedEvent{
				OrderID: order.ID,
				ItemUID: itemUID,
				Stage:   stage,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// SetOrderItemTransactionAddress backfills the chain hash after the order
// item transaction is mined.
func (s *service) SetOrderItemTransactionAddress(ctx context.Context, itemID int64, address string) error {
	if err := s.repo.UpdateItemTransactionAddress(ctx, itemID, address); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order item transaction address")
	}
	return nil
}

func (s *service) GetOrder(ctx context.Context, id int64) (*OrderDTO, error) {
	order, err := s.repo.FindOrderByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	dto := orderDTO(*order)
	return &dto, nil
}

func (s *service) GetOrderByTag(ctx context.Context, carRFID string) (*OrderDTO, error) {
	order, err := s.repo.FindOrderByCarRFID(ctx, strings.TrimSpace(carRFID))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no order registered for tag")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order by tag")
	}
	dto := orderDTO(*order)
	return &dto, nil
}

func (s *service) GetOrderDetail(ctx context.Context, id int64) (*OrderDetail, error) {
	order, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	items, err := s.ListOrderItems(ctx, id)
	if err != nil {
		return nil, err
	}
	return &OrderDetail{Order: *order, Items: items}, nil
}

func (s *service) ListOrders(ctx context.Context) ([]OrderDTO, error) {
	orders, err := s.repo.ListOrders(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	out := make([]OrderDTO, 0, len(orders))
	for _, order := range orders {
		out = append(out, orderDTO(order))
	}
	return out, nil
}

func (s *service) ListOrderItems(ctx context.Context, orderID int64) ([]OrderItemDTO, error) {
	items, err := s.repo.ListItemsByOrder(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list order items")
	}
	out := make([]OrderItemDTO, 0, len(items))
	for _, item := range items {
		out = append(out, orderItemDTO(item))
	}
	return out, nil
}
