// Package items exposes read surfaces over the RFID item registry.
package items

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/mhsadiq/cartrace-backend/pkg/db/models"
	pkgerrors "github.com/mhsadiq/cartrace-backend/pkg/errors"
)

// ItemInfo is the read shape for one registered tag: registry data, current
// location, and the order it was assembled into, when any.
type ItemInfo struct {
	UID          string     `json:"uid"`
	Name         string     `json:"name"`
	Description  string     `json:"description,omitempty"`
	CurrentStage string     `json:"current_stage"`
	OrderID      *int64     `json:"order_id,omitempty"`
	RegisteredAt time.Time  `json:"registered_at"`
	LastSeenAt   *time.Time `json:"last_seen_at,omitempty"`
}

// Service answers item lookups.
type Service struct {
	db *gorm.DB
}

// NewService builds an items read service bound to the provided DB.
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// GetItem returns registry, location, and order linkage for one tag.
func (s *Service) GetItem(ctx context.Context, uid string) (*ItemInfo, error) {
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item uid required")
	}

	var item models.RFIDItem
	err := s.db.WithContext(ctx).
		Where("uid = ?", uid).
		First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load item")
	}

	info := &ItemInfo{
		UID:          item.UID,
		Name:         item.Name,
		Description:  item.Description,
		RegisteredAt: item.CreatedAt,
	}

	var location models.ItemLocation
	err = s.db.WithContext(ctx).
		Where("tag_uid = ?", uid).
		First(&location).Error
	switch {
	case err == nil:
		info.CurrentStage = location.Stage
		seen := location.UpdatedAt
		info.LastSeenAt = &seen
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load location")
	}

	var orderItem models.OrderItem
	err = s.db.WithContext(ctx).
		Where("item_uid = ?", uid).
		First(&orderItem).Error
	switch {
	case err == nil:
		orderID := orderItem.OrderID
		info.OrderID = &orderID
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order linkage")
	}

	return info, nil
}
