// Package registry resolves scanned tag UIDs to what they are registered as.
package registry

import (
	"context"

	"gorm.io/gorm"

	"github.com/mhsadiq/cartrace-backend/pkg/db/models"
	"github.com/mhsadiq/cartrace-backend/pkg/enums"
)

// Classifier looks up how a tag UID is registered. A UID that backs an order
// is an order tag; a UID present in the rfid item registry is a component;
// anything else is unknown. Lookup misses are a classification, not an error.
type Classifier struct {
	db *gorm.DB
}

// NewClassifier builds a classifier bound to the provided DB.
func NewClassifier(db *gorm.DB) *Classifier {
	return &Classifier{db: db}
}

// WithTx rebinds the classifier to an open transaction.
func (c *Classifier) WithTx(tx *gorm.DB) *Classifier {
	if tx == nil {
		return c
	}
	return &Classifier{db: tx}
}

// Lookup classifies the tag. Order registration wins over the item registry
// when a UID somehow appears in both.
func (c *Classifier) Lookup(ctx context.Context, tagUID string) (enums.TagKind, error) {
	var count int64
	err := c.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("car_rfid = ?", tagUID).
		Count(&count).Error
	if err != nil {
		return enums.TagKindUnknown, err
	}
	if count > 0 {
		return enums.TagKindOrder, nil
	}

	err = c.db.WithContext(ctx).
		Model(&models.RFIDItem{}).
		Where("uid = ?", tagUID).
		Count(&count).Error
	if err != nil {
		return enums.TagKindUnknown, err
	}
	if count > 0 {
		return enums.TagKindComponent, nil
	}

	return enums.TagKindUnknown, nil
}
