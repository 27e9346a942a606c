package tracking

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mhsadiq/cartrace-backend/pkg/db/models"
)

// Repository defines persistence operations for stage events and locations.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	LastStageEvent(ctx context.Context, tagUID string) (*models.StageEvent, error)
	NextSeq(ctx context.Context, tagUID string) (int64, error)
	AppendStageEvent(ctx context.Context, event *models.StageEvent) error
	UpsertLocation(ctx context.Context, tagUID string, stage string) error
	FindLocation(ctx context.Context, tagUID string) (*models.ItemLocation, error)
	ListLocations(ctx context.Context) ([]models.ItemLocation, error)
	ListEvents(ctx context.Context, limit int) ([]models.StageEvent, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a tracking repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// LastStageEvent returns the tag's most recent event by sequence number, or
// nil when the tag has never been scanned.
func (r *repository) LastStageEvent(ctx context.Context, tagUID string) (*models.StageEvent, error) {
	var event models.StageEvent
	err := r.db.WithContext(ctx).
		Where("tag_uid = ?", tagUID).
		Order("seq DESC").
		First(&event).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &event, nil
}

func (r *repository) NextSeq(ctx context.Context, tagUID string) (int64, error) {
	var max int64
	err := r.db.WithContext(ctx).
		Model(&models.StageEvent{}).
		Where("tag_uid = ?", tagUID).
		Select("COALESCE(MAX(seq), 0)").
		Scan(&max).Error
	if err != nil {
		return 0, err
	}
	return max + 1, nil
}

func (r *repository) AppendStageEvent(ctx context.Context, event *models.StageEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

// UpsertLocation records the tag's current stage, creating the row on first
// sight. Rows are never deleted; an exited tag keeps a row with empty stage.
func (r *repository) UpsertLocation(ctx context.Context, tagUID string, stage string) error {
	location := models.ItemLocation{TagUID: tagUID, Stage: stage}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tag_uid"}},
			DoUpdates: clause.AssignmentColumns([]string{"stage", "updated_at"}),
		}).
		Create(&location).Error
}

func (r *repository) FindLocation(ctx context.Context, tagUID string) (*models.ItemLocation, error) {
	var location models.ItemLocation
	err := r.db.WithContext(ctx).
		Where("tag_uid = ?", tagUID).
		First(&location).Error
	if err != nil {
		return nil, err
	}
	return &location, nil
}

func (r *repository) ListLocations(ctx context.Context) ([]models.ItemLocation, error) {
	var locations []models.ItemLocation
	err := r.db.WithContext(ctx).
		Order("tag_uid ASC").
		Find(&locations).Error
	if err != nil {
		return nil, err
	}
	return locations, nil
}

// ListEvents returns stage events, most recent first.
func (r *repository) ListEvents(ctx context.Context, limit int) ([]models.StageEvent, error) {
	query := r.db.WithContext(ctx).
		Order("id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var events []models.StageEvent
	if err := query.Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}
