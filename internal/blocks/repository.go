package blocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/danmorales/channelstock-backend/pkg/db/models"
	"github.com/danmorales/channelstock-backend/pkg/enums"
)

// Repository manages persistence for order block episodes.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, block *models.OrderBlock) error
	FindActive(ctx context.Context, productID uuid.UUID, platform enums.Platform) (*models.OrderBlock, error)
	DeactivateActive(ctx context.Context, productID uuid.UUID, platform enums.Platform, now time.Time) (int64, error)
	ListByPair(ctx context.Context, productID uuid.UUID, platform enums.Platform, limit int) ([]models.OrderBlock, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a block repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, block *models.OrderBlock) error {
	return r.db.WithContext(ctx).Create(block).Error
}

func (r *repository) FindActive(ctx context.Context, productID uuid.UUID, platform enums.Platform) (*models.OrderBlock, error) {
	var block models.OrderBlock
	err := r.db.WithContext(ctx).
		Where("product_id = ? AND platform = ? AND is_active = ?", productID, platform, true).
		Order("block_date DESC").
		First(&block).
		Error
	if err != nil {
		return nil, err
	}
	return &block, nil
}

// DeactivateActive closes every active block for the pair, returning how
// many rows were closed. Running it before each insert keeps the
// one-active-block-per-pair invariant.
func (r *repository) DeactivateActive(ctx context.Context, productID uuid.UUID, platform enums.Platform, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.OrderBlock{}).
		Where("product_id = ? AND platform = ? AND is_active = ?", productID, platform, true).
		Updates(map[string]any{
			"is_active":    false,
			"unblock_date": now,
		})
	return result.RowsAffected, result.Error
}

func (r *repository) ListByPair(ctx context.Context, productID uuid.UUID, platform enums.Platform, limit int) ([]models.OrderBlock, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []models.OrderBlock
	err := r.db.WithContext(ctx).
		Where("product_id = ? AND platform = ?", productID, platform).
		Order("block_date DESC").
		Limit(limit).
		Find(&rows).
		Error
	return rows, err
}
