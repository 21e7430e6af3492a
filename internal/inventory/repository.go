package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/danmorales/channelstock-backend/pkg/db/models"
	"github.com/danmorales/channelstock-backend/pkg/enums"
)

// Repository manages persistence for platform inventory rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Get(ctx context.Context, productID uuid.UUID, platform enums.Platform) (*models.PlatformInventory, error)
	Upsert(ctx context.Context, row *models.PlatformInventory) (*models.PlatformInventory, error)
	DecrementStock(ctx context.Context, productID uuid.UUID, platform enums.Platform, qty int) (bool, error)
	SetBlock(ctx context.Context, productID uuid.UUID, platform enums.Platform, reason enums.BlockReason, blockDate time.Time, autoUnblock *time.Time) error
	ClearBlock(ctx context.Context, productID uuid.UUID, platform enums.Platform) error
	ListAutoUnblockDue(ctx context.Context, now time.Time, limit int) ([]models.PlatformInventory, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an inventory repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Get(ctx context.Context, productID uuid.UUID, platform enums.Platform) (*models.PlatformInventory, error) {
	var row models.PlatformInventory
	err := r.db.WithContext(ctx).
		First(&row, "product_id = ? AND platform = ?", productID, platform).
		Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repository) Upsert(ctx context.Context, row *models.PlatformInventory) (*models.PlatformInventory, error) {
	if err := r.db.WithContext(ctx).Save(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

// DecrementStock applies a floor-checked atomic deduction of qty units from
// both stock and available quantities. It reports false when the row is
// blocked, missing, or no longer holds qty available units, so two
// concurrent orders can never oversell the same stock.
func (r *repository) DecrementStock(ctx context.Context, productID uuid.UUID, platform enums.Platform, qty int) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.PlatformInventory{}).
		Where("product_id = ? AND platform = ?", productID, platform).
		Where("is_order_blocked = ?", false).
		Where("available_quantity >= ?", qty).
		Updates(map[string]any{
			"stock_quantity":     gorm.Expr("stock_quantity - ?", qty),
			"available_quantity": gorm.Expr("available_quantity - ?", qty),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *repository) SetBlock(ctx context.Context, productID uuid.UUID, platform enums.Platform, reason enums.BlockReason, blockDate time.Time, autoUnblock *time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.PlatformInventory{}).
		Where("product_id = ? AND platform = ?", productID, platform).
		Updates(map[string]any{
			"is_order_blocked":   true,
			"order_block_reason": reason,
			"order_block_date":   blockDate,
			"auto_unblock_date":  autoUnblock,
		}).Error
}

func (r *repository) ClearBlock(ctx context.Context, productID uuid.UUID, platform enums.Platform) error {
	return r.db.WithContext(ctx).
		Model(&models.PlatformInventory{}).
		Where("product_id = ? AND platform = ?", productID, platform).
		Updates(map[string]any{
			"is_order_blocked":   false,
			"order_block_reason": nil,
			"order_block_date":   nil,
			"auto_unblock_date":  nil,
		}).Error
}

// ListAutoUnblockDue returns blocked rows whose auto-unblock date has
// passed, ordered oldest first so the sweep drains fairly.
func (r *repository) ListAutoUnblockDue(ctx context.Context, now time.Time, limit int) ([]models.PlatformInventory, error) {
	var rows []models.PlatformInventory
	err := r.db.WithContext(ctx).
		Where("is_order_blocked = ?", true).
		Where("auto_unblock_date IS NOT NULL AND auto_unblock_date <= ?", now).
		Order("auto_unblock_date ASC").
		Limit(limit).
		Find(&rows).
		Error
	return rows, err
}
