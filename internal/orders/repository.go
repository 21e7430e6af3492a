package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/danmorales/channelstock-backend/pkg/db/models"
	"github.com/danmorales/channelstock-backend/pkg/enums"
	"github.com/danmorales/channelstock-backend/pkg/pagination"
)

// Repository persists the per-attempt order records.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, record *models.OrderRecord) error
	GetByRef(ctx context.Context, orderRef string) (*models.OrderRecord, error)
	ListByPair(ctx context.Context, productID uuid.UUID, platform enums.Platform, params pagination.Params) ([]models.OrderRecord, string, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an order repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, record *models.OrderRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *repository) GetByRef(ctx context.Context, orderRef string) (*models.OrderRecord, error) {
	var record models.OrderRecord
	err := r.db.WithContext(ctx).
		Where("order_ref = ?", orderRef).
		Order("created_at DESC").
		First(&record).
		Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *repository) ListByPair(ctx context.Context, productID uuid.UUID, platform enums.Platform, params pagination.Params) ([]models.OrderRecord, string, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).
		Where("product_id = ? AND platform = ?", productID, platform)

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", err
	}
	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var rows []models.OrderRecord
	if err := query.
		Order("created_at DESC").Order("id DESC").
		Limit(limit).
		Find(&rows).
		Error; err != nil {
		return nil, "", err
	}

	next := ""
	if len(rows) > normalized {
		rows = rows[:normalized]
		last := rows[len(rows)-1]
		next = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return rows, next, nil
}
