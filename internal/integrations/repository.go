package integrations

import (
	"context"

	"gorm.io/gorm"

	"github.com/danmorales/channelstock-backend/pkg/db/models"
	"github.com/danmorales/channelstock-backend/pkg/enums"
)

// Repository manages the per-platform blocking configuration rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Get(ctx context.Context, platform enums.Platform) (*models.PlatformIntegration, error)
	Upsert(ctx context.Context, row *models.PlatformIntegration) (*models.PlatformIntegration, error)
	List(ctx context.Context) ([]models.PlatformIntegration, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an integration repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Get(ctx context.Context, platform enums.Platform) (*models.PlatformIntegration, error) {
	var row models.PlatformIntegration
	if err := r.db.WithContext(ctx).First(&row, "platform = ?", platform).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repository) Upsert(ctx context.Context, row *models.PlatformIntegration) (*models.PlatformIntegration, error) {
	if err := r.db.WithContext(ctx).Save(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *repository) List(ctx context.Context) ([]models.PlatformIntegration, error) {
	var rows []models.PlatformIntegration
	err := r.db.WithContext(ctx).Order("platform ASC").Find(&rows).Error
	return rows, err
}
