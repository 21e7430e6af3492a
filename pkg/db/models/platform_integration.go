package models

import (
	"time"

	"github.com/danmorales/channelstock-backend/pkg/enums"
)

// PlatformIntegration holds the per-platform blocking configuration. The
// order flow only reads these rows; administrative endpoints mutate them.
type PlatformIntegration struct {
	Platform             enums.Platform `gorm:"column:platform;primaryKey" json:"platform"`
	AutoBlockLowStock    bool           `gorm:"column:auto_block_low_stock;not null;default:false" json:"auto_block_low_stock"`
	LowStockThreshold    int            `gorm:"column:low_stock_threshold;not null;default:0" json:"low_stock_threshold"`
	AutoBlockOutOfStock  bool           `gorm:"column:auto_block_out_of_stock;not null;default:false" json:"auto_block_out_of_stock"`
	AllowBackorders      bool           `gorm:"column:allow_backorders;not null;default:false" json:"allow_backorders"`
	BackorderMaxQuantity int            `gorm:"column:backorder_max_quantity;not null;default:0" json:"backorder_max_quantity"`
	NotifyOnOrderBlock   bool           `gorm:"column:notify_on_order_block;not null;default:true" json:"notify_on_order_block"`
	CreatedAt            time.Time      `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time      `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// TableName pins the Postgres table name.
func (PlatformIntegration) TableName() string {
	return "platform_integrations"
}
