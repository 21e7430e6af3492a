package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/danmorales/channelstock-backend/pkg/enums"
)

// PlatformInventory tracks the stock ledger for one product on one sales
// platform. available_quantity is the only figure order checks consult and
// must equal stock_quantity - reserved_quantity at all times.
type PlatformInventory struct {
	ProductID         uuid.UUID      `gorm:"column:product_id;type:uuid;primaryKey" json:"product_id"`
	Platform          enums.Platform `gorm:"column:platform;primaryKey" json:"platform"`
	StockQuantity     int            `gorm:"column:stock_quantity;not null;default:0" json:"stock_quantity"`
	ReservedQuantity  int            `gorm:"column:reserved_quantity;not null;default:0" json:"reserved_quantity"`
	AvailableQuantity int            `gorm:"column:available_quantity;not null;default:0" json:"available_quantity"`

	IsOrderBlocked   bool               `gorm:"column:is_order_blocked;not null;default:false" json:"is_order_blocked"`
	OrderBlockReason *enums.BlockReason `gorm:"column:order_block_reason" json:"order_block_reason,omitempty"`
	OrderBlockDate   *time.Time         `gorm:"column:order_block_date" json:"order_block_date,omitempty"`
	AutoUnblockDate  *time.Time         `gorm:"column:auto_unblock_date" json:"auto_unblock_date,omitempty"`

	LastSyncedAt *time.Time `gorm:"column:last_synced_at" json:"last_synced_at,omitempty"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// TableName pins the Postgres table name.
func (PlatformInventory) TableName() string {
	return "platform_inventory"
}
