package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/danmorales/channelstock-backend/pkg/enums"
)

// OrderBlock records one block episode for a (product, platform) pair.
// History is retained; at most one row per pair is active at a time, which
// the block service enforces by closing prior active rows before inserting.
type OrderBlock struct {
	ID          uuid.UUID         `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	ProductID   uuid.UUID         `gorm:"column:product_id;type:uuid;not null;index:idx_order_blocks_pair" json:"product_id"`
	Platform    enums.Platform    `gorm:"column:platform;not null;index:idx_order_blocks_pair" json:"platform"`
	BlockType   enums.BlockType   `gorm:"column:block_type;not null" json:"block_type"`
	Reason      enums.BlockReason `gorm:"column:reason;not null" json:"reason"`
	Notes       *string           `gorm:"column:notes" json:"notes,omitempty"`
	BlockDate   time.Time         `gorm:"column:block_date;not null" json:"block_date"`
	UnblockDate *time.Time        `gorm:"column:unblock_date" json:"unblock_date,omitempty"`
	IsActive    bool              `gorm:"column:is_active;not null;default:true" json:"is_active"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time         `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// TableName pins the Postgres table name.
func (OrderBlock) TableName() string {
	return "order_blocks"
}

// BeforeCreate assigns the row ID client-side so the model works on both
// Postgres and the SQLite databases used in tests.
func (b *OrderBlock) BeforeCreate(*gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}
