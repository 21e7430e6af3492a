package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/danmorales/channelstock-backend/pkg/enums"
)

// InventoryTransaction is one immutable ledger entry recording a stock
// change. Rows are only ever inserted; previous/new stock are captured for
// audit.
type InventoryTransaction struct {
	ID            uuid.UUID             `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	ProductID     uuid.UUID             `gorm:"column:product_id;type:uuid;not null;index:idx_inventory_tx_pair" json:"product_id"`
	Platform      enums.Platform        `gorm:"column:platform;not null;index:idx_inventory_tx_pair" json:"platform"`
	Type          enums.TransactionType `gorm:"column:type;not null" json:"type"`
	Quantity      int                   `gorm:"column:quantity;not null" json:"quantity"`
	PreviousStock int                   `gorm:"column:previous_stock;not null" json:"previous_stock"`
	NewStock      int                   `gorm:"column:new_stock;not null" json:"new_stock"`
	OrderRef      *string               `gorm:"column:order_ref" json:"order_ref,omitempty"`
	Note          *string               `gorm:"column:note" json:"note,omitempty"`
	CreatedAt     time.Time             `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

// TableName pins the Postgres table name.
func (InventoryTransaction) TableName() string {
	return "inventory_transactions"
}

// BeforeCreate assigns the row ID client-side so the model works on both
// Postgres and the SQLite databases used in tests.
func (t *InventoryTransaction) BeforeCreate(*gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
