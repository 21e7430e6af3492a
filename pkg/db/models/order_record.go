package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/danmorales/channelstock-backend/pkg/enums"
)

// OrderRecord captures the outcome of one order attempt against a product
// and platform. One row is written per attempt; the status is set at
// creation and never mutated afterwards.
type OrderRecord struct {
	ID                uuid.UUID         `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	OrderRef          string            `gorm:"column:order_ref;not null" json:"order_ref"`
	CustomerRef       *string           `gorm:"column:customer_ref" json:"customer_ref,omitempty"`
	ProductID         uuid.UUID         `gorm:"column:product_id;type:uuid;not null;index:idx_order_records_pair" json:"product_id"`
	Platform          enums.Platform    `gorm:"column:platform;not null;index:idx_order_records_pair" json:"platform"`
	QuantityRequested int               `gorm:"column:quantity_requested;not null" json:"quantity_requested"`
	QuantityAvailable int               `gorm:"column:quantity_available;not null" json:"quantity_available"`
	QuantityFulfilled int               `gorm:"column:quantity_fulfilled;not null;default:0" json:"quantity_fulfilled"`
	Status            enums.OrderStatus `gorm:"column:status;not null" json:"status"`
	BlockReason       *string           `gorm:"column:block_reason" json:"block_reason,omitempty"`
	CreatedAt         time.Time         `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

// TableName pins the Postgres table name.
func (OrderRecord) TableName() string {
	return "order_records"
}

// BeforeCreate assigns the row ID client-side so the model works on both
// Postgres and the SQLite databases used in tests.
func (r *OrderRecord) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
