package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/danmorales/channelstock-backend/pkg/enums"
)

// InventoryAlert is a notification row emitted as a side effect of blocking
// and unblocking, consumed by the operations dashboard.
type InventoryAlert struct {
	ID         uuid.UUID       `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	ProductID  uuid.UUID       `gorm:"column:product_id;type:uuid;not null" json:"product_id"`
	Platform   enums.Platform  `gorm:"column:platform;not null" json:"platform"`
	Type       enums.AlertType `gorm:"column:type;not null" json:"type"`
	Message    string          `gorm:"column:message;not null" json:"message"`
	ReadAt     *time.Time      `gorm:"column:read_at" json:"read_at,omitempty"`
	ResolvedAt *time.Time      `gorm:"column:resolved_at" json:"resolved_at,omitempty"`
	CreatedAt  time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

// TableName pins the Postgres table name.
func (InventoryAlert) TableName() string {
	return "inventory_alerts"
}

// IsRead reports whether the dashboard has acknowledged the alert.
func (a InventoryAlert) IsRead() bool {
	return a.ReadAt != nil
}

// IsResolved reports whether the underlying condition was resolved.
func (a InventoryAlert) IsResolved() bool {
	return a.ResolvedAt != nil
}

// BeforeCreate assigns the row ID client-side so the model works on both
// Postgres and the SQLite databases used in tests.
func (a *InventoryAlert) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
