package policy

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/danmorales/channelstock-backend/internal/alerts"
	"github.com/danmorales/channelstock-backend/internal/blocks"
	"github.com/danmorales/channelstock-backend/internal/integrations"
	"github.com/danmorales/channelstock-backend/internal/inventory"
	"github.com/danmorales/channelstock-backend/pkg/db"
	"github.com/danmorales/channelstock-backend/pkg/db/models"
	"github.com/danmorales/channelstock-backend/pkg/enums"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:policy_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := conn.AutoMigrate(
		&models.PlatformInventory{},
		&models.OrderBlock{},
		&models.InventoryAlert{},
		&models.PlatformIntegration{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

func newTestEvaluator(t *testing.T, conn *gorm.DB) Evaluator {
	t.Helper()
	blockSvc, err := blocks.NewService(
		db.FromGorm(conn),
		blocks.NewRepository(conn),
		inventory.NewRepository(conn),
		alerts.NewRepository(conn),
		integrations.NewRepository(conn),
		nil,
	)
	if err != nil {
		t.Fatalf("new block service: %v", err)
	}
	eval, err := NewEvaluator(blockSvc, alerts.NewRepository(conn), nil)
	if err != nil {
		t.Fatalf("new evaluator: %v", err)
	}
	return eval
}

func seedInventory(t *testing.T, conn *gorm.DB, available int) models.PlatformInventory {
	t.Helper()
	row := models.PlatformInventory{
		ProductID:         uuid.New(),
		Platform:          enums.PlatformShopify,
		StockQuantity:     available,
		AvailableQuantity: available,
	}
	if err := conn.Create(&row).Error; err != nil {
		t.Fatalf("seed inventory: %v", err)
	}
	return row
}

func activeBlock(t *testing.T, conn *gorm.DB, productID uuid.UUID) *models.OrderBlock {
	t.Helper()
	var block models.OrderBlock
	err := conn.First(&block, "product_id = ? AND is_active = ?", productID, true).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		t.Fatalf("load active block: %v", err)
	}
	return &block
}

func TestEvaluateLowStockThresholdBoundary(t *testing.T) {
	cfg := &models.PlatformIntegration{
		Platform:          enums.PlatformShopify,
		AutoBlockLowStock: true,
		LowStockThreshold: 5,
	}

	tests := []struct {
		name      string
		available int
		wantBlock bool
	}{
		{name: "at threshold blocks", available: 5, wantBlock: true},
		{name: "below threshold blocks", available: 2, wantBlock: true},
		{name: "above threshold leaves pair open", available: 6, wantBlock: false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			conn := newTestDB(t)
			eval := newTestEvaluator(t, conn)
			row := seedInventory(t, conn, tc.available)

			eval.EvaluateAfterSale(context.Background(), cfg, &row)

			block := activeBlock(t, conn, row.ProductID)
			if tc.wantBlock {
				if block == nil {
					t.Fatal("expected automatic block")
				}
				if block.BlockType != enums.BlockTypeAutomatic || block.Reason != enums.BlockReasonLowStock {
					t.Fatalf("unexpected block %s/%s", block.BlockType, block.Reason)
				}
			} else if block != nil {
				t.Fatalf("unexpected block: %+v", block)
			}
		})
	}
}

func TestEvaluateOutOfStockBlocks(t *testing.T) {
	conn := newTestDB(t)
	eval := newTestEvaluator(t, conn)
	row := seedInventory(t, conn, 0)

	cfg := &models.PlatformIntegration{
		Platform:            enums.PlatformShopify,
		AutoBlockOutOfStock: true,
	}
	eval.EvaluateAfterSale(context.Background(), cfg, &row)

	block := activeBlock(t, conn, row.ProductID)
	if block == nil {
		t.Fatal("expected automatic block")
	}
	if block.Reason != enums.BlockReasonOutOfStock {
		t.Fatalf("expected out_of_stock reason, got %s", block.Reason)
	}
}

func TestEvaluateLowStockRuleWinsOverOutOfStock(t *testing.T) {
	conn := newTestDB(t)
	eval := newTestEvaluator(t, conn)
	row := seedInventory(t, conn, 0)

	cfg := &models.PlatformIntegration{
		Platform:            enums.PlatformShopify,
		AutoBlockLowStock:   true,
		LowStockThreshold:   5,
		AutoBlockOutOfStock: true,
	}
	eval.EvaluateAfterSale(context.Background(), cfg, &row)

	block := activeBlock(t, conn, row.ProductID)
	if block == nil {
		t.Fatal("expected automatic block")
	}
	if block.Reason != enums.BlockReasonLowStock {
		t.Fatalf("expected low stock rule to be checked first, got %s", block.Reason)
	}
}

func TestEvaluateSkipsAlreadyBlockedPairs(t *testing.T) {
	conn := newTestDB(t)
	eval := newTestEvaluator(t, conn)
	row := seedInventory(t, conn, 0)

	row.IsOrderBlocked = true
	eval.EvaluateAfterSale(context.Background(), &models.PlatformIntegration{
		Platform:            enums.PlatformShopify,
		AutoBlockOutOfStock: true,
	}, &row)

	if block := activeBlock(t, conn, row.ProductID); block != nil {
		t.Fatalf("expected no block on already blocked pair, got %+v", block)
	}
}

func TestEvaluateRaisesAlertsWhenBlockingDisabled(t *testing.T) {
	tests := []struct {
		name      string
		available int
		wantType  enums.AlertType
	}{
		{name: "depleted", available: 0, wantType: enums.AlertTypeOutOfStock},
		{name: "below threshold", available: 3, wantType: enums.AlertTypeLowStock},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			conn := newTestDB(t)
			eval := newTestEvaluator(t, conn)
			row := seedInventory(t, conn, tc.available)

			eval.EvaluateAfterSale(context.Background(), &models.PlatformIntegration{
				Platform:          enums.PlatformShopify,
				LowStockThreshold: 5,
			}, &row)

			if block := activeBlock(t, conn, row.ProductID); block != nil {
				t.Fatalf("expected no block, got %+v", block)
			}
			var alert models.InventoryAlert
			if err := conn.First(&alert, "product_id = ?", row.ProductID).Error; err != nil {
				t.Fatalf("load alert: %v", err)
			}
			if alert.Type != tc.wantType {
				t.Fatalf("expected %s alert, got %s", tc.wantType, alert.Type)
			}
		})
	}
}
