package orders

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/danmorales/channelstock-backend/internal/alerts"
	"github.com/danmorales/channelstock-backend/internal/blocks"
	"github.com/danmorales/channelstock-backend/internal/integrations"
	"github.com/danmorales/channelstock-backend/internal/inventory"
	"github.com/danmorales/channelstock-backend/internal/policy"
	"github.com/danmorales/channelstock-backend/pkg/db"
	"github.com/danmorales/channelstock-backend/pkg/db/models"
	"github.com/danmorales/channelstock-backend/pkg/enums"
	pkgerrors "github.com/danmorales/channelstock-backend/pkg/errors"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:orders_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := conn.AutoMigrate(
		&models.PlatformInventory{},
		&models.InventoryTransaction{},
		&models.OrderBlock{},
		&models.OrderRecord{},
		&models.InventoryAlert{},
		&models.PlatformIntegration{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

func newTestProcessor(t *testing.T, conn *gorm.DB) Processor {
	t.Helper()
	client := db.FromGorm(conn)
	blockSvc, err := blocks.NewService(
		client,
		blocks.NewRepository(conn),
		inventory.NewRepository(conn),
		alerts.NewRepository(conn),
		integrations.NewRepository(conn),
		nil,
	)
	if err != nil {
		t.Fatalf("new block service: %v", err)
	}
	eval, err := policy.NewEvaluator(blockSvc, alerts.NewRepository(conn), nil)
	if err != nil {
		t.Fatalf("new evaluator: %v", err)
	}
	proc, err := NewProcessor(
		client,
		NewRepository(conn),
		inventory.NewRepository(conn),
		inventory.NewLedgerRepository(conn),
		integrations.NewRepository(conn),
		eval,
		nil,
	)
	if err != nil {
		t.Fatalf("new processor: %v", err)
	}
	return proc
}

func seedInventory(t *testing.T, conn *gorm.DB, row models.PlatformInventory) models.PlatformInventory {
	t.Helper()
	if err := conn.Create(&row).Error; err != nil {
		t.Fatalf("seed inventory: %v", err)
	}
	return row
}

func countRecords(t *testing.T, conn *gorm.DB, orderRef string) int64 {
	t.Helper()
	var n int64
	if err := conn.Model(&models.OrderRecord{}).Where("order_ref = ?", orderRef).Count(&n).Error; err != nil {
		t.Fatalf("count records: %v", err)
	}
	return n
}

func TestProcessFulfillableOrder(t *testing.T) {
	conn := newTestDB(t)
	proc := newTestProcessor(t, conn)
	ctx := context.Background()

	row := seedInventory(t, conn, models.PlatformInventory{
		ProductID:         uuid.New(),
		Platform:          enums.PlatformShopify,
		StockQuantity:     10,
		AvailableQuantity: 10,
	})

	result, err := proc.Process(ctx, OrderInput{
		OrderRef:  "ORD-1001",
		ProductID: row.ProductID,
		Platform:  enums.PlatformShopify,
		Quantity:  4,
	})
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if !result.Accepted {
		t.Fatalf("expected acceptance, got reason %q", result.Reason)
	}
	if result.Record.Status != enums.OrderStatusConfirmed || result.Record.QuantityFulfilled != 4 {
		t.Fatalf("unexpected record %+v", result.Record)
	}

	var fresh models.PlatformInventory
	if err := conn.First(&fresh, "product_id = ?", row.ProductID).Error; err != nil {
		t.Fatalf("reload inventory: %v", err)
	}
	if fresh.StockQuantity != 6 || fresh.AvailableQuantity != 6 {
		t.Fatalf("expected stock deducted to 6, got stock=%d available=%d", fresh.StockQuantity, fresh.AvailableQuantity)
	}

	var entry models.InventoryTransaction
	if err := conn.First(&entry, "product_id = ?", row.ProductID).Error; err != nil {
		t.Fatalf("load ledger entry: %v", err)
	}
	if entry.Type != enums.TransactionTypeSale || entry.Quantity != 4 {
		t.Fatalf("unexpected ledger entry %+v", entry)
	}
	if entry.PreviousStock != 10 || entry.NewStock != 6 {
		t.Fatalf("expected ledger 10 -> 6, got %d -> %d", entry.PreviousStock, entry.NewStock)
	}
	if entry.OrderRef == nil || *entry.OrderRef != "ORD-1001" {
		t.Fatalf("expected order ref on ledger entry, got %v", entry.OrderRef)
	}

	if n := countRecords(t, conn, "ORD-1001"); n != 1 {
		t.Fatalf("expected exactly one order record, got %d", n)
	}
}

func TestProcessBlockedPairIsRejected(t *testing.T) {
	conn := newTestDB(t)
	proc := newTestProcessor(t, conn)
	ctx := context.Background()

	reason := enums.BlockReasonMaintenance
	row := seedInventory(t, conn, models.PlatformInventory{
		ProductID:         uuid.New(),
		Platform:          enums.PlatformAmazon,
		StockQuantity:     50,
		AvailableQuantity: 50,
		IsOrderBlocked:    true,
		OrderBlockReason:  &reason,
	})

	result, err := proc.Process(ctx, OrderInput{
		OrderRef:  "ORD-2001",
		ProductID: row.ProductID,
		Platform:  enums.PlatformAmazon,
		Quantity:  1,
	})
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if result.Accepted {
		t.Fatal("expected rejection on blocked pair")
	}
	if result.Reason != "maintenance" {
		t.Fatalf("expected block reason surfaced, got %q", result.Reason)
	}
	if result.Record.Status != enums.OrderStatusBlocked || result.Record.QuantityFulfilled != 0 {
		t.Fatalf("unexpected record %+v", result.Record)
	}

	var fresh models.PlatformInventory
	if err := conn.First(&fresh, "product_id = ?", row.ProductID).Error; err != nil {
		t.Fatalf("reload inventory: %v", err)
	}
	if fresh.StockQuantity != 50 || fresh.AvailableQuantity != 50 {
		t.Fatal("rejected order must not touch stock")
	}
	var ledger int64
	if err := conn.Model(&models.InventoryTransaction{}).Count(&ledger).Error; err != nil {
		t.Fatalf("count ledger: %v", err)
	}
	if ledger != 0 {
		t.Fatalf("expected no ledger entries, got %d", ledger)
	}
}

func TestProcessLastUnitsOnlyOnceAccepted(t *testing.T) {
	conn := newTestDB(t)
	proc := newTestProcessor(t, conn)
	ctx := context.Background()

	row := seedInventory(t, conn, models.PlatformInventory{
		ProductID:         uuid.New(),
		Platform:          enums.PlatformEtsy,
		StockQuantity:     6,
		AvailableQuantity: 6,
	})

	first, err := proc.Process(ctx, OrderInput{
		OrderRef:  "ORD-3001",
		ProductID: row.ProductID,
		Platform:  enums.PlatformEtsy,
		Quantity:  6,
	})
	if err != nil {
		t.Fatalf("first order: %v", err)
	}
	if !first.Accepted {
		t.Fatalf("expected first order accepted, got %q", first.Reason)
	}

	second, err := proc.Process(ctx, OrderInput{
		OrderRef:  "ORD-3002",
		ProductID: row.ProductID,
		Platform:  enums.PlatformEtsy,
		Quantity:  6,
	})
	if err != nil {
		t.Fatalf("second order: %v", err)
	}
	if second.Accepted {
		t.Fatal("expected second order for the same units to be rejected")
	}
	if second.Reason != inventory.ReasonInsufficientStock {
		t.Fatalf("expected insufficient stock, got %q", second.Reason)
	}

	var fresh models.PlatformInventory
	if err := conn.First(&fresh, "product_id = ?", row.ProductID).Error; err != nil {
		t.Fatalf("reload inventory: %v", err)
	}
	if fresh.AvailableQuantity != 0 {
		t.Fatalf("expected available 0, got %d", fresh.AvailableQuantity)
	}
	if fresh.AvailableQuantity < 0 {
		t.Fatal("available quantity must never go negative")
	}
}

func TestProcessUnknownPair(t *testing.T) {
	conn := newTestDB(t)
	proc := newTestProcessor(t, conn)

	result, err := proc.Process(context.Background(), OrderInput{
		OrderRef:  "ORD-4001",
		ProductID: uuid.New(),
		Platform:  enums.PlatformShopify,
		Quantity:  1,
	})
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if result.Accepted {
		t.Fatal("expected rejection for untracked pair")
	}
	if result.Reason != inventory.ReasonNotOnPlatform {
		t.Fatalf("unexpected reason %q", result.Reason)
	}
	if n := countRecords(t, conn, "ORD-4001"); n != 1 {
		t.Fatalf("expected exactly one order record, got %d", n)
	}
}

func TestProcessValidation(t *testing.T) {
	conn := newTestDB(t)
	proc := newTestProcessor(t, conn)
	ctx := context.Background()

	tests := []struct {
		name  string
		input OrderInput
	}{
		{name: "zero quantity", input: OrderInput{OrderRef: "X", ProductID: uuid.New(), Platform: enums.PlatformShopify}},
		{name: "negative quantity", input: OrderInput{OrderRef: "X", ProductID: uuid.New(), Platform: enums.PlatformShopify, Quantity: -2}},
		{name: "missing order ref", input: OrderInput{ProductID: uuid.New(), Platform: enums.PlatformShopify, Quantity: 1}},
		{name: "missing product", input: OrderInput{OrderRef: "X", Platform: enums.PlatformShopify, Quantity: 1}},
		{name: "bad platform", input: OrderInput{OrderRef: "X", ProductID: uuid.New(), Platform: enums.Platform("geocities"), Quantity: 1}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := proc.Process(ctx, tc.input)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected VALIDATION_ERROR, got %v", err)
			}
		})
	}

	var n int64
	if err := conn.Model(&models.OrderRecord{}).Count(&n).Error; err != nil {
		t.Fatalf("count records: %v", err)
	}
	if n != 0 {
		t.Fatalf("validation failures must not write records, got %d", n)
	}
}

func TestProcessBackorderWithinAllowance(t *testing.T) {
	conn := newTestDB(t)
	proc := newTestProcessor(t, conn)
	ctx := context.Background()

	if err := conn.Create(&models.PlatformIntegration{
		Platform:             enums.PlatformWalmart,
		AllowBackorders:      true,
		BackorderMaxQuantity: 5,
	}).Error; err != nil {
		t.Fatalf("seed config: %v", err)
	}
	row := seedInventory(t, conn, models.PlatformInventory{
		ProductID:         uuid.New(),
		Platform:          enums.PlatformWalmart,
		StockQuantity:     3,
		AvailableQuantity: 3,
	})

	result, err := proc.Process(ctx, OrderInput{
		OrderRef:  "ORD-5001",
		ProductID: row.ProductID,
		Platform:  enums.PlatformWalmart,
		Quantity:  7,
	})
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if !result.Accepted {
		t.Fatalf("expected backordered acceptance, got %q", result.Reason)
	}
	if result.Backordered != 4 {
		t.Fatalf("expected 4 backordered units, got %d", result.Backordered)
	}
	if result.Record.QuantityFulfilled != 7 {
		t.Fatalf("expected full fulfillment commitment, got %d", result.Record.QuantityFulfilled)
	}

	var fresh models.PlatformInventory
	if err := conn.First(&fresh, "product_id = ?", row.ProductID).Error; err != nil {
		t.Fatalf("reload inventory: %v", err)
	}
	if fresh.AvailableQuantity != 0 {
		t.Fatalf("expected stock drained to 0, got %d", fresh.AvailableQuantity)
	}

	over, err := proc.Process(ctx, OrderInput{
		OrderRef:  "ORD-5002",
		ProductID: row.ProductID,
		Platform:  enums.PlatformWalmart,
		Quantity:  6,
	})
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if over.Accepted {
		t.Fatal("expected rejection beyond backorder allowance")
	}
}

func TestProcessTriggersAutoBlock(t *testing.T) {
	conn := newTestDB(t)
	proc := newTestProcessor(t, conn)
	ctx := context.Background()

	if err := conn.Create(&models.PlatformIntegration{
		Platform:            enums.PlatformShopify,
		AutoBlockOutOfStock: true,
	}).Error; err != nil {
		t.Fatalf("seed config: %v", err)
	}
	row := seedInventory(t, conn, models.PlatformInventory{
		ProductID:         uuid.New(),
		Platform:          enums.PlatformShopify,
		StockQuantity:     2,
		AvailableQuantity: 2,
	})

	result, err := proc.Process(ctx, OrderInput{
		OrderRef:  "ORD-6001",
		ProductID: row.ProductID,
		Platform:  enums.PlatformShopify,
		Quantity:  2,
	})
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if !result.Accepted {
		t.Fatalf("expected acceptance, got %q", result.Reason)
	}

	var fresh models.PlatformInventory
	if err := conn.First(&fresh, "product_id = ?", row.ProductID).Error; err != nil {
		t.Fatalf("reload inventory: %v", err)
	}
	if !fresh.IsOrderBlocked {
		t.Fatal("expected auto-block after stock drained")
	}
	if fresh.OrderBlockReason == nil || *fresh.OrderBlockReason != enums.BlockReasonOutOfStock {
		t.Fatalf("unexpected block reason %v", fresh.OrderBlockReason)
	}

	var block models.OrderBlock
	if err := conn.First(&block, "product_id = ? AND is_active = ?", row.ProductID, true).Error; err != nil {
		t.Fatalf("load auto block: %v", err)
	}
	if block.BlockType != enums.BlockTypeAutomatic {
		t.Fatalf("expected automatic block, got %s", block.BlockType)
	}
}

func TestGetByRef(t *testing.T) {
	conn := newTestDB(t)
	proc := newTestProcessor(t, conn)
	ctx := context.Background()

	row := seedInventory(t, conn, models.PlatformInventory{
		ProductID:         uuid.New(),
		Platform:          enums.PlatformShopify,
		StockQuantity:     5,
		AvailableQuantity: 5,
	})
	if _, err := proc.Process(ctx, OrderInput{
		OrderRef:  "ORD-7001",
		ProductID: row.ProductID,
		Platform:  enums.PlatformShopify,
		Quantity:  1,
	}); err != nil {
		t.Fatalf("process: %v", err)
	}

	record, err := proc.GetByRef(ctx, "ORD-7001")
	if err != nil {
		t.Fatalf("get by ref: %v", err)
	}
	if record.Status != enums.OrderStatusConfirmed {
		t.Fatalf("unexpected status %s", record.Status)
	}

	_, err = proc.GetByRef(ctx, "ORD-missing")
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

// overReadInventoryRepo reports more stock than the table holds, standing
// in for a concurrent order draining the row between the availability read
// and the deduction.
type overReadInventoryRepo struct {
	inventory.Repository
	surplus int
}

func (r *overReadInventoryRepo) WithTx(tx *gorm.DB) inventory.Repository {
	return &overReadInventoryRepo{Repository: r.Repository.WithTx(tx), surplus: r.surplus}
}

func (r *overReadInventoryRepo) Get(ctx context.Context, productID uuid.UUID, platform enums.Platform) (*models.PlatformInventory, error) {
	row, err := r.Repository.Get(ctx, productID, platform)
	if err != nil {
		return nil, err
	}
	row.StockQuantity += r.surplus
	row.AvailableQuantity += r.surplus
	return row, nil
}

func TestProcessLostDecrementRaceIsRejected(t *testing.T) {
	conn := newTestDB(t)
	ctx := context.Background()

	proc, err := NewProcessor(
		db.FromGorm(conn),
		NewRepository(conn),
		&overReadInventoryRepo{Repository: inventory.NewRepository(conn), surplus: 5},
		inventory.NewLedgerRepository(conn),
		integrations.NewRepository(conn),
		nil,
		nil,
	)
	if err != nil {
		t.Fatalf("new processor: %v", err)
	}

	row := seedInventory(t, conn, models.PlatformInventory{
		ProductID:         uuid.New(),
		Platform:          enums.PlatformAmazon,
		StockQuantity:     2,
		AvailableQuantity: 2,
	})

	// The pre-check sees 7 units, but the table only holds 2. The
	// floor-checked decrement refuses and the attempt is recorded as
	// blocked instead of overselling.
	out, err := proc.Process(ctx, OrderInput{
		OrderRef:  "ORD-RACE",
		ProductID: row.ProductID,
		Platform:  row.Platform,
		Quantity:  4,
	})
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if out.Accepted {
		t.Fatal("expected lost race to be rejected")
	}
	if out.Reason != inventory.ReasonInsufficientStock {
		t.Fatalf("expected insufficient-stock reason, got %q", out.Reason)
	}
	if out.Record == nil || out.Record.Status != enums.OrderStatusBlocked || out.Record.QuantityFulfilled != 0 {
		t.Fatalf("expected blocked record with nothing fulfilled, got %+v", out.Record)
	}
	if n := countRecords(t, conn, "ORD-RACE"); n != 1 {
		t.Fatalf("expected exactly 1 record, got %d", n)
	}

	var got models.PlatformInventory
	if err := conn.First(&got, "product_id = ?", row.ProductID).Error; err != nil {
		t.Fatalf("reload inventory: %v", err)
	}
	if got.StockQuantity != 2 || got.AvailableQuantity != 2 {
		t.Fatalf("expected stock untouched, got stock=%d available=%d", got.StockQuantity, got.AvailableQuantity)
	}

	var ledgerRows int64
	if err := conn.Model(&models.InventoryTransaction{}).Count(&ledgerRows).Error; err != nil {
		t.Fatalf("count ledger: %v", err)
	}
	if ledgerRows != 0 {
		t.Fatalf("expected no ledger rows for a rejected attempt, got %d", ledgerRows)
	}
}
