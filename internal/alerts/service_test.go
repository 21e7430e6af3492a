package alerts

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/danmorales/channelstock-backend/pkg/db/models"
	"github.com/danmorales/channelstock-backend/pkg/enums"
	pkgerrors "github.com/danmorales/channelstock-backend/pkg/errors"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:alerts_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := conn.AutoMigrate(&models.InventoryAlert{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	conn := newTestDB(t)
	svc, err := NewService(NewRepository(conn))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, conn
}

func seedAlert(t *testing.T, conn *gorm.DB, alertType enums.AlertType, createdAt time.Time, read bool) models.InventoryAlert {
	t.Helper()
	row := models.InventoryAlert{
		ProductID: uuid.New(),
		Platform:  enums.PlatformShopify,
		Type:      alertType,
		Message:   fmt.Sprintf("test alert %s", alertType),
		CreatedAt: createdAt,
	}
	if read {
		at := createdAt.Add(time.Minute)
		row.ReadAt = &at
	}
	if err := conn.Create(&row).Error; err != nil {
		t.Fatalf("seed alert: %v", err)
	}
	return row
}

func TestListPaginatesNewestFirst(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		seedAlert(t, conn, enums.AlertTypeLowStock, base.Add(time.Duration(i)*time.Hour), false)
	}

	first, err := svc.List(ctx, ListParams{Limit: 3})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(first.Items) != 3 {
		t.Fatalf("expected 3 alerts, got %d", len(first.Items))
	}
	if !first.Items[0].CreatedAt.After(first.Items[2].CreatedAt) {
		t.Fatalf("expected newest-first ordering")
	}
	if first.Cursor == "" {
		t.Fatal("expected cursor for next page")
	}

	second, err := svc.List(ctx, ListParams{Limit: 3, Cursor: first.Cursor})
	if err != nil {
		t.Fatalf("list second page: %v", err)
	}
	if len(second.Items) != 2 {
		t.Fatalf("expected 2 alerts on the final page, got %d", len(second.Items))
	}
	if second.Cursor != "" {
		t.Fatalf("expected exhausted cursor, got %q", second.Cursor)
	}

	seen := map[uuid.UUID]bool{}
	for _, row := range append(first.Items, second.Items...) {
		if seen[row.ID] {
			t.Fatalf("alert %s returned twice", row.ID)
		}
		seen[row.ID] = true
	}
}

func TestListUnreadOnly(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	unread := seedAlert(t, conn, enums.AlertTypeOutOfStock, base, false)
	seedAlert(t, conn, enums.AlertTypeOrderBlocked, base.Add(time.Hour), true)

	out, err := svc.List(ctx, ListParams{UnreadOnly: true})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(out.Items) != 1 || out.Items[0].ID != unread.ID {
		t.Fatalf("expected only the unread alert, got %d rows", len(out.Items))
	}
}

func TestListRejectsMalformedCursor(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.List(context.Background(), ListParams{Cursor: "not-a-cursor"})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected VALIDATION, got %v", err)
	}
}

func TestMarkReadOnce(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()

	row := seedAlert(t, conn, enums.AlertTypeLowStock, time.Now().UTC(), false)

	if err := svc.MarkRead(ctx, row.ID); err != nil {
		t.Fatalf("mark read: %v", err)
	}

	var got models.InventoryAlert
	if err := conn.First(&got, "id = ?", row.ID).Error; err != nil {
		t.Fatalf("reload alert: %v", err)
	}
	if !got.IsRead() {
		t.Fatal("expected alert marked read")
	}

	// A second acknowledgement has nothing left to update.
	err := svc.MarkRead(ctx, row.ID)
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected NOT_FOUND on repeat, got %v", err)
	}
}

func TestMarkReadUnknownAlert(t *testing.T) {
	svc, _ := newTestService(t)

	err := svc.MarkRead(context.Background(), uuid.New())
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}

	err = svc.MarkRead(context.Background(), uuid.Nil)
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected VALIDATION for nil id, got %v", err)
	}
}

func TestMarkAllReadSkipsAcknowledged(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()

	base := time.Now().UTC()
	seedAlert(t, conn, enums.AlertTypeLowStock, base, false)
	seedAlert(t, conn, enums.AlertTypeOutOfStock, base, false)
	seedAlert(t, conn, enums.AlertTypeOrderBlocked, base, true)

	updated, err := svc.MarkAllRead(ctx)
	if err != nil {
		t.Fatalf("mark all read: %v", err)
	}
	if updated != 2 {
		t.Fatalf("expected 2 alerts updated, got %d", updated)
	}

	var unread int64
	if err := conn.Model(&models.InventoryAlert{}).Where("read_at IS NULL").Count(&unread).Error; err != nil {
		t.Fatalf("count unread: %v", err)
	}
	if unread != 0 {
		t.Fatalf("expected no unread alerts, got %d", unread)
	}
}

func TestMarkResolved(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()

	row := seedAlert(t, conn, enums.AlertTypeOutOfStock, time.Now().UTC(), false)

	if err := svc.MarkResolved(ctx, row.ID); err != nil {
		t.Fatalf("mark resolved: %v", err)
	}

	var got models.InventoryAlert
	if err := conn.First(&got, "id = ?", row.ID).Error; err != nil {
		t.Fatalf("reload alert: %v", err)
	}
	if !got.IsResolved() {
		t.Fatal("expected alert resolved")
	}

	err := svc.MarkResolved(ctx, row.ID)
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected NOT_FOUND on repeat, got %v", err)
	}
}
