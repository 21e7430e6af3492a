package policy

import (
	"context"
	"fmt"

	"github.com/danmorales/channelstock-backend/internal/alerts"
	"github.com/danmorales/channelstock-backend/internal/blocks"
	"github.com/danmorales/channelstock-backend/pkg/db/models"
	"github.com/danmorales/channelstock-backend/pkg/enums"
	pkgerrors "github.com/danmorales/channelstock-backend/pkg/errors"
	"github.com/danmorales/channelstock-backend/pkg/logger"
)

// Evaluator applies the per-platform auto-block rules after stock moves.
// It never surfaces errors to the caller; a policy failure must not undo
// or fail the order that triggered it.
type Evaluator interface {
	EvaluateAfterSale(ctx context.Context, cfg *models.PlatformIntegration, inv *models.PlatformInventory)
}

type evaluator struct {
	blockService blocks.Service
	alertRepo    alerts.Repository
	logg         *logger.Logger
}

// NewEvaluator wires the policy evaluator dependencies.
func NewEvaluator(blockService blocks.Service, alertRepo alerts.Repository, logg *logger.Logger) (Evaluator, error) {
	if blockService == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "block service required")
	}
	if alertRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "alert repository required")
	}
	return &evaluator{blockService: blockService, alertRepo: alertRepo, logg: logg}, nil
}

// EvaluateAfterSale inspects the post-sale inventory row against the
// platform configuration. The low-stock rule is checked before the
// out-of-stock rule; at most one automatic block is placed per call and
// pairs that are already blocked are left alone.
func (e *evaluator) EvaluateAfterSale(ctx context.Context, cfg *models.PlatformIntegration, inv *models.PlatformInventory) {
	if cfg == nil || inv == nil {
		return
	}
	if inv.IsOrderBlocked {
		return
	}

	switch {
	case cfg.AutoBlockLowStock && inv.AvailableQuantity <= cfg.LowStockThreshold:
		e.placeBlock(ctx, inv, enums.BlockReasonLowStock,
			fmt.Sprintf("Available stock %d at or below threshold %d", inv.AvailableQuantity, cfg.LowStockThreshold))
	case cfg.AutoBlockOutOfStock && inv.AvailableQuantity == 0:
		e.placeBlock(ctx, inv, enums.BlockReasonOutOfStock,
			fmt.Sprintf("Available stock depleted (was %d)", inv.AvailableQuantity))
	case inv.AvailableQuantity == 0:
		e.raiseAlert(ctx, inv, enums.AlertTypeOutOfStock,
			fmt.Sprintf("Product out of stock on %s", inv.Platform))
	case cfg.LowStockThreshold > 0 && inv.AvailableQuantity <= cfg.LowStockThreshold:
		e.raiseAlert(ctx, inv, enums.AlertTypeLowStock,
			fmt.Sprintf("Available stock %d at or below threshold %d on %s", inv.AvailableQuantity, cfg.LowStockThreshold, inv.Platform))
	}
}

func (e *evaluator) placeBlock(ctx context.Context, inv *models.PlatformInventory, reason enums.BlockReason, note string) {
	_, err := e.blockService.Block(ctx, blocks.BlockInput{
		ProductID: inv.ProductID,
		Platform:  inv.Platform,
		BlockType: enums.BlockTypeAutomatic,
		Reason:    reason,
		Notes:     &note,
	})
	if err != nil && e.logg != nil {
		e.logg.Error(ctx, "auto-block failed", err)
	}
}

// raiseAlert records an informational alert when a threshold is crossed
// but automatic blocking for it is disabled.
func (e *evaluator) raiseAlert(ctx context.Context, inv *models.PlatformInventory, kind enums.AlertType, message string) {
	alert := &models.InventoryAlert{
		ProductID: inv.ProductID,
		Platform:  inv.Platform,
		Type:      kind,
		Message:   message,
	}
	if err := e.alertRepo.Create(ctx, alert); err != nil && e.logg != nil {
		e.logg.Error(ctx, "create stock alert", err)
	}
}
