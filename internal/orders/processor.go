package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/danmorales/channelstock-backend/internal/integrations"
	"github.com/danmorales/channelstock-backend/internal/inventory"
	"github.com/danmorales/channelstock-backend/internal/policy"
	"github.com/danmorales/channelstock-backend/pkg/db"
	"github.com/danmorales/channelstock-backend/pkg/db/models"
	"github.com/danmorales/channelstock-backend/pkg/enums"
	pkgerrors "github.com/danmorales/channelstock-backend/pkg/errors"
	"github.com/danmorales/channelstock-backend/pkg/logger"
	"github.com/danmorales/channelstock-backend/pkg/pagination"
)

// Processor runs incoming orders through the availability gate and, when
// they pass, applies the stock deduction. Every attempt leaves exactly one
// order record behind, accepted or not.
type Processor interface {
	Process(ctx context.Context, input OrderInput) (*OrderResult, error)
	GetByRef(ctx context.Context, orderRef string) (*models.OrderRecord, error)
	ListByPair(ctx context.Context, productID uuid.UUID, platform enums.Platform, params pagination.Params) (*ListResult, error)
}

// OrderInput is one order attempt from a sales channel.
type OrderInput struct {
	OrderRef    string
	CustomerRef *string
	ProductID   uuid.UUID
	Platform    enums.Platform
	Quantity    int
}

// OrderResult reports the outcome. Rejections are ordinary results with
// Accepted=false and a buyer-facing reason, not errors.
type OrderResult struct {
	Accepted    bool                `json:"accepted"`
	Reason      string              `json:"reason,omitempty"`
	Backordered int                 `json:"backordered,omitempty"`
	Record      *models.OrderRecord `json:"record"`
}

// ListResult wraps a page of order records plus the next cursor.
type ListResult struct {
	Items  []models.OrderRecord `json:"items"`
	Cursor string               `json:"cursor"`
}

type processor struct {
	client        *db.Client
	repo          Repository
	inventoryRepo inventory.Repository
	ledgerRepo    inventory.LedgerRepository
	configRepo    integrations.Repository
	evaluator     policy.Evaluator
	logg          *logger.Logger
}

// NewProcessor wires the order processor dependencies. The policy
// evaluator may be nil, which disables post-sale auto-blocking.
func NewProcessor(
	client *db.Client,
	repo Repository,
	inventoryRepo inventory.Repository,
	ledgerRepo inventory.LedgerRepository,
	configRepo integrations.Repository,
	evaluator policy.Evaluator,
	logg *logger.Logger,
) (Processor, error) {
	if client == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "db client required")
	}
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "order repository required")
	}
	if inventoryRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "inventory repository required")
	}
	if ledgerRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "ledger repository required")
	}
	if configRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "integration repository required")
	}
	return &processor{
		client:        client,
		repo:          repo,
		inventoryRepo: inventoryRepo,
		ledgerRepo:    ledgerRepo,
		configRepo:    configRepo,
		evaluator:     evaluator,
		logg:          logg,
	}, nil
}

// Process validates the attempt, re-checks availability inside the write
// transaction, and either records a rejection or deducts stock with a sale
// ledger entry. The deduction is floor-checked, so two overlapping orders
// for the last units cannot both succeed; the loser is recorded as blocked
// with an insufficient-stock reason.
func (p *processor) Process(ctx context.Context, input OrderInput) (*OrderResult, error) {
	if err := validateOrderInput(input); err != nil {
		return nil, err
	}

	cfg, err := p.configRepo.Get(ctx, input.Platform)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load platform config")
	}

	result := &OrderResult{}
	err = p.client.WithTx(ctx, func(tx *gorm.DB) error {
		row, err := p.inventoryRepo.WithTx(tx).Get(ctx, input.ProductID, input.Platform)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return p.reject(ctx, tx, input, 0, inventory.ReasonNotOnPlatform, result)
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inventory")
		}

		availability := inventory.Evaluate(row, input.Quantity)
		backordered := 0
		if !availability.CanFulfill {
			if availability.Reason != inventory.ReasonInsufficientStock || !backorderCovers(cfg, row, input.Quantity) {
				return p.reject(ctx, tx, input, row.AvailableQuantity, availability.Reason, result)
			}
			backordered = input.Quantity - row.AvailableQuantity
		}

		deduct := input.Quantity - backordered
		if deduct > 0 {
			applied, err := p.inventoryRepo.WithTx(tx).DecrementStock(ctx, input.ProductID, input.Platform, deduct)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deduct stock")
			}
			if !applied {
				// Lost the race with a concurrent order or block.
				return p.reject(ctx, tx, input, row.AvailableQuantity, inventory.ReasonInsufficientStock, result)
			}
		}

		entry := &models.InventoryTransaction{
			ProductID:     input.ProductID,
			Platform:      input.Platform,
			Type:          enums.TransactionTypeSale,
			Quantity:      deduct,
			PreviousStock: row.StockQuantity,
			NewStock:      row.StockQuantity - deduct,
			OrderRef:      &input.OrderRef,
		}
		if backordered > 0 {
			note := fmt.Sprintf("%d units backordered", backordered)
			entry.Note = &note
		}
		if err := p.ledgerRepo.WithTx(tx).Append(ctx, entry); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append sale transaction")
		}

		record := &models.OrderRecord{
			OrderRef:          input.OrderRef,
			CustomerRef:       input.CustomerRef,
			ProductID:         input.ProductID,
			Platform:          input.Platform,
			QuantityRequested: input.Quantity,
			QuantityAvailable: row.AvailableQuantity,
			QuantityFulfilled: input.Quantity,
			Status:            enums.OrderStatusConfirmed,
		}
		if err := p.repo.WithTx(tx).Create(ctx, record); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order record")
		}

		result.Accepted = true
		result.Backordered = backordered
		result.Record = record
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Accepted {
		p.evaluatePolicies(ctx, cfg, input)
	}
	return result, nil
}

// reject writes the blocked order record inside the caller's transaction.
func (p *processor) reject(ctx context.Context, tx *gorm.DB, input OrderInput, available int, reason string, result *OrderResult) error {
	record := &models.OrderRecord{
		OrderRef:          input.OrderRef,
		CustomerRef:       input.CustomerRef,
		ProductID:         input.ProductID,
		Platform:          input.Platform,
		QuantityRequested: input.Quantity,
		QuantityAvailable: available,
		Status:            enums.OrderStatusBlocked,
		BlockReason:       &reason,
	}
	if err := p.repo.WithTx(tx).Create(ctx, record); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order record")
	}
	result.Accepted = false
	result.Reason = reason
	result.Record = record
	return nil
}

// evaluatePolicies reloads the post-commit row and runs the auto-block
// rules. Failures are logged; the accepted order stands regardless.
func (p *processor) evaluatePolicies(ctx context.Context, cfg *models.PlatformIntegration, input OrderInput) {
	if p.evaluator == nil || cfg == nil {
		return
	}
	row, err := p.inventoryRepo.Get(ctx, input.ProductID, input.Platform)
	if err != nil {
		if p.logg != nil {
			p.logg.Error(ctx, "reload inventory for policy evaluation", err)
		}
		return
	}
	p.evaluator.EvaluateAfterSale(ctx, cfg, row)
}

func (p *processor) GetByRef(ctx context.Context, orderRef string) (*models.OrderRecord, error) {
	if strings.TrimSpace(orderRef) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order ref is required")
	}
	record, err := p.repo.GetByRef(ctx, orderRef)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return record, nil
}

func (p *processor) ListByPair(ctx context.Context, productID uuid.UUID, platform enums.Platform, params pagination.Params) (*ListResult, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if !platform.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid platform")
	}
	rows, next, err := p.repo.ListByPair(ctx, productID, platform, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return &ListResult{Items: rows, Cursor: next}, nil
}

// backorderCovers reports whether the platform config lets the shortfall
// ride as a backorder.
func backorderCovers(cfg *models.PlatformIntegration, row *models.PlatformInventory, qty int) bool {
	if cfg == nil || !cfg.AllowBackorders {
		return false
	}
	return qty <= row.AvailableQuantity+cfg.BackorderMaxQuantity
}

func validateOrderInput(input OrderInput) error {
	if strings.TrimSpace(input.OrderRef) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "order ref is required")
	}
	if input.ProductID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if !input.Platform.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid platform")
	}
	if input.Quantity <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be a positive integer")
	}
	return nil
}
