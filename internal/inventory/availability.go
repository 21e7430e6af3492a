package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/danmorales/channelstock-backend/pkg/db/models"
	"github.com/danmorales/channelstock-backend/pkg/enums"
	pkgerrors "github.com/danmorales/channelstock-backend/pkg/errors"
)

const (
	// ReasonNotOnPlatform is reported when no inventory row exists for the
	// pair. A missing row is an expected business state, not a failure.
	ReasonNotOnPlatform = "Product not found on platform"
	// ReasonInsufficientStock is reported when the row holds fewer
	// available units than requested.
	ReasonInsufficientStock = "Insufficient stock"
	// ReasonGenericBlock is the fallback when a block carries no reason.
	ReasonGenericBlock = "Order temporarily blocked"
)

// AvailabilityResult is the outcome of a fulfillability check. Negative
// outcomes are ordinary values; callers display Reason to the buyer.
// EstimatedRestock echoes the auto-unblock date as a hint; nothing
// guarantees the block actually lifts then.
type AvailabilityResult struct {
	CanFulfill        bool       `json:"can_fulfill"`
	Reason            string     `json:"reason,omitempty"`
	AvailableQuantity int        `json:"available_quantity"`
	RequestedQuantity int        `json:"requested_quantity"`
	EstimatedRestock  *time.Time `json:"estimated_restock,omitempty"`
}

// Checker answers whether an order can be fulfilled. Pure read; it never
// mutates inventory.
type Checker struct {
	repo Repository
}

// NewChecker builds an availability checker over the inventory repository.
func NewChecker(repo Repository) (*Checker, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "inventory repository required")
	}
	return &Checker{repo: repo}, nil
}

// CheckOrderAvailability decides fulfillability in strict order: an active
// block wins over any stock level, then the available quantity is compared
// against the request.
func (c *Checker) CheckOrderAvailability(ctx context.Context, productID uuid.UUID, platform enums.Platform, qty int) (*AvailabilityResult, error) {
	if qty <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be a positive integer")
	}
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if !platform.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown platform")
	}

	row, err := c.repo.Get(ctx, productID, platform)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &AvailabilityResult{
				CanFulfill:        false,
				Reason:            ReasonNotOnPlatform,
				RequestedQuantity: qty,
			}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inventory row")
	}

	return Evaluate(row, qty), nil
}

// Evaluate applies the availability decision to an already-loaded row.
// The order processor reuses it inside its transaction.
func Evaluate(row *models.PlatformInventory, qty int) *AvailabilityResult {
	result := &AvailabilityResult{
		AvailableQuantity: row.AvailableQuantity,
		RequestedQuantity: qty,
		EstimatedRestock:  row.AutoUnblockDate,
	}

	if row.IsOrderBlocked {
		result.Reason = ReasonGenericBlock
		if row.OrderBlockReason != nil && *row.OrderBlockReason != "" {
			result.Reason = string(*row.OrderBlockReason)
		}
		return result
	}

	if row.AvailableQuantity >= qty {
		result.CanFulfill = true
		return result
	}

	result.Reason = ReasonInsufficientStock
	return result
}
