package blocks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/danmorales/channelstock-backend/internal/alerts"
	"github.com/danmorales/channelstock-backend/internal/integrations"
	"github.com/danmorales/channelstock-backend/internal/inventory"
	"github.com/danmorales/channelstock-backend/pkg/db"
	"github.com/danmorales/channelstock-backend/pkg/db/models"
	"github.com/danmorales/channelstock-backend/pkg/enums"
	pkgerrors "github.com/danmorales/channelstock-backend/pkg/errors"
	"github.com/danmorales/channelstock-backend/pkg/logger"
)

// Service places and lifts order blocks on (product, platform) pairs. A
// block stops new orders from being accepted without touching stock counts.
type Service interface {
	Block(ctx context.Context, input BlockInput) (*models.OrderBlock, error)
	Unblock(ctx context.Context, input UnblockInput) (*UnblockResult, error)
	Active(ctx context.Context, productID uuid.UUID, platform enums.Platform) (*models.OrderBlock, error)
	History(ctx context.Context, productID uuid.UUID, platform enums.Platform, limit int) ([]models.OrderBlock, error)
}

// BlockInput carries everything needed to open a block episode.
type BlockInput struct {
	ProductID       uuid.UUID
	Platform        enums.Platform
	BlockType       enums.BlockType
	Reason          enums.BlockReason
	Notes           *string
	AutoUnblockDate *time.Time
}

// UnblockInput identifies the pair to release. Note is recorded on the
// closed block rows' audit trail via the unblock alert message.
type UnblockInput struct {
	ProductID uuid.UUID
	Platform  enums.Platform
	Note      *string
}

// UnblockResult reports whether the call actually lifted anything.
// Releasing an already-open pair succeeds without side effects.
type UnblockResult struct {
	Released     bool  `json:"released"`
	ClosedBlocks int64 `json:"closed_blocks"`
}

type service struct {
	client        *db.Client
	repo          Repository
	inventoryRepo inventory.Repository
	alertRepo     alerts.Repository
	configRepo    integrations.Repository
	logg          *logger.Logger
	now           func() time.Time
}

// NewService wires the block service dependencies.
func NewService(
	client *db.Client,
	repo Repository,
	inventoryRepo inventory.Repository,
	alertRepo alerts.Repository,
	configRepo integrations.Repository,
	logg *logger.Logger,
) (Service, error) {
	if client == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "db client required")
	}
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "block repository required")
	}
	if inventoryRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "inventory repository required")
	}
	if alertRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "alert repository required")
	}
	if configRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "integration repository required")
	}
	return &service{
		client:        client,
		repo:          repo,
		inventoryRepo: inventoryRepo,
		alertRepo:     alertRepo,
		configRepo:    configRepo,
		logg:          logg,
		now:           time.Now,
	}, nil
}

// Block opens a block episode for the pair. Any prior active block is
// closed first so the pair never carries two active rows, and the
// inventory flags move in the same transaction as the block insert.
func (s *service) Block(ctx context.Context, input BlockInput) (*models.OrderBlock, error) {
	if err := validateBlockInput(input); err != nil {
		return nil, err
	}

	if _, err := s.inventoryRepo.Get(ctx, input.ProductID, input.Platform); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "inventory not tracked for product on platform")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inventory")
	}

	now := s.now().UTC()
	block := &models.OrderBlock{
		ProductID: input.ProductID,
		Platform:  input.Platform,
		BlockType: input.BlockType,
		Reason:    input.Reason,
		Notes:     input.Notes,
		BlockDate: now,
		IsActive:  true,
	}

	err := s.client.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.repo.WithTx(tx).DeactivateActive(ctx, input.ProductID, input.Platform, now); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "close prior blocks")
		}
		if err := s.repo.WithTx(tx).Create(ctx, block); err != nil {
			if db.IsUniqueViolation(err, "uq_order_blocks_single_active") {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "block already active for product on platform")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create block")
		}
		if err := s.inventoryRepo.WithTx(tx).SetBlock(ctx, input.ProductID, input.Platform, input.Reason, now, input.AutoUnblockDate); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "flag inventory blocked")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifyBlocked(ctx, block)
	return block, nil
}

// Unblock lifts the block on the pair. Calling it on an unblocked pair is
// a no-op that still succeeds, so retries and overlapping sweeps are safe.
func (s *service) Unblock(ctx context.Context, input UnblockInput) (*UnblockResult, error) {
	if err := validatePair(input.ProductID, input.Platform); err != nil {
		return nil, err
	}

	row, err := s.inventoryRepo.Get(ctx, input.ProductID, input.Platform)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "inventory not tracked for product on platform")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inventory")
	}

	now := s.now().UTC()
	result := &UnblockResult{}
	err = s.client.WithTx(ctx, func(tx *gorm.DB) error {
		closed, err := s.repo.WithTx(tx).DeactivateActive(ctx, input.ProductID, input.Platform, now)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "close blocks")
		}
		result.ClosedBlocks = closed
		result.Released = closed > 0 || row.IsOrderBlocked
		if !result.Released {
			return nil
		}
		if err := s.inventoryRepo.WithTx(tx).ClearBlock(ctx, input.ProductID, input.Platform); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear inventory flags")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Released {
		s.notifyUnblocked(ctx, input)
	}
	return result, nil
}

func (s *service) Active(ctx context.Context, productID uuid.UUID, platform enums.Platform) (*models.OrderBlock, error) {
	if err := validatePair(productID, platform); err != nil {
		return nil, err
	}
	block, err := s.repo.FindActive(ctx, productID, platform)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no active block for product on platform")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load active block")
	}
	return block, nil
}

func (s *service) History(ctx context.Context, productID uuid.UUID, platform enums.Platform, limit int) ([]models.OrderBlock, error) {
	if err := validatePair(productID, platform); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListByPair(ctx, productID, platform, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list blocks")
	}
	return rows, nil
}

// notifyBlocked writes the dashboard alert after the block commits. Alert
// failures are logged and swallowed so a notification outage cannot undo
// an applied block.
func (s *service) notifyBlocked(ctx context.Context, block *models.OrderBlock) {
	cfg, err := s.configRepo.Get(ctx, block.Platform)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logError(ctx, "load integration config for block alert", err)
		return
	}
	if cfg != nil && !cfg.NotifyOnOrderBlock {
		return
	}

	message := fmt.Sprintf("Orders blocked on %s: %s", block.Platform, block.Reason.Label())
	if block.Notes != nil && *block.Notes != "" {
		message = fmt.Sprintf("%s (%s)", message, *block.Notes)
	}
	alert := &models.InventoryAlert{
		ProductID: block.ProductID,
		Platform:  block.Platform,
		Type:      enums.AlertTypeOrderBlocked,
		Message:   message,
	}
	if err := s.alertRepo.Create(ctx, alert); err != nil {
		s.logError(ctx, "create order blocked alert", err)
	}
}

func (s *service) notifyUnblocked(ctx context.Context, input UnblockInput) {
	message := fmt.Sprintf("Orders unblocked on %s", input.Platform)
	if input.Note != nil && *input.Note != "" {
		message = fmt.Sprintf("%s (%s)", message, *input.Note)
	}
	alert := &models.InventoryAlert{
		ProductID: input.ProductID,
		Platform:  input.Platform,
		Type:      enums.AlertTypeOrderUnblocked,
		Message:   message,
	}
	if err := s.alertRepo.Create(ctx, alert); err != nil {
		s.logError(ctx, "create order unblocked alert", err)
	}
}

func (s *service) logError(ctx context.Context, msg string, err error) {
	if s.logg == nil {
		return
	}
	s.logg.Error(ctx, msg, err)
}

func validateBlockInput(input BlockInput) error {
	if err := validatePair(input.ProductID, input.Platform); err != nil {
		return err
	}
	if !input.BlockType.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid block type")
	}
	if !input.Reason.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid block reason")
	}
	if input.Reason == enums.BlockReasonCustom && (input.Notes == nil || *input.Notes == "") {
		return pkgerrors.New(pkgerrors.CodeValidation, "custom block reason requires notes")
	}
	return nil
}

func validatePair(productID uuid.UUID, platform enums.Platform) error {
	if productID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if !platform.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid platform")
	}
	return nil
}
