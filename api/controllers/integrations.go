package controllers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"

	"github.com/danmorales/channelstock-backend/api/responses"
	"github.com/danmorales/channelstock-backend/api/validators"
	"github.com/danmorales/channelstock-backend/internal/integrations"
	"github.com/danmorales/channelstock-backend/pkg/db/models"
	pkgerrors "github.com/danmorales/channelstock-backend/pkg/errors"
	"github.com/danmorales/channelstock-backend/pkg/logger"
)

// GetIntegration returns the blocking configuration for one platform.
func GetIntegration(repo integrations.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "integration repository unavailable"))
			return
		}

		platform, err := validators.ParsePathPlatform(chi.URLParam(r, "platform"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		row, err := repo.Get(r.Context(), platform)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "no integration configured for platform"))
				return
			}
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load integration"))
			return
		}
		responses.WriteSuccess(w, row)
	}
}

type updateIntegrationRequest struct {
	AutoBlockLowStock    bool `json:"auto_block_low_stock"`
	LowStockThreshold    int  `json:"low_stock_threshold" validate:"min=0,max=100000"`
	AutoBlockOutOfStock  bool `json:"auto_block_out_of_stock"`
	AllowBackorders      bool `json:"allow_backorders"`
	BackorderMaxQuantity int  `json:"backorder_max_quantity" validate:"min=0,max=100000"`
	NotifyOnOrderBlock   bool `json:"notify_on_order_block"`
}

// UpsertIntegration creates or replaces the platform's blocking configuration.
func UpsertIntegration(repo integrations.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "integration repository unavailable"))
			return
		}

		platform, err := validators.ParsePathPlatform(chi.URLParam(r, "platform"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req updateIntegrationRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		row, err := repo.Upsert(r.Context(), &models.PlatformIntegration{
			Platform:             platform,
			AutoBlockLowStock:    req.AutoBlockLowStock,
			LowStockThreshold:    req.LowStockThreshold,
			AutoBlockOutOfStock:  req.AutoBlockOutOfStock,
			AllowBackorders:      req.AllowBackorders,
			BackorderMaxQuantity: req.BackorderMaxQuantity,
			NotifyOnOrderBlock:   req.NotifyOnOrderBlock,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save integration"))
			return
		}
		responses.WriteSuccess(w, row)
	}
}

// ListIntegrations returns every configured platform.
func ListIntegrations(repo integrations.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "integration repository unavailable"))
			return
		}

		rows, err := repo.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list integrations"))
			return
		}
		responses.WriteSuccess(w, map[string]any{"items": rows})
	}
}
