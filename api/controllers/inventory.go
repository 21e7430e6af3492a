package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/danmorales/channelstock-backend/api/responses"
	"github.com/danmorales/channelstock-backend/api/validators"
	"github.com/danmorales/channelstock-backend/internal/blocks"
	"github.com/danmorales/channelstock-backend/internal/inventory"
	"github.com/danmorales/channelstock-backend/pkg/enums"
	pkgerrors "github.com/danmorales/channelstock-backend/pkg/errors"
	"github.com/danmorales/channelstock-backend/pkg/logger"
	"github.com/danmorales/channelstock-backend/pkg/pagination"
)

func pairParams(r *http.Request) (uuid.UUID, enums.Platform, error) {
	platform, err := validators.ParsePathPlatform(chi.URLParam(r, "platform"))
	if err != nil {
		return uuid.Nil, "", err
	}
	productID, err := validators.ParsePathUUID(chi.URLParam(r, "productId"), "productId")
	if err != nil {
		return uuid.Nil, "", err
	}
	return productID, platform, nil
}

// CheckAvailability answers whether an order of the requested quantity
// could be fulfilled right now. Read-only.
func CheckAvailability(checker *inventory.Checker, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if checker == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "availability checker unavailable"))
			return
		}

		productID, platform, err := pairParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		qty, err := validators.ParseQueryInt(r, "quantity", 1, 1, 1_000_000)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := checker.CheckOrderAvailability(r.Context(), productID, platform, qty)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

type blockRequest struct {
	BlockType       string     `json:"block_type" validate:"required"`
	Reason          string     `json:"reason" validate:"required"`
	Notes           *string    `json:"notes,omitempty" validate:"omitempty,max=500"`
	AutoUnblockDate *time.Time `json:"auto_unblock_date,omitempty"`
}

// BlockOrders places an order block on the pair.
func BlockOrders(svc blocks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "block service unavailable"))
			return
		}

		productID, platform, err := pairParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req blockRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		blockType, err := enums.ParseBlockType(req.BlockType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid block type"))
			return
		}
		reason, err := enums.ParseBlockReason(req.Reason)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid block reason"))
			return
		}

		block, err := svc.Block(r.Context(), blocks.BlockInput{
			ProductID:       productID,
			Platform:        platform,
			BlockType:       blockType,
			Reason:          reason,
			Notes:           req.Notes,
			AutoUnblockDate: req.AutoUnblockDate,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, block)
	}
}

type unblockRequest struct {
	Note *string `json:"note,omitempty" validate:"omitempty,max=500"`
}

// UnblockOrders lifts the block on the pair. Safe to repeat.
func UnblockOrders(svc blocks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "block service unavailable"))
			return
		}

		productID, platform, err := pairParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req unblockRequest
		if r.ContentLength > 0 {
			if err := validators.DecodeJSONBody(r, &req); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		result, err := svc.Unblock(r.Context(), blocks.UnblockInput{
			ProductID: productID,
			Platform:  platform,
			Note:      req.Note,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// BlockHistory lists past and present block episodes for the pair.
func BlockHistory(svc blocks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "block service unavailable"))
			return
		}

		productID, platform, err := pairParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", 50, 1, 200)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		history, err := svc.History(r.Context(), productID, platform, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"items": history})
	}
}

// ListTransactions pages through the stock-change ledger for the pair.
func ListTransactions(ledger inventory.LedgerRepository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ledger == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ledger unavailable"))
			return
		}

		productID, platform, err := pairParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cursor := strings.TrimSpace(r.URL.Query().Get("cursor"))
		if _, err := pagination.ParseCursor(cursor); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor"))
			return
		}

		rows, next, err := ledger.ListByPair(r.Context(), productID, platform, pagination.Params{
			Limit:  limit,
			Cursor: cursor,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list transactions"))
			return
		}
		responses.WriteSuccess(w, map[string]any{"items": rows, "cursor": next})
	}
}
