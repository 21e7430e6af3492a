package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/danmorales/channelstock-backend/api/responses"
	"github.com/danmorales/channelstock-backend/api/validators"
	"github.com/danmorales/channelstock-backend/internal/orders"
	"github.com/danmorales/channelstock-backend/pkg/enums"
	pkgerrors "github.com/danmorales/channelstock-backend/pkg/errors"
	"github.com/danmorales/channelstock-backend/pkg/logger"
	"github.com/danmorales/channelstock-backend/pkg/pagination"
)

type processOrderRequest struct {
	OrderRef    string  `json:"order_ref" validate:"required,max=120"`
	CustomerRef *string `json:"customer_ref,omitempty" validate:"omitempty,max=120"`
	ProductID   string  `json:"product_id" validate:"required,uuid"`
	Platform    string  `json:"platform" validate:"required"`
	Quantity    int     `json:"quantity" validate:"required,min=1"`
}

// ProcessOrder accepts or rejects one order attempt. Rejections come back
// as 200s with accepted=false; the buyer-facing reason rides in the body.
func ProcessOrder(proc orders.Processor, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if proc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order processor unavailable"))
			return
		}

		var req processOrderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		productID, err := uuid.Parse(req.ProductID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id"))
			return
		}
		platform, err := enums.ParsePlatform(req.Platform)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown platform"))
			return
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithPlatform(ctx, string(platform))
			ctx = logg.WithProductID(ctx, productID.String())
		}

		result, err := proc.Process(ctx, orders.OrderInput{
			OrderRef:    req.OrderRef,
			CustomerRef: req.CustomerRef,
			ProductID:   productID,
			Platform:    platform,
			Quantity:    req.Quantity,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		status := http.StatusCreated
		if !result.Accepted {
			status = http.StatusOK
		}
		responses.WriteSuccessStatus(w, status, result)
	}
}

// OrderDetail returns the most recent record for an order reference.
func OrderDetail(proc orders.Processor, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if proc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order processor unavailable"))
			return
		}

		orderRef := strings.TrimSpace(chi.URLParam(r, "orderRef"))
		record, err := proc.GetByRef(r.Context(), orderRef)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, record)
	}
}

// ListOrders pages through order records for one product and platform.
func ListOrders(proc orders.Processor, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if proc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order processor unavailable"))
			return
		}

		productID, err := validators.ParsePathUUID(r.URL.Query().Get("productId"), "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		platform, err := validators.ParsePathPlatform(r.URL.Query().Get("platform"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := proc.ListByPair(r.Context(), productID, platform, pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
