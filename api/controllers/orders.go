package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mhsadiq/cartrace-backend/api/responses"
	"github.com/mhsadiq/cartrace-backend/api/validators"
	"github.com/mhsadiq/cartrace-backend/internal/orders"
	pkgerrors "github.com/mhsadiq/cartrace-backend/pkg/errors"
	"github.com/mhsadiq/cartrace-backend/pkg/logger"
)

// CreateOrderRequest is the registration form for a vehicle order.
type CreateOrderRequest struct {
	CarRFID     string `json:"car_rfid" validate:"required,max=128"`
	Name        string `json:"name" validate:"required,max=255"`
	Description string `json:"description" validate:"max=2000"`
	Brand       string `json:"brand" validate:"max=255"`
	EngineType  string `json:"engine_type" validate:"max=255"`
	EngineCC    string `json:"engine_cc" validate:"max=64"`
	BodyType    string `json:"body_type" validate:"max=255"`
	ImageURL    string `json:"image_url" validate:"omitempty,url,max=2048"`
}

// OrderCreate registers a vehicle order for a car tag.
func OrderCreate(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		var body CreateOrderRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.CreateOrder(r.Context(), orders.CreateOrderInput{
			CarRFID:     body.CarRFID,
			Name:        body.Name,
			Description: body.Description,
			Brand:       body.Brand,
			EngineType:  body.EngineType,
			EngineCC:    body.EngineCC,
			BodyType:    body.BodyType,
			ImageURL:    body.ImageURL,
		}, actorFromContext(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// OrderList returns every registered order, newest first.
func OrderList(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.ListOrders(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// OrderDetail returns one order together with its associated components.
func OrderDetail(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := orderIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		detail, err := svc.GetOrderDetail(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

// OrderItems returns the components associated with one order.
func OrderItems(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := orderIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, err := svc.ListOrderItems(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}

// OrderByTag resolves an order from its car tag UID.
func OrderByTag(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid := strings.TrimSpace(chi.URLParam(r, "uid"))
		if uid == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "tag uid required"))
			return
		}

		order, err := svc.GetOrderByTag(r.Context(), uid)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

func orderIDParam(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "orderId")
	orderID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || orderID <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "order id must be a positive integer")
	}
	return orderID, nil
}
