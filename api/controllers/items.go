package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mhsadiq/cartrace-backend/api/responses"
	"github.com/mhsadiq/cartrace-backend/internal/items"
	pkgerrors "github.com/mhsadiq/cartrace-backend/pkg/errors"
	"github.com/mhsadiq/cartrace-backend/pkg/logger"
)

// ItemDetail returns registry info, current location, and order linkage for one tag.
func ItemDetail(svc *items.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid := strings.TrimSpace(chi.URLParam(r, "uid"))
		if uid == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "item uid required"))
			return
		}

		info, err := svc.GetItem(r.Context(), uid)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, info)
	}
}
