package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/mhsadiq/cartrace-backend/api/middleware"
	"github.com/mhsadiq/cartrace-backend/api/responses"
	"github.com/mhsadiq/cartrace-backend/api/validators"
	"github.com/mhsadiq/cartrace-backend/internal/tracking"
	"github.com/mhsadiq/cartrace-backend/pkg/enums"
	pkgerrors "github.com/mhsadiq/cartrace-backend/pkg/errors"
	"github.com/mhsadiq/cartrace-backend/pkg/logger"
	"github.com/mhsadiq/cartrace-backend/pkg/outbox"
)

// ScanRequest is the reader-facing payload for one RFID scan.
type ScanRequest struct {
	TagUID  string `json:"tag_uid" validate:"required,max=128"`
	Stage   string `json:"stage" validate:"required"`
	Action  string `json:"action" validate:"required"`
	OrderID *int64 `json:"order_id,omitempty" validate:"omitempty,gt=0"`
}

// Scan runs the full scan pipeline. Guard rejections map to 4xx; accepted
// scans return 200 with the per-step outcome even when a later step failed.
func Scan(svc tracking.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tracking service unavailable"))
			return
		}

		var body ScanRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		stage, err := enums.ParseStage(body.Stage)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown stage"))
			return
		}
		action, err := enums.ParseScanAction(body.Action)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown action"))
			return
		}

		result, err := svc.ProcessScan(r.Context(), tracking.ScanInput{
			TagUID:  body.TagUID,
			Stage:   stage,
			Action:  action,
			OrderID: body.OrderID,
			Actor:   actorFromContext(r),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// actorFromContext resolves the authenticated operator, if any. Device scans
// arrive unauthenticated and carry no actor.
func actorFromContext(r *http.Request) *outbox.ActorRef {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return nil
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		return nil
	}
	return &outbox.ActorRef{UserID: userID, Role: "operator"}
}
