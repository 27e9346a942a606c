package tracking

import (
	"time"

	"github.com/mhsadiq/cartrace-backend/pkg/enums"
	"github.com/mhsadiq/cartrace-backend/pkg/outbox"
)

// Saga step names reported in ScanResult and metrics.
const (
	StepLocation    = "location"
	StepChain       = "chain"
	StepEvent       = "event"
	StepAssociation = "association"
)

// ScanInput carries one reader scan. OrderID is optional and only meaningful
// for component tags: it requests association with the order at this stage.
type ScanInput struct {
	TagUID  string
	Stage   enums.Stage
	Action  enums.ScanAction
	OrderID *int64
	Actor   *outbox.ActorRef
}

// StepError reports one failed saga step. Later steps still run, except
// after a failed chain submission, which ends the saga so the scan can be
// re-run; the caller sees every outcome.
type StepError struct {
	Step    string `json:"step"`
	Message string `json:"message"`
}

// ScanResult is the composed outcome of an accepted scan. A scan that passes
// validation is accepted even when individual steps fail; the failures ride
// along in StepErrors instead of masking the parts that succeeded.
type ScanResult struct {
	TagUID  string            `json:"tag_uid"`
	TagKind enums.TagKind     `json:"tag_kind"`
	Stage   enums.Stage       `json:"stage"`
	Action  enums.ScanAction  `json:"action"`
	Status  enums.StageStatus `json:"status"`

	LocationUpdated    bool    `json:"location_updated"`
	EventRecorded      bool    `json:"event_recorded"`
	Seq                int64   `json:"seq,omitempty"`
	TransactionAddress *string `json:"transaction_address,omitempty"`

	Associated           bool    `json:"associated"`
	AssociatedOrderID    *int64  `json:"associated_order_id,omitempty"`
	AssociationTxAddress *string `json:"association_transaction_address,omitempty"`

	StepErrors []StepError `json:"step_errors,omitempty"`

	ScannedAt time.Time `json:"scanned_at"`
}

// Ok reports whether every step of the saga completed.
func (r *ScanResult) Ok() bool {
	return len(r.StepErrors) == 0
}

func (r *ScanResult) addStepError(step string, err error) {
	r.StepErrors = append(r.StepErrors, StepError{Step: step, Message: err.Error()})
}

// LocationDTO is the read shape for one tracked tag.
type LocationDTO struct {
	TagUID    string    `json:"tag_uid"`
	Stage     string    `json:"stage"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StageEventDTO is the read shape for the event history surface.
type StageEventDTO struct {
	ID                 int64             `json:"id"`
	TagUID             string            `json:"tag_uid"`
	Seq                int64             `json:"seq"`
	Stage              enums.Stage       `json:"stage"`
	Status             enums.StageStatus `json:"status"`
	TransactionAddress *string           `json:"transaction_address,omitempty"`
	CreatedAt          time.Time         `json:"created_at"`
}
