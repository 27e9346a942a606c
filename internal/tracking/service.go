package tracking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/mhsadiq/cartrace-backend/pkg/chain"
	"github.com/mhsadiq/cartrace-backend/pkg/db/models"
	"github.com/mhsadiq/cartrace-backend/pkg/enums"
	pkgerrors "github.com/mhsadiq/cartrace-backend/pkg/errors"
	"github.com/mhsadiq/cartrace-backend/pkg/logger"
	"github.com/mhsadiq/cartrace-backend/pkg/metrics"
	"github.com/mhsadiq/cartrace-backend/pkg/outbox"
	"github.com/mhsadiq/cartrace-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type tagClassifier interface {
	Lookup(ctx context.Context, tagUID string) (enums.TagKind, error)
}

type chainLedger interface {
	LogStageEvent(ctx context.Context, tagUID, stage, status string) (string, error)
	LogOrderItem(ctx context.Context, orderID int64, itemUID, stage string) (string, error)
}

// componentAssociator links a component tag to an order. Implemented by the
// orders service.
type componentAssociator interface {
	AssociateComponent(ctx context.Context, orderID int64, itemUID string, stage enums.Stage, actor *outbox.ActorRef) (*models.OrderItem, error)
	SetOrderItemTransactionAddress(ctx context.Context, itemID int64, address string) error
}

// Service validates scans and runs the dual-write saga: location upsert,
// chain submission, event append, optional order association.
type Service interface {
	ProcessScan(ctx context.Context, input ScanInput) (*ScanResult, error)
	GetCurrentLocation(ctx context.Context, tagUID string) (*LocationDTO, error)
	ListInventory(ctx context.Context) ([]LocationDTO, error)
	ListEvents(ctx context.Context, limit int) ([]StageEventDTO, error)
}

type service struct {
	repo       Repository
	classifier tagClassifier
	ledger     chainLedger
	associator componentAssociator
	tx         txRunner
	outbox     outboxPublisher
	locks      *tagLocks
	metrics    *metrics.TrackingMetrics
	logg       *logger.Logger
}

// ServiceParams bundles the dependencies required to build a tracking service.
type ServiceParams struct {
	Repo       Repository
	Classifier tagClassifier
	Ledger     chainLedger
	Associator componentAssociator
	Tx         txRunner
	Outbox     outboxPublisher
	Metrics    *metrics.TrackingMetrics
	Logger     *logger.Logger
}

// NewService builds the tracking service with the provided dependencies.
// Metrics may be nil.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("tracking repository required")
	}
	if params.Classifier == nil {
		return nil, fmt.Errorf("tag classifier required")
	}
	if params.Ledger == nil {
		return nil, fmt.Errorf("chain ledger required")
	}
	if params.Associator == nil {
		return nil, fmt.Errorf("component associator required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:       params.Repo,
		classifier: params.Classifier,
		ledger:     params.Ledger,
		associator: params.Associator,
		tx:         params.Tx,
		outbox:     params.Outbox,
		locks:      newTagLocks(),
		metrics:    params.Metrics,
		logg:       params.Logger,
	}, nil
}

// ProcessScan validates the scan and, when accepted, runs the saga steps.
// Steps do not roll each other back: a failed chain submission leaves the
// location update in place but skips the event append and association, so
// the same scan can be re-run once the chain is reachable. An appended
// event would trip the re-entry guard and block that re-run.
func (s *service) ProcessScan(ctx context.Context, input ScanInput) (*ScanResult, error) {
	tagUID := strings.TrimSpace(input.TagUID)
	if tagUID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tag uid required")
	}
	if !input.Stage.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid stage %q", input.Stage))
	}
	if !input.Action.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid scan action %q", input.Action))
	}

	release := s.locks.Acquire(tagUID)
	defer release()

	ctx = s.logg.WithTagUID(ctx, tagUID)
	ctx = s.logg.WithFields(ctx, map[string]any{
		"stage":  string(input.Stage),
		"action": string(input.Action),
	})

	kind, err := s.classifier.Lookup(ctx, tagUID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "classify tag")
	}

	last := SeedEvent(tagUID)
	if lastEvent, err := s.repo.LastStageEvent(ctx, tagUID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load last stage event")
	} else if lastEvent != nil {
		last = *lastEvent
	}

	if err := Validate(kind, last, input.Stage, input.Action); err != nil {
		s.metrics.IncRejected(string(input.Stage), rejectionReason(err))
		return nil, err
	}
	s.metrics.IncAccepted(string(input.Stage), string(input.Action))

	result := &ScanResult{
		TagUID:    tagUID,
		TagKind:   kind,
		Stage:     input.Stage,
		Action:    input.Action,
		Status:    input.Action.StatusFor(),
		ScannedAt: time.Now().UTC(),
	}

	s.updateLocation(ctx, input, result)
	s.submitStageEvent(ctx, result)
	if result.TransactionAddress != nil {
		s.recordStageEvent(ctx, input, result)
		s.associate(ctx, input, result)
	}

	if !result.Ok() {
		var combined error
		for _, stepErr := range result.StepErrors {
			combined = multierr.Append(combined, fmt.Errorf("%s: %s", stepErr.Step, stepErr.Message))
		}
		s.logg.Error(ctx, "scan processed with step failures", combined)
	} else {
		s.logg.Info(ctx, "scan processed")
	}

	return result, nil
}

func (s *service) updateLocation(ctx context.Context, input ScanInput, result *ScanResult) {
	stage := ""
	if input.Action == enums.ScanActionEntry {
		stage = string(input.Stage)
	}

	if err := s.repo.UpsertLocation(ctx, result.TagUID, stage); err != nil {
		s.metrics.IncStepFailure(StepLocation)
		result.addStepError(StepLocation, err)
		return
	}
	result.LocationUpdated = true
}

func (s *service) submitStageEvent(ctx context.Context, result *ScanResult) {
	start := time.Now()
	txHash, err := s.ledger.LogStageEvent(ctx, result.TagUID, string(result.Stage), string(result.Status))
	s.metrics.ObserveChainLatency(chain.MethodLogStageEvent, time.Since(start))
	if err != nil {
		s.metrics.IncStepFailure(StepChain)
		result.addStepError(StepChain, err)
		return
	}
	result.TransactionAddress = &txHash
}

func (s *service) recordStageEvent(ctx context.Context, input ScanInput, result *ScanResult) {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		seq, err := repo.NextSeq(ctx, result.TagUID)
		if err != nil {
			return err
		}

		event := models.StageEvent{
			TagUID:             result.TagUID,
			Seq:                seq,
			Stage:              result.Stage,
			Status:             result.Status,
			TransactionAddress: result.TransactionAddress,
		}
		if err := repo.AppendStageEvent(ctx, &event); err != nil {
			return err
		}
		result.Seq = seq

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventScanRecorded,
			AggregateType: enums.AggregateStageEvent,
			AggregateID:   result.TagUID,
			Version:       1,
			Actor:         input.Actor,
			Data: payloads.ScanRecordedEvent{
				TagUID:             result.TagUID,
				TagKind:            result.TagKind,
				Stage:              result.Stage,
				Status:             result.Status,
				Seq:                seq,
				TransactionAddress: *result.TransactionAddress,
				ScannedAt:          result.ScannedAt,
			},
		})
	})
	if err != nil {
		s.metrics.IncStepFailure(StepEvent)
		result.addStepError(StepEvent, err)
		result.Seq = 0
		return
	}
	result.EventRecorded = true
}

func (s *service) associate(ctx context.Context, input ScanInput, result *ScanResult) {
	if input.OrderID == nil {
		return
	}
	if result.TagKind == enums.TagKindOrder {
		result.addStepError(StepAssociation, errors.New("order tag cannot be assigned as a component"))
		return
	}

	item, err := s.associator.AssociateComponent(ctx, *input.OrderID, result.TagUID, result.Stage, input.Actor)
	if err != nil {
		s.metrics.IncStepFailure(StepAssociation)
		result.addStepError(StepAssociation, err)
		return
	}
	result.Associated = true
	result.AssociatedOrderID = input.OrderID

	start := time.Now()
	txHash, err := s.ledger.LogOrderItem(ctx, *input.OrderID, result.TagUID, string(result.Stage))
	s.metrics.ObserveChainLatency(chain.MethodLogOrderItem, time.Since(start))
	if err != nil {
		s.metrics.IncStepFailure(StepChain)
		result.addStepError(StepChain, fmt.Errorf("order item submission: %w", err))
		return
	}
	result.AssociationTxAddress = &txHash

	if err := s.associator.SetOrderItemTransactionAddress(ctx, item.ID, txHash); err != nil {
		s.metrics.IncStepFailure(StepAssociation)
		result.addStepError(StepAssociation, fmt.Errorf("backfill transaction address: %w", err))
	}
}

// GetCurrentLocation returns where the tag currently is. Tags that exited,
// and tags never scanned, report an empty stage.
func (s *service) GetCurrentLocation(ctx context.Context, tagUID string) (*LocationDTO, error) {
	location, err := s.repo.FindLocation(ctx, tagUID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &LocationDTO{TagUID: tagUID}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load location")
	}
	dto := locationDTO(*location)
	return &dto, nil
}

func (s *service) ListInventory(ctx context.Context) ([]LocationDTO, error) {
	locations, err := s.repo.ListLocations(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list locations")
	}

	out := make([]LocationDTO, 0, len(locations))
	for _, location := range locations {
		out = append(out, locationDTO(location))
	}
	return out, nil
}

func (s *service) ListEvents(ctx context.Context, limit int) ([]StageEventDTO, error) {
	events, err := s.repo.ListEvents(ctx, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list stage events")
	}

	out := make([]StageEventDTO, 0, len(events))
	for _, event := range events {
		out = append(out, StageEventDTO{
			ID:                 event.ID,
			TagUID:             event.TagUID,
			Seq:                event.Seq,
			Stage:              event.Stage,
			Status:             event.Status,
			TransactionAddress: event.TransactionAddress,
			CreatedAt:          event.CreatedAt,
		})
	}
	return out, nil
}

func locationDTO(location models.ItemLocation) LocationDTO {
	return LocationDTO{
		TagUID:    location.TagUID,
		Stage:     location.Stage,
		UpdatedAt: location.UpdatedAt,
	}
}

func rejectionReason(err error) string {
	typed := pkgerrors.As(err)
	if typed == nil {
		return "unknown"
	}
	msg := typed.Message()
	switch {
	case strings.Contains(msg, "without a matching entry"):
		return "exit_without_entry"
	case strings.Contains(msg, "while still present"):
		return "re_entry_without_exit"
	case strings.Contains(msg, "advance one step"):
		return "stage_out_of_sequence"
	default:
		return "invalid"
	}
}
