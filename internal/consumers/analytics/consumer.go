// Package analytics streams stage-event facts into BigQuery.
package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	cbigquery "cloud.google.com/go/bigquery"
	"github.com/google/uuid"

	"github.com/mhsadiq/cartrace-backend/pkg/enums"
	"github.com/mhsadiq/cartrace-backend/pkg/logger"
	"github.com/mhsadiq/cartrace-backend/pkg/outbox"
	"github.com/mhsadiq/cartrace-backend/pkg/outbox/payloads"
)

const analyticsConsumerName = "analytics"

type tableInserter interface {
	InsertRows(ctx context.Context, table string, rows []any) error
}

type idempotencyChecker interface {
	CheckAndMarkProcessed(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error)
	Delete(ctx context.Context, consumer string, eventID uuid.UUID) error
}

// Consumer writes scan facts to BigQuery while honoring Redis idempotency.
type Consumer struct {
	client  tableInserter
	table   string
	manager idempotencyChecker
	logg    *logger.Logger
}

// NewConsumer builds a new analytics consumer.
func NewConsumer(client tableInserter, table string, manager idempotencyChecker, logg *logger.Logger) (*Consumer, error) {
	if client == nil {
		return nil, fmt.Errorf("bigquery client required")
	}
	if strings.TrimSpace(table) == "" {
		return nil, fmt.Errorf("bigquery table name required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		client:  client,
		table:   strings.TrimSpace(table),
		manager: manager,
		logg:    logg,
	}, nil
}

// Process ingests the outbox envelope into BigQuery if the event is supported.
func (c *Consumer) Process(ctx context.Context, eventType enums.OutboxEventType, envelope outbox.PayloadEnvelope) error {
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"event_id":   envelope.EventID,
		"event_type": eventType,
	})

	if eventType != enums.EventScanRecorded {
		c.logg.Info(logCtx, "event not handled by analytics consumer")
		return nil
	}

	if envelope.EventID == "" {
		return fmt.Errorf("event id missing")
	}
	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		return fmt.Errorf("parse event id: %w", err)
	}

	already, err := c.manager.CheckAndMarkProcessed(ctx, analyticsConsumerName, eventID)
	if err != nil {
		return fmt.Errorf("idempotency check: %w", err)
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return nil
	}

	row, err := buildRow(envelope)
	if err != nil {
		c.logg.Error(logCtx, "failed to build stage event row", err)
		_ = c.manager.Delete(ctx, analyticsConsumerName, eventID)
		return err
	}

	if err := c.client.InsertRows(ctx, c.table, []any{row}); err != nil {
		c.logg.Error(logCtx, "failed to insert stage event row", err)
		_ = c.manager.Delete(ctx, analyticsConsumerName, eventID)
		return err
	}

	c.logg.Info(logCtx, "stage event ingested")
	return nil
}

type stageEventRow struct {
	EventID            string             `bigquery:"event_id"`
	OccurredAt         time.Time          `bigquery:"occurred_at"`
	TagUID             string             `bigquery:"tag_uid"`
	TagKind            string             `bigquery:"tag_kind"`
	Stage              string             `bigquery:"stage"`
	Status             string             `bigquery:"status"`
	Seq                int64              `bigquery:"seq"`
	TransactionAddress *string            `bigquery:"transaction_address"`
	ScannedAt          time.Time          `bigquery:"scanned_at"`
	Payload            cbigquery.NullJSON `bigquery:"payload"`
}

func buildRow(envelope outbox.PayloadEnvelope) (*stageEventRow, error) {
	var scan payloads.ScanRecordedEvent
	if len(envelope.Data) == 0 {
		return nil, fmt.Errorf("payload missing")
	}
	if err := json.Unmarshal(envelope.Data, &scan); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	if scan.TagUID == "" {
		return nil, fmt.Errorf("tag uid missing in payload")
	}

	var txAddress *string
	if scan.TransactionAddress != "" {
		addr := scan.TransactionAddress
		txAddress = &addr
	}

	return &stageEventRow{
		EventID:    envelope.EventID,
		OccurredAt: envelope.OccurredAt,
		TagUID:     scan.TagUID,
		TagKind:    string(scan.TagKind),
		Stage:      string(scan.Stage),
		Status:     string(scan.Status),
		Seq:        scan.Seq,
		TransactionAddress: txAddress,
		ScannedAt:          scan.ScannedAt,
		Payload: cbigquery.NullJSON{
			Valid:   true,
			JSONVal: string(envelope.Data),
		},
	}, nil
}
