package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/mhsadiq/cartrace-backend/pkg/enums"
	"github.com/mhsadiq/cartrace-backend/pkg/logger"
	"github.com/mhsadiq/cartrace-backend/pkg/outbox"
)

type fakeProcessor struct {
	calls []enums.OutboxEventType
	err   error
}

func (f *fakeProcessor) Process(ctx context.Context, eventType enums.OutboxEventType, envelope outbox.PayloadEnvelope) error {
	f.calls = append(f.calls, eventType)
	return f.err
}

func newHandleService(processor envelopeProcessor) *Service {
	return &Service{
		processor: processor,
		logg:      logger.New(logger.Options{ServiceName: "analytics-worker-test", Output: io.Discard}),
	}
}

func envelopeBytes(t *testing.T) []byte {
	t.Helper()
	payload, err := json.Marshal(outbox.PayloadEnvelope{
		Version:    1,
		EventID:    "evt-1",
		OccurredAt: time.Now(),
		Data:       json.RawMessage(`{}`),
	})
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	return payload
}

func TestHandleAcksValidMessage(t *testing.T) {
	processor := &fakeProcessor{}
	service := newHandleService(processor)

	result := service.handle(context.Background(), "m1", envelopeBytes(t), map[string]string{
		"event_type": string(enums.EventScanRecorded),
	})

	if result.nack {
		t.Fatalf("expected ack for valid message")
	}
	if len(processor.calls) != 1 || processor.calls[0] != enums.EventScanRecorded {
		t.Fatalf("unexpected processor calls: %+v", processor.calls)
	}
}

func TestHandleNacksOnProcessorError(t *testing.T) {
	processor := &fakeProcessor{err: errors.New("bigquery down")}
	service := newHandleService(processor)

	result := service.handle(context.Background(), "m1", envelopeBytes(t), map[string]string{
		"event_type": string(enums.EventScanRecorded),
	})

	if !result.nack {
		t.Fatalf("expected nack when processor fails")
	}
}

func TestHandleDropsPoisonMessages(t *testing.T) {
	processor := &fakeProcessor{}
	service := newHandleService(processor)

	cases := []struct {
		name       string
		data       []byte
		attributes map[string]string
	}{
		{"missing event type", envelopeBytes(t), map[string]string{}},
		{"invalid envelope", []byte("{"), map[string]string{"event_type": string(enums.EventScanRecorded)}},
	}
	for _, tc := range cases {
		result := service.handle(context.Background(), "m1", tc.data, tc.attributes)
		if result.nack {
			t.Fatalf("%s: expected ack so the message is dropped", tc.name)
		}
	}
	if len(processor.calls) != 0 {
		t.Fatalf("processor should not run for poison messages")
	}
}
