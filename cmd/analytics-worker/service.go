package main

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"

	"github.com/mhsadiq/cartrace-backend/pkg/enums"
	"github.com/mhsadiq/cartrace-backend/pkg/logger"
	"github.com/mhsadiq/cartrace-backend/pkg/outbox"
)

type envelopeProcessor interface {
	Process(ctx context.Context, eventType enums.OutboxEventType, envelope outbox.PayloadEnvelope) error
}

// Service drains the tracking subscription and feeds each envelope to the
// analytics consumer. Malformed messages are acked so they do not poison
// the subscription; processor failures are nacked for redelivery.
type Service struct {
	subscription *gcppubsub.Subscriber
	processor    envelopeProcessor
	logg         *logger.Logger
}

func NewService(subscription *gcppubsub.Subscriber, processor envelopeProcessor, logg *logger.Logger) (*Service, error) {
	if subscription == nil {
		return nil, errors.New("tracking subscription is required")
	}
	if processor == nil {
		return nil, errors.New("envelope processor is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}
	return &Service{
		subscription: subscription,
		processor:    processor,
		logg:         logg,
	}, nil
}

type processResult struct {
	nack bool
}

// Run consumes messages until the context is canceled.
func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	return s.subscription.Receive(ctx, func(innerCtx context.Context, msg *gcppubsub.Message) {
		if s.handle(innerCtx, msg.ID, msg.Data, msg.Attributes).nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

func (s *Service) handle(ctx context.Context, messageID string, data []byte, attributes map[string]string) processResult {
	fields := map[string]any{"message_id": messageID}
	logCtx := s.logg.WithFields(ctx, fields)

	eventType := enums.OutboxEventType(attributes["event_type"])
	if eventType == "" {
		s.logg.Warn(logCtx, "message missing event_type attribute")
		return processResult{}
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		fields["error"] = err.Error()
		s.logg.Warn(s.logg.WithFields(ctx, fields), "invalid event envelope")
		return processResult{}
	}

	fields["event_id"] = envelope.EventID
	fields["event_type"] = eventType
	fields["occurred_at"] = envelope.OccurredAt.Format(time.RFC3339Nano)
	logCtx = s.logg.WithFields(ctx, fields)

	if err := s.processor.Process(logCtx, eventType, envelope); err != nil {
		s.logg.Error(logCtx, "failed to process event", err)
		return processResult{nack: true}
	}

	return processResult{}
}
