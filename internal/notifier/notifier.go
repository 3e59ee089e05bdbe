package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"

	"github.com/ridersroast/motocafe-backend/pkg/enums"
	"github.com/ridersroast/motocafe-backend/pkg/logger"
)

// Publisher pushes live order updates to whoever is listening. The durable
// channel is the outbox; this one is best effort and loss here is acceptable.
type Publisher interface {
	Publish(ctx context.Context, event enums.OutboxEventType, payload any) error
}

const defaultPublishTimeout = 10 * time.Second

type topicPublisher interface {
	Publish(ctx context.Context, msg *gcppubsub.Message) resultGetter
}

type resultGetter interface {
	Get(ctx context.Context) (string, error)
}

// PubSub publishes updates to the orders topic.
type PubSub struct {
	topic   topicPublisher
	logger  *logger.Logger
	timeout time.Duration
}

// NewPubSub wraps an orders-topic publisher handle.
func NewPubSub(topic *gcppubsub.Publisher, log *logger.Logger) (*PubSub, error) {
	if topic == nil {
		return nil, errors.New("topic publisher is required")
	}
	if log == nil {
		return nil, errors.New("logger is required")
	}
	return &PubSub{
		topic:   gcpTopic{topic},
		logger:  log,
		timeout: defaultPublishTimeout,
	}, nil
}

func (p *PubSub) Publish(ctx context.Context, event enums.OutboxEventType, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", event, err)
	}

	msg := &gcppubsub.Message{
		Data: data,
		Attributes: map[string]string{
			"event_type": string(event),
			"emitted_at": time.Now().UTC().Format(time.RFC3339Nano),
		},
	}

	publishCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	if _, err := p.topic.Publish(publishCtx, msg).Get(publishCtx); err != nil {
		return fmt.Errorf("publish %s: %w", event, err)
	}

	p.logger.Info(p.logger.WithField(ctx, "event_type", string(event)), "live update published")
	return nil
}

type gcpTopic struct {
	pub *gcppubsub.Publisher
}

func (t gcpTopic) Publish(ctx context.Context, msg *gcppubsub.Message) resultGetter {
	return t.pub.Publish(ctx, msg)
}

// NoOp drops every update. Used in tests and when Pub/Sub is not configured.
type NoOp struct{}

func (NoOp) Publish(context.Context, enums.OutboxEventType, any) error {
	return nil
}
