package notifier

import (
	"context"
	"encoding/json"
	"io"
	"testing"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridersroast/motocafe-backend/pkg/enums"
	"github.com/ridersroast/motocafe-backend/pkg/logger"
	"github.com/ridersroast/motocafe-backend/pkg/outbox/payloads"
)

type fakeTopic struct {
	messages []*gcppubsub.Message
	err      error
}

func (f *fakeTopic) Publish(_ context.Context, msg *gcppubsub.Message) resultGetter {
	f.messages = append(f.messages, msg)
	return fakeResult{err: f.err}
}

type fakeResult struct {
	err error
}

func (r fakeResult) Get(context.Context) (string, error) {
	return "msg-1", r.err
}

func TestPubSubPublishSetsAttributes(t *testing.T) {
	topic := &fakeTopic{}
	pub := &PubSub{
		topic:   topic,
		logger:  logger.New(logger.Options{ServiceName: "notifier-test", Output: io.Discard}),
		timeout: defaultPublishTimeout,
	}

	err := pub.Publish(context.Background(), enums.EventOrderPaid, payloads.OrderPaidEvent{OrderID: 12})
	require.NoError(t, err)
	require.Len(t, topic.messages, 1)

	msg := topic.messages[0]
	assert.Equal(t, string(enums.EventOrderPaid), msg.Attributes["event_type"])

	var decoded payloads.OrderPaidEvent
	require.NoError(t, json.Unmarshal(msg.Data, &decoded))
	assert.EqualValues(t, 12, decoded.OrderID)
}

func TestNoOpPublish(t *testing.T) {
	var pub Publisher = NoOp{}
	assert.NoError(t, pub.Publish(context.Background(), enums.EventOrderPaid, nil))
}
