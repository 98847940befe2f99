package notify

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

type capturePublisher struct {
	mu     sync.Mutex
	users  []uuid.UUID
	events []Event
}

func (c *capturePublisher) Publish(userID uuid.UUID, event Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.users = append(c.users, userID)
	c.events = append(c.events, event)
}

func (c *capturePublisher) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.events)
}

func TestEnvelope_RoundTrip(t *testing.T) {
	userID := uuid.New()
	gigID, bidID := uuid.New(), uuid.New()

	body, err := encodeEnvelope(userID, NewHiredEvent(gigID, bidID, "Logo", "hired"))
	require.NoError(t, err)

	gotUser, ev, err := decodeEnvelope(body)
	require.NoError(t, err)
	assert.Equal(t, userID, gotUser)
	assert.Equal(t, EventHired, ev.Type)

	// re-encoding the raw payload yields the same wire shape the hub sends
	out, err := json.Marshal(ev)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"hired","data":{"gig_id":"`+gigID.String()+`","gig_title":"Logo","bid_id":"`+bidID.String()+`","message":"hired"}}`, string(out))
}

func TestEnvelope_WithoutData(t *testing.T) {
	userID := uuid.New()

	body, err := encodeEnvelope(userID, Event{Type: "ping"})
	require.NoError(t, err)
	assert.NotContains(t, string(body), `"data"`)

	_, ev, err := decodeEnvelope(body)
	require.NoError(t, err)
	assert.Nil(t, ev.Data)
}

func TestDecodeEnvelope_Invalid(t *testing.T) {
	testCases := []struct {
		name string
		body string
	}{
		{"not json", "nope"},
		{"missing user", `{"type":"hired"}`},
		{"missing type", `{"user_id":"` + uuid.New().String() + `"}`},
		{"bad user", `{"user_id":"abc","type":"hired"}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := decodeEnvelope([]byte(tc.body))
			assert.Error(t, err)
		})
	}
}

func TestRelay_DeliverForwardsToLocal(t *testing.T) {
	local := &capturePublisher{}
	logger, _ := test.NewNullLogger()
	r := &Relay{local: local, log: logger}
	userID := uuid.New()

	body, err := encodeEnvelope(userID, Event{Type: EventHired, Data: map[string]string{"k": "v"}})
	require.NoError(t, err)

	require.NoError(t, r.deliver(body))
	require.Len(t, local.events, 1)
	assert.Equal(t, userID, local.users[0])
	assert.Equal(t, EventHired, local.events[0].Type)

	assert.Error(t, r.deliver([]byte("{}")))
	assert.Len(t, local.events, 1)
}

func TestRelay_Consume_ClosedDeliveriesDoNotStopGroup(t *testing.T) {
	local := &capturePublisher{}
	logger, hook := test.NewNullLogger()
	userID := uuid.New()

	body, err := encodeEnvelope(userID, Event{Type: EventHired})
	require.NoError(t, err)

	dropped := make(chan amqp.Delivery)
	close(dropped)
	live := make(chan amqp.Delivery, 1)
	live <- amqp.Delivery{Body: body}

	var calls atomic.Int32
	r := &Relay{
		local: local,
		log:   logger,
		subscribe: func() (<-chan amqp.Delivery, error) {
			switch calls.Add(1) {
			case 1:
				return dropped, nil
			case 2:
				return nil, errors.New("connection refused")
			default:
				return live, nil
			}
		},
		newBackOff: func() backoff.BackOff { return &backoff.ZeroBackOff{} },
	}

	parent, cancel := context.WithCancel(context.Background())
	defer cancel()
	g, ctx := errgroup.WithContext(parent)
	g.Go(func() error { return r.Consume(ctx) })

	require.Eventually(t, func() bool { return local.count() == 1 }, time.Second, 5*time.Millisecond)
	assert.NoError(t, ctx.Err(), "group context stays alive across a broker drop")
	assert.Equal(t, int32(3), calls.Load())

	cancel()
	require.NoError(t, g.Wait())

	var reconnects int
	for _, entry := range hook.AllEntries() {
		if entry.Level == logrus.WarnLevel && entry.Message == "relay delivery channel closed, reconnecting" {
			reconnects++
		}
	}
	assert.Equal(t, 1, reconnects)
}

func TestRelay_Consume_StopsQuietlyWhileBrokerIsDown(t *testing.T) {
	logger, _ := test.NewNullLogger()
	r := &Relay{
		local: &capturePublisher{},
		log:   logger,
		subscribe: func() (<-chan amqp.Delivery, error) {
			return nil, errors.New("connection refused")
		},
		newBackOff: func() backoff.BackOff { return backoff.NewConstantBackOff(time.Millisecond) },
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	assert.NoError(t, r.Consume(ctx))
}

func TestRelay_Publish_FallsBackWithoutChannel(t *testing.T) {
	local := &capturePublisher{}
	logger, hook := test.NewNullLogger()
	r := &Relay{local: local, log: logger}
	userID := uuid.New()

	r.Publish(userID, Event{Type: EventHired})

	require.Equal(t, 1, local.count())
	assert.Equal(t, userID, local.users[0])
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
}
