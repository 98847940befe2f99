package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

const (
	publishTimeout           = 5 * time.Second
	reconnectInitialInterval = 500 * time.Millisecond
	reconnectMaxInterval     = 30 * time.Second
)

// envelope is the wire form of a user-addressed event on the exchange.
type envelope struct {
	UserID uuid.UUID       `json:"user_id"`
	Type   string          `json:"type"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// Relay fans events out across API instances. Every instance binds its own
// exclusive queue to a fanout exchange, so a hire handled on one instance
// reaches sessions attached to any of them.
type Relay struct {
	url      string
	exchange string
	local    Publisher
	log      logrus.FieldLogger

	mu      sync.Mutex
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   amqp.Queue

	subscribe  func() (<-chan amqp.Delivery, error)
	newBackOff func() backoff.BackOff
}

func DialRelay(url, exchange string, local Publisher, log logrus.FieldLogger) (*Relay, error) {
	r := &Relay{
		url:        url,
		exchange:   exchange,
		local:      local,
		log:        log,
		newBackOff: reconnectBackOff,
	}
	r.subscribe = r.consumeQueue

	if err := r.connect(); err != nil {
		return nil, err
	}
	return r, nil
}

func reconnectBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = reconnectInitialInterval
	b.MaxInterval = reconnectMaxInterval
	b.MaxElapsedTime = 0
	return b
}

func (r *Relay) connect() error {
	conn, err := amqp.Dial(r.url)
	if err != nil {
		return fmt.Errorf("failed to connect to broker: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(r.exchange, amqp.ExchangeFanout, true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	q, err := ch.QueueDeclare(
		"",    // server-named
		false, // durable
		true,  // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	if err := ch.QueueBind(q.Name, "", r.exchange, false, nil); err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to bind queue: %w", err)
	}

	r.mu.Lock()
	r.conn, r.channel, r.queue = conn, ch, q
	r.mu.Unlock()
	return nil
}

// Publish sends the event to the exchange. If the broker refuses it, or the
// relay is between connections, the event still goes to this instance's
// sessions.
func (r *Relay) Publish(userID uuid.UUID, event Event) {
	body, err := encodeEnvelope(userID, event)
	if err != nil {
		r.log.WithError(err).Error("failed to encode relay envelope")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	r.mu.Lock()
	if r.channel == nil || r.channel.IsClosed() {
		err = amqp.ErrClosed
	} else {
		err = r.channel.PublishWithContext(ctx, r.exchange, "", false, false, amqp.Publishing{
			ContentType: "application/json",
			Timestamp:   time.Now(),
			Body:        body,
		})
	}
	r.mu.Unlock()

	if err != nil {
		r.log.WithError(err).WithField("user_id", userID).Warn("relay publish failed, delivering locally")
		r.local.Publish(userID, event)
	}
}

// Consume feeds events from the exchange into the local publisher until ctx
// is done. A closed delivery channel means the broker went away; the relay
// redials with backoff and only returns once ctx is done.
func (r *Relay) Consume(ctx context.Context) error {
	for {
		var msgs <-chan amqp.Delivery
		err := backoff.Retry(func() error {
			var err error
			msgs, err = r.subscribe()
			if err != nil {
				r.log.WithError(err).Warn("relay subscribe failed, retrying")
			}
			return err
		}, backoff.WithContext(r.newBackOff(), ctx))
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			return err
		}

		if r.drain(ctx, msgs) {
			return nil
		}
		r.log.Warn("relay delivery channel closed, reconnecting")
	}
}

// drain delivers messages until ctx is done (true) or msgs is closed (false).
func (r *Relay) drain(ctx context.Context, msgs <-chan amqp.Delivery) bool {
	for {
		select {
		case <-ctx.Done():
			return true
		case d, ok := <-msgs:
			if !ok {
				return false
			}
			if err := r.deliver(d.Body); err != nil {
				r.log.WithError(err).Warn("dropping malformed relay message")
			}
		}
	}
}

// consumeQueue registers a consumer on the relay queue, redialing first if
// the broker closed the channel.
func (r *Relay) consumeQueue() (<-chan amqp.Delivery, error) {
	r.mu.Lock()
	ch, q := r.channel, r.queue
	r.mu.Unlock()

	if ch == nil || ch.IsClosed() {
		_ = r.Close()
		if err := r.connect(); err != nil {
			return nil, err
		}
		r.mu.Lock()
		ch, q = r.channel, r.queue
		r.mu.Unlock()
	}

	msgs, err := ch.Consume(q.Name, "", true, true, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to register consumer: %w", err)
	}
	return msgs, nil
}

func (r *Relay) deliver(body []byte) error {
	userID, event, err := decodeEnvelope(body)
	if err != nil {
		return err
	}
	r.local.Publish(userID, event)
	return nil
}

func (r *Relay) Close() error {
	r.mu.Lock()
	conn, ch := r.conn, r.channel
	r.conn, r.channel = nil, nil
	r.mu.Unlock()

	if conn == nil {
		return nil
	}
	if err := ch.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
		_ = conn.Close()
		return err
	}
	if err := conn.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
		return err
	}
	return nil
}

func encodeEnvelope(userID uuid.UUID, event Event) ([]byte, error) {
	var data json.RawMessage
	if event.Data != nil {
		raw, err := json.Marshal(event.Data)
		if err != nil {
			return nil, err
		}
		data = raw
	}
	return json.Marshal(envelope{UserID: userID, Type: event.Type, Data: data})
}

func decodeEnvelope(body []byte) (uuid.UUID, Event, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return uuid.Nil, Event{}, err
	}
	if env.UserID == uuid.Nil || env.Type == "" {
		return uuid.Nil, Event{}, fmt.Errorf("envelope missing user or type")
	}
	event := Event{Type: env.Type}
	if len(env.Data) > 0 {
		event.Data = env.Data
	}
	return env.UserID, event, nil
}
