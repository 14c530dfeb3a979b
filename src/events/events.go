package events

import (
	"context"
	"encoding/json"

	"github.com/sirupsen/logrus"
	"github.com/streadway/amqp"

	"laundry-client/src/models"
)

// StatusEvent is one order-status change published by the backend. It is
// the push alternative to the fixed-interval order polling.
type StatusEvent struct {
	OrderID     int                `json:"order_id"`
	OrderStatus models.OrderStatus `json:"order_status"`
}

// Subscriber consumes order-status events from a fanout exchange.
type Subscriber struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	log     *logrus.Logger
}

// NewSubscriber connects to the broker.
func NewSubscriber(amqpURL string, log *logrus.Logger) (*Subscriber, error) {
	if log == nil {
		log = logrus.New()
	}
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	return &Subscriber{conn: conn, channel: ch, log: log}, nil
}

// Listen binds an exclusive queue to the exchange and delivers decoded
// events until ctx is cancelled. Malformed messages are logged and
// skipped.
func (s *Subscriber) Listen(ctx context.Context, exchange string) (<-chan StatusEvent, error) {
	if err := s.channel.ExchangeDeclare(exchange, "fanout", true, false, false, false, nil); err != nil {
		return nil, err
	}
	queue, err := s.channel.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		return nil, err
	}
	if err := s.channel.QueueBind(queue.Name, "", exchange, false, nil); err != nil {
		return nil, err
	}
	deliveries, err := s.channel.Consume(queue.Name, "", true, true, false, false, nil)
	if err != nil {
		return nil, err
	}

	out := make(chan StatusEvent)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-deliveries:
				if !ok {
					return
				}
				var event StatusEvent
				if err := json.Unmarshal(msg.Body, &event); err != nil {
					s.log.WithError(err).Warn("Dropping malformed status event")
					continue
				}
				select {
				case out <- event:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// Close closes the channel and connection.
func (s *Subscriber) Close() {
	if s.channel != nil {
		s.channel.Close()
	}
	if s.conn != nil {
		s.conn.Close()
	}
}

// Publisher publishes order-status events, used by the development stub
// when a broker is configured.
type Publisher struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

// NewPublisher connects to the broker.
func NewPublisher(amqpURL string) (*Publisher, error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	return &Publisher{conn: conn, channel: ch}, nil
}

// Publish sends one status event to the exchange.
func (p *Publisher) Publish(exchange string, event StatusEvent) error {
	if err := p.channel.ExchangeDeclare(exchange, "fanout", true, false, false, false, nil); err != nil {
		return err
	}
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.channel.Publish(exchange, "", false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
	})
}

// Close closes the channel and connection.
func (p *Publisher) Close() {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
}
