package notification

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

// AMQPSender publishes messages to a durable RabbitMQ topic exchange with
// routing key "verification.code.<channel>".
type AMQPSender struct {
	mu       sync.Mutex
	conn     *amqp091.Connection
	channel  *amqp091.Channel
	exchange string
	now      func() time.Time
}

// NewAMQPSender dials RabbitMQ and declares the exchange.
func NewAMQPSender(rawURL, exchange string) (*AMQPSender, error) {
	cleanURL, err := sanitizeAMQPURL(rawURL)
	if err != nil {
		return nil, err
	}
	if exchange == "" {
		return nil, fmt.Errorf("amqp exchange is required")
	}

	conn, err := amqp091.Dial(cleanURL)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}
	channel, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open amqp channel: %w", err)
	}
	if err := channel.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = channel.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	return &AMQPSender{conn: conn, channel: channel, exchange: exchange, now: time.Now}, nil
}

func (s *AMQPSender) Send(ctx context.Context, msg Message) Result {
	payload, err := encode(msg, s.now())
	if err != nil {
		return failed(fmt.Errorf("encode message: %w", err))
	}
	// amqp091 channels are not safe for concurrent publishes.
	s.mu.Lock()
	defer s.mu.Unlock()
	err = s.channel.PublishWithContext(ctx, s.exchange, routingKey(msg.Channel), false, false, amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		MessageId:    msg.ApplicantID + ":" + s.now().UTC().Format(time.RFC3339Nano),
		Timestamp:    s.now(),
		Body:         payload,
	})
	if err != nil {
		return failed(fmt.Errorf("publish to %s: %w", s.exchange, err))
	}
	return ok()
}

// Close closes the channel and connection.
func (s *AMQPSender) Close() {
	if s.channel != nil {
		_ = s.channel.Close()
	}
	if s.conn != nil {
		_ = s.conn.Close()
	}
}

func sanitizeAMQPURL(raw string) (string, error) {
	clean := strings.Trim(strings.TrimSpace(raw), "\"'")
	u, err := url.Parse(clean)
	if err != nil {
		return "", fmt.Errorf("parse amqp url: %w", err)
	}
	if u.Scheme != "amqp" && u.Scheme != "amqps" {
		return "", errors.New("amqp url scheme must be amqp:// or amqps://")
	}
	if u.Path == "" {
		u.Path = "/"
	}
	return u.String(), nil
}
