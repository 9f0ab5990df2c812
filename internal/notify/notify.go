// README: Outbound match notifications; RabbitMQ publisher and log fallback.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"qikparcel/internal/types"
)

// Notifier delivers a single notification. Implementations may fail; the
// Dispatcher logs and drops failures so delivery never blocks matching.
type Notifier interface {
	NotifyCourierOfMatch(ctx context.Context, matchID types.ID) error
	NotifySenderOfAcceptedMatch(ctx context.Context, matchID types.ID) error
}

// LogNotifier writes notifications to the process log. Used when no broker
// is configured.
type LogNotifier struct{}

func (LogNotifier) NotifyCourierOfMatch(_ context.Context, matchID types.ID) error {
	log.Printf("notify courier: new match offer %s", matchID)
	return nil
}

func (LogNotifier) NotifySenderOfAcceptedMatch(_ context.Context, matchID types.ID) error {
	log.Printf("notify sender: match %s accepted", matchID)
	return nil
}

const (
	exchangeName     = "parcel_topic"
	keyMatchCreated  = "match.created"
	keyMatchAccepted = "match.accepted"
	contentTypeJSON  = "application/json"
)

type event struct {
	MatchID types.ID  `json:"match_id"`
	Event   string    `json:"event"`
	At      time.Time `json:"at"`
}

// AMQPNotifier publishes match events to a durable topic exchange.
type AMQPNotifier struct {
	conn *amqp091.Connection
}

// NewAMQPNotifier dials the broker and declares the exchange.
func NewAMQPNotifier(url string) (*AMQPNotifier, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close()

	err = ch.ExchangeDeclare(
		exchangeName,
		"topic",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchangeName, err)
	}
	return &AMQPNotifier{conn: conn}, nil
}

func (n *AMQPNotifier) Close() error {
	return n.conn.Close()
}

func (n *AMQPNotifier) NotifyCourierOfMatch(ctx context.Context, matchID types.ID) error {
	return n.publish(ctx, keyMatchCreated, matchID)
}

func (n *AMQPNotifier) NotifySenderOfAcceptedMatch(ctx context.Context, matchID types.ID) error {
	return n.publish(ctx, keyMatchAccepted, matchID)
}

func (n *AMQPNotifier) publish(ctx context.Context, routingKey string, matchID types.ID) error {
	ch, err := n.conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close()

	body, err := json.Marshal(event{MatchID: matchID, Event: routingKey, At: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	err = ch.PublishWithContext(ctx,
		exchangeName,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp091.Publishing{
			ContentType:  contentTypeJSON,
			Body:         body,
			Timestamp:    time.Now(),
			DeliveryMode: amqp091.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("publish %s: %w", routingKey, err)
	}
	return nil
}
