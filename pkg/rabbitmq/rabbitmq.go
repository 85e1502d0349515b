package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	amqp "github.com/streadway/amqp"

	"market/internal/services"
)

// EventsQueue receives every marketplace event.
const EventsQueue = "market_events"

// Client holds the RabbitMQ connection and channel.
type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	mu      sync.Mutex // amqp channels are not safe for concurrent publishing
}

// Config holds RabbitMQ connection details.
type Config struct {
	URL string
}

// NewClient connects to RabbitMQ and declares the events queue.
func NewClient(cfg Config) (*Client, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := declareEventsQueue(ch); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	log.Printf("RabbitMQ client connected and %s declared.", EventsQueue)

	return &Client{
		conn:    conn,
		channel: ch,
	}, nil
}

func declareEventsQueue(ch *amqp.Channel) error {
	_, err := ch.QueueDeclare(
		EventsQueue, // name
		true,        // durable
		false,       // delete when unused
		false,       // exclusive
		false,       // no-wait
		nil,         // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare %s: %w", EventsQueue, err)
	}
	return nil
}

// Close closes the RabbitMQ channel and connection.
func (c *Client) Close() error {
	var errs []error
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close channel: %w", err))
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close connection: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("multiple errors occurred during RabbitMQ client close: %v", errs)
	}
	return nil
}

// Publish sends event to the events queue as persistent JSON. The event type
// is used as the message type.
func (c *Client) Publish(ctx context.Context, event services.Event) error {
	if c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available")
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event to JSON: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	err = c.channel.Publish(
		"",          // default exchange
		EventsQueue, // routing key: the queue name
		false,       // mandatory
		false,       // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Type:         event.Type,
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		})
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}
	return nil
}

// ConsumeEvents delivers every event on the queue to handler in a separate
// goroutine. Events the handler fails are requeued once; malformed bodies
// are dropped.
func (c *Client) ConsumeEvents(handler func(services.Event) error) error {
	if c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available for consumption")
	}

	msgs, err := c.channel.Consume(
		EventsQueue, // queue
		"",          // consumer tag
		false,       // auto-ack
		false,       // exclusive
		false,       // no-local
		false,       // no-wait
		nil,         // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	go func() {
		for msg := range msgs {
			handleDelivery(msg, handler)
		}
	}()
	return nil
}

// acknowledger is the part of amqp.Delivery the consumer needs.
type acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

func handleDelivery(msg amqp.Delivery, handler func(services.Event) error) {
	processDelivery(msg.Body, msg.Redelivered, msg.DeliveryTag, &msg, handler)
}

func processDelivery(body []byte, redelivered bool, tag uint64, ack acknowledger, handler func(services.Event) error) {
	var event services.Event
	if err := json.Unmarshal(body, &event); err != nil {
		log.Printf("Dropping malformed event %d: %v", tag, err)
		if nackErr := ack.Nack(false, false); nackErr != nil {
			log.Printf("Error nacking message %d: %v", tag, nackErr)
		}
		return
	}

	if err := handler(event); err != nil {
		log.Printf("Error processing event %d (%s): %v", tag, event.Type, err)
		if nackErr := ack.Nack(false, !redelivered); nackErr != nil {
			log.Printf("Error nacking message %d: %v", tag, nackErr)
		}
		return
	}
	if ackErr := ack.Ack(false); ackErr != nil {
		log.Printf("Error acking message %d: %v", tag, ackErr)
	}
}

// LogEvent is a consumer handler that writes each event to the log.
func LogEvent(event services.Event) error {
	log.Printf("Received %s event for %s by %s", event.Type, event.EntityID, event.ActorID)
	return nil
}
