package queue

import (
    "context"
    "encoding/json"
    "log"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
)

const bookingCreatedQueue = "booking.created"

// PipelinePublisher hands committed bookings to the downstream
// payment/ticketing consumers.  Unlike the seat-state channel this
// path is durable; the consumers live outside this service.
type PipelinePublisher interface {
    BookingCreated(ctx context.Context, ev BookingCreatedEvent) error
}

// AMQPPublisher publishes booking.created messages to RabbitMQ.  It
// dials per publish and never panics; any error is logged and
// returned so the caller can choose to ignore it — the booking stands
// regardless.
type AMQPPublisher struct {
    url string
}

// NewAMQPPublisher returns a publisher for the given broker URL.
func NewAMQPPublisher(url string) *AMQPPublisher {
    return &AMQPPublisher{url: url}
}

// BookingCreated declares the durable booking.created queue
// (idempotent) and publishes the event as a persistent JSON message.
func (p *AMQPPublisher) BookingCreated(ctx context.Context, ev BookingCreatedEvent) error {
    conn, err := amqp.Dial(p.url)
    if err != nil {
        log.Printf("rabbitmq: dial failed: %v", err)
        return err
    }
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        log.Printf("rabbitmq: channel open failed: %v", err)
        return err
    }
    defer func() { _ = ch.Close() }()

    if _, err := ch.QueueDeclare(
        bookingCreatedQueue, // name
        true,                // durable
        false,               // autoDelete
        false,               // exclusive
        false,               // noWait
        nil,                 // args
    ); err != nil {
        log.Printf("rabbitmq: queue declare failed: %v", err)
        return err
    }

    body, err := json.Marshal(ev)
    if err != nil {
        log.Printf("rabbitmq: marshal event failed: %v", err)
        return err
    }

    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent,
        Timestamp:    time.Now().UTC(),
        Body:         body,
    }
    if err := ch.PublishWithContext(ctx, "", bookingCreatedQueue, false, false, pub); err != nil {
        log.Printf("rabbitmq: publish failed: %v", err)
        return err
    }
    return nil
}

// NopPipeline drops booking events; used when no broker is configured.
type NopPipeline struct{}

func (NopPipeline) BookingCreated(context.Context, BookingCreatedEvent) error { return nil }
