package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
)

// DefaultExchange - topic exchange для событий жизненного цикла
const DefaultExchange = "donation_events"

// LifecycleEvent - событие, публикуемое после изменения состояния сущности
type LifecycleEvent struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	EntityType string         `json:"entity_type"`
	EntityID   string         `json:"entity_id"`
	UserIDs    []string       `json:"user_ids,omitempty"`
	Data       map[string]any `json:"data,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// RoutingKey - "<entity>.<type>", например "contribution.status"
func (e LifecycleEvent) RoutingKey() string {
	entity := strings.ToLower(strings.TrimSpace(e.EntityType))
	if entity == "" {
		entity = "event"
	}
	return entity + "." + strings.ToLower(e.Type)
}

// Publisher - публикация событий во внешний брокер
type Publisher interface {
	Publish(ctx context.Context, exchange, routingKey string, body any) error
	PublishLifecycleEvent(ctx context.Context, event LifecycleEvent) error
	Close()
}

// EventProducer держит соединение и канал RabbitMQ
type EventProducer struct {
	conn     *amqp091.Connection
	channel  *amqp091.Channel
	exchange string
	mu       sync.Mutex
}

// EventProducerFallback используется, когда брокер недоступен при старте
type EventProducerFallback struct{}

func (p *EventProducerFallback) Publish(ctx context.Context, exchange, routingKey string, body any) error {
	slog.WarnContext(ctx, "publish skipped", "component", "rabbitmq_producer", "mode", "fallback",
		"exchange", exchange, "routing_key", routingKey)
	return nil
}

func (p *EventProducerFallback) PublishLifecycleEvent(ctx context.Context, event LifecycleEvent) error {
	return p.Publish(ctx, DefaultExchange, event.RoutingKey(), event)
}

func (p *EventProducerFallback) Close() {}

func sanitizeAMQPURL(raw string) (string, error) {
	clean := strings.TrimSpace(raw)
	clean = strings.Trim(clean, "\"'")
	idx := strings.Index(strings.ToLower(clean), "amqp")
	if idx > 0 {
		clean = clean[idx:]
	}
	u, err := url.Parse(clean)
	if err != nil {
		return "", err
	}
	if u.Scheme != "amqp" && u.Scheme != "amqps" {
		return "", errors.New("AMQP scheme must be either 'amqp://' or 'amqps://'")
	}
	return clean, nil
}

// NewEventProducer подключается к брокеру с ограниченным таймаутом
func NewEventProducer(amqpURL, exchange string) (*EventProducer, error) {
	cleanURL, err := sanitizeAMQPURL(amqpURL)
	if err != nil {
		return nil, err
	}
	if exchange == "" {
		exchange = DefaultExchange
	}

	conn, err := amqp091.DialConfig(cleanURL, amqp091.Config{Dial: amqp091.DefaultDial(10 * time.Second)})
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	return &EventProducer{conn: conn, channel: ch, exchange: exchange}, nil
}

// NewPublisher возвращает EventProducer или fallback, если URL пуст или брокер недоступен
func NewPublisher(amqpURL, exchange string) Publisher {
	if strings.TrimSpace(amqpURL) == "" {
		slog.Warn("RabbitMQ URL is not configured, lifecycle events are not published")
		return &EventProducerFallback{}
	}
	producer, err := NewEventProducer(amqpURL, exchange)
	if err != nil {
		slog.Warn("RabbitMQ is unavailable, lifecycle events are not published", "error", err)
		return &EventProducerFallback{}
	}
	return producer
}

func declareExchange(ch *amqp091.Channel, exchange string) error {
	return ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil)
}

func (p *EventProducer) reopenChannel() error {
	ch, err := p.conn.Channel()
	if err != nil {
		return err
	}
	p.channel = ch
	return nil
}

// Publish отправляет JSON в exchange. При ошибке канал переоткрывается один раз.
func (p *EventProducer) Publish(ctx context.Context, exchange, routingKey string, body any) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		slog.ErrorContext(ctx, "json marshal failed", "component", "rabbitmq_producer",
			"exchange", exchange, "routing_key", routingKey, "error", err)
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := declareExchange(p.channel, exchange); err != nil {
		slog.WarnContext(ctx, "exchange declare failed; reopening channel", "component", "rabbitmq_producer",
			"exchange", exchange, "error", err)
		if err := p.reopenChannel(); err != nil {
			return err
		}
		if err := declareExchange(p.channel, exchange); err != nil {
			return err
		}
	}

	msg := amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		Timestamp:    time.Now(),
		Body:         jsonBody,
	}

	err = p.channel.PublishWithContext(ctx, exchange, routingKey, false, false, msg)
	if err == nil {
		return nil
	}

	slog.WarnContext(ctx, "publish failed; reopening channel", "component", "rabbitmq_producer",
		"exchange", exchange, "routing_key", routingKey, "error", err)
	if chErr := p.reopenChannel(); chErr != nil {
		return err
	}
	if exErr := declareExchange(p.channel, exchange); exErr != nil {
		return err
	}
	return p.channel.PublishWithContext(ctx, exchange, routingKey, false, false, msg)
}

// PublishLifecycleEvent публикует событие в exchange продюсера
func (p *EventProducer) PublishLifecycleEvent(ctx context.Context, event LifecycleEvent) error {
	return p.Publish(ctx, p.exchange, event.RoutingKey(), withDefaults(event))
}

func withDefaults(event LifecycleEvent) LifecycleEvent {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	return event
}

// Close закрывает канал и соединение
func (p *EventProducer) Close() {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
}
