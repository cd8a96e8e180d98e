package events

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"

	"catalog-service/internal/models"
)

// Event subjects
const (
	SubjectProductCreated  = "catalog.product.created"
	SubjectProductDeleted  = "catalog.product.deleted"
	SubjectImportCompleted = "catalog.import.completed"
)

// ProductEvent is the payload for product lifecycle events
type ProductEvent struct {
	EventID    string    `json:"eventId"`
	EventType  string    `json:"eventType"`
	PartnerID  string    `json:"partnerId"`
	ProductID  string    `json:"productId"`
	Title      string    `json:"title"`
	CategoryID string    `json:"categoryId"`
	Price      float64   `json:"price"`
	Status     string    `json:"status"`
	Timestamp  time.Time `json:"timestamp"`
}

// ImportCompletedEvent is the one-shot signal emitted after a successful
// bulk import commit
type ImportCompletedEvent struct {
	EventID   string    `json:"eventId"`
	EventType string    `json:"eventType"`
	PartnerID string    `json:"partnerId"`
	Created   int       `json:"created"`
	Timestamp time.Time `json:"timestamp"`
}

// Publisher publishes catalog events to NATS
type Publisher struct {
	conn   *nats.Conn
	logger *logrus.Entry
}

// NewPublisher connects to NATS and returns a catalog events publisher
func NewPublisher(logger *logrus.Logger) (*Publisher, error) {
	natsURL := os.Getenv("NATS_URL")
	if natsURL == "" {
		natsURL = nats.DefaultURL
	}

	conn, err := nats.Connect(natsURL,
		nats.Name("catalog-service"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &Publisher{
		conn:   conn,
		logger: logger.WithField("component", "catalog-events"),
	}, nil
}

// Close drains and closes the NATS connection
func (p *Publisher) Close() {
	if p.conn != nil {
		_ = p.conn.Drain()
	}
}

// PublishProductCreated publishes a catalog.product.created event
func (p *Publisher) PublishProductCreated(partnerID string, product *models.Product) {
	p.publish(SubjectProductCreated, &ProductEvent{
		EventID:    uuid.New().String(),
		EventType:  SubjectProductCreated,
		PartnerID:  partnerID,
		ProductID:  product.ID.String(),
		Title:      product.Title,
		CategoryID: product.CategoryID,
		Price:      product.Price,
		Status:     string(product.Status),
		Timestamp:  time.Now().UTC(),
	})
}

// PublishProductDeleted publishes a catalog.product.deleted event
func (p *Publisher) PublishProductDeleted(partnerID string, productID uuid.UUID) {
	p.publish(SubjectProductDeleted, &ProductEvent{
		EventID:   uuid.New().String(),
		EventType: SubjectProductDeleted,
		PartnerID: partnerID,
		ProductID: productID.String(),
		Timestamp: time.Now().UTC(),
	})
}

// ImportCompleted emits the post-import completion signal. Fire-and-forget:
// delivery failures are logged, never surfaced to the import flow.
func (p *Publisher) ImportCompleted(partnerID string, created int) {
	p.publish(SubjectImportCompleted, &ImportCompletedEvent{
		EventID:   uuid.New().String(),
		EventType: SubjectImportCompleted,
		PartnerID: partnerID,
		Created:   created,
		Timestamp: time.Now().UTC(),
	})
}

// publish serializes and sends an event asynchronously so the caller never
// blocks on the broker
func (p *Publisher) publish(subject string, event interface{}) {
	go func() {
		data, err := json.Marshal(event)
		if err != nil {
			p.logger.WithError(err).WithField("subject", subject).Error("Failed to marshal event")
			return
		}

		if err := p.conn.Publish(subject, data); err != nil {
			p.logger.WithError(err).WithField("subject", subject).Error("Failed to publish event")
			return
		}

		p.logger.WithField("subject", subject).Debug("Event published")
	}()
}
