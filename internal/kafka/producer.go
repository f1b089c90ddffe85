package kafka

import (
	"context"
	"encoding/json"

	"gatekeeper/internal/models"

	"github.com/segmentio/kafka-go"
)

type Producer struct {
	Writer *kafka.Writer
}

func NewProducer(brokers []string) *Producer {
	writer := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Balancer: &kafka.LeastBytes{},
	}
	return &Producer{Writer: writer}
}

func (p *Producer) publish(topic, key string, payload interface{}) error {
	value, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return p.Writer.WriteMessages(context.Background(),
		kafka.Message{
			Topic: topic,
			Key:   []byte(key),
			Value: value,
		},
	)
}

// PublishTicketIssued streams a newly issued ticket, keyed by tier so
// per-tier consumers keep ordering.
func (p *Producer) PublishTicketIssued(ticket models.Ticket) error {
	return p.publish(TopicTicketIssued, ticket.TierID, ticket)
}

// PublishTicketCheckedIn streams a check-in, keyed by event.
func (p *Producer) PublishTicketCheckedIn(ticket models.Ticket) error {
	return p.publish(TopicTicketCheckedIn, ticket.EventID, ticket)
}

// PublishPurchaseCompleted streams the full receipt of a completed
// purchase.
func (p *Producer) PublishPurchaseCompleted(receipt models.Receipt) error {
	return p.publish(TopicPurchaseCompleted, receipt.PurchaseID, receipt)
}

func (p *Producer) Close() error {
	return p.Writer.Close()
}
