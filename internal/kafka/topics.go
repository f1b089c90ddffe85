package kafka

import (
	"log"
	"net"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
)

const (
	TopicTicketIssued      = "gatekeeper.ticket.issued"
	TopicTicketCheckedIn   = "gatekeeper.ticket.checkedin"
	TopicPurchaseCompleted = "gatekeeper.purchase.completed"
)

// RequiredTopics lists every topic the service publishes to.
func RequiredTopics() []string {
	return []string{TopicTicketIssued, TopicTicketCheckedIn, TopicPurchaseCompleted}
}

// EnsureTopicsExist creates the given topics if the broker doesn't have
// them yet. Failures on one topic don't stop the rest.
func EnsureTopicsExist(brokers []string, topics []string) error {
	conn, err := kafka.Dial("tcp", brokers[0])
	if err != nil {
		return err
	}
	defer conn.Close()

	controller, err := conn.Controller()
	if err != nil {
		return err
	}
	controllerConn, err := kafka.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	if err != nil {
		return err
	}
	defer controllerConn.Close()

	for _, topic := range topics {
		topicConfigs := []kafka.TopicConfig{
			{
				Topic:             topic,
				NumPartitions:     1,
				ReplicationFactor: 1,
			},
		}

		err = controllerConn.CreateTopics(topicConfigs...)
		if err != nil {
			if err.Error() == "kafka server: topic already exists" {
				continue
			}
			log.Printf("Error creating topic %s: %v", topic, err)
		} else {
			log.Printf("Created topic: %s", topic)
		}
	}

	// Give the broker a moment to settle the new topics.
	time.Sleep(1 * time.Second)
	return nil
}
