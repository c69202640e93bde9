package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
)

// KafkaSender publishes messages to a Kafka topic for the mail/SMS gateway to consume.
// Records are keyed by applicant id so one applicant's messages stay ordered.
type KafkaSender struct {
	client *kgo.Client
	topic  string
	now    func() time.Time
}

// NewKafkaSender connects a producer to brokers.
func NewKafkaSender(brokers []string, topic string, opts ...kgo.Opt) (*KafkaSender, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers are required")
	}
	if topic == "" {
		return nil, fmt.Errorf("kafka topic is required")
	}
	base := []kgo.Opt{
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.ProducerLinger(0),
	}
	client, err := kgo.NewClient(append(base, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &KafkaSender{client: client, topic: topic, now: time.Now}, nil
}

func (s *KafkaSender) Send(ctx context.Context, msg Message) Result {
	payload, err := encode(msg, s.now())
	if err != nil {
		return failed(fmt.Errorf("encode message: %w", err))
	}
	record := &kgo.Record{
		Topic: s.topic,
		Key:   []byte(msg.ApplicantID),
		Value: payload,
		Headers: []kgo.RecordHeader{
			{Key: "routing_key", Value: []byte(routingKey(msg.Channel))},
		},
	}
	if err := s.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return failed(fmt.Errorf("produce to %s: %w", s.topic, err))
	}
	return ok()
}

// Close flushes buffered records and closes the client.
func (s *KafkaSender) Close() {
	s.client.Close()
}
