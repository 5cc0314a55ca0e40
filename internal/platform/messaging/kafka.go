package messaging

import (
	"context"
	"errors"
	"hash/fnv"
	"log/slog"
	"sync"

	"strawpoll/contexts/polling/poll-engine/ports"
)

var ErrBusClosed = errors.New("event bus closed")

type Handler func(context.Context, ports.EventEnvelope) error

// Kafka is the event bus the outbox relay publishes to. It keeps Kafka's
// delivery shape in process: every consumer group sees every event on a
// topic, and within a group each event goes to exactly one member, chosen by
// partition key so one poll's events stay ordered on one member.
type Kafka struct {
	mu      sync.RWMutex
	brokers []string
	topics  map[string]map[string]*consumerGroup
	closed  bool
	done    chan struct{}
	logger  *slog.Logger
}

type consumerGroup struct {
	members []chan ports.EventEnvelope
}

func NewKafka(brokers []string, logger *slog.Logger) (*Kafka, error) {
	if logger == nil {
		logger = slog.Default()
	}
	return &Kafka{
		brokers: append([]string(nil), brokers...),
		topics:  make(map[string]map[string]*consumerGroup),
		done:    make(chan struct{}),
		logger:  logger,
	}, nil
}

func (k *Kafka) Brokers() []string {
	return append([]string(nil), k.brokers...)
}

func (k *Kafka) Publish(ctx context.Context, topic string, event ports.EventEnvelope) error {
	if err := event.Validate(); err != nil {
		return err
	}

	k.mu.RLock()
	if k.closed {
		k.mu.RUnlock()
		return ErrBusClosed
	}
	targets := make([]chan ports.EventEnvelope, 0, len(k.topics[topic]))
	for _, group := range k.topics[topic] {
		if len(group.members) == 0 {
			continue
		}
		targets = append(targets, group.members[partition(event.PartitionKey, len(group.members))])
	}
	k.mu.RUnlock()

	for _, target := range targets {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-k.done:
			return ErrBusClosed
		case target <- event:
		}
	}

	k.logger.Debug("event published",
		"event", "kafka_publish",
		"module", "internal/platform/messaging",
		"layer", "platform",
		"topic", topic,
		"event_id", event.EventID,
		"event_type", event.EventType,
		"consumer_groups", len(targets),
	)
	return nil
}

// Subscribe joins groupName on topic until ctx is done.
func (k *Kafka) Subscribe(ctx context.Context, topic string, groupName string, handler Handler) error {
	ch := make(chan ports.EventEnvelope, 128)

	k.mu.Lock()
	if k.closed {
		k.mu.Unlock()
		return ErrBusClosed
	}
	groups, ok := k.topics[topic]
	if !ok {
		groups = make(map[string]*consumerGroup)
		k.topics[topic] = groups
	}
	group, ok := groups[groupName]
	if !ok {
		group = &consumerGroup{}
		groups[groupName] = group
	}
	group.members = append(group.members, ch)
	k.mu.Unlock()

	go func() {
		defer k.leave(topic, groupName, ch)
		for {
			select {
			case <-ctx.Done():
				return
			case <-k.done:
				return
			case event := <-ch:
				if err := handler(ctx, event); err != nil {
					k.logger.Error("consumer handler failed",
						"event", "kafka_consume_failed",
						"module", "internal/platform/messaging",
						"layer", "platform",
						"topic", topic,
						"consumer_group", groupName,
						"event_id", event.EventID,
						"event_type", event.EventType,
						"error", err.Error(),
					)
				}
			}
		}
	}()
	return nil
}

// Close stops delivery. Subscribers exit without draining buffered events.
func (k *Kafka) Close() error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.closed {
		return nil
	}
	k.closed = true
	close(k.done)
	return nil
}

func (k *Kafka) leave(topic string, consumerGroup string, target chan ports.EventEnvelope) {
	k.mu.Lock()
	defer k.mu.Unlock()
	group, ok := k.topics[topic][consumerGroup]
	if !ok {
		return
	}
	for i, member := range group.members {
		if member == target {
			group.members = append(group.members[:i], group.members[i+1:]...)
			return
		}
	}
}

// partition is FNV-1a over the key, reduced to the member count.
func partition(key string, members int) int {
	hash := fnv.New32a()
	_, _ = hash.Write([]byte(key))
	return int(hash.Sum32() % uint32(members))
}

var _ ports.EventPublisher = (*Kafka)(nil)
