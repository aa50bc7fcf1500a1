package producers

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/contribution-ledger/internal/config"
	"github.com/segmentio/kafka-go"
)

const (
	partitionReadAttempts = 5
	partitionReadBackoff  = 2 * time.Second
)

// topicAdmin is the part of *kafka.Conn used to provision ledger topics
type topicAdmin interface {
	ReadPartitions(topics ...string) ([]kafka.Partition, error)
	CreateTopics(topics ...kafka.TopicConfig) error
}

// topicSpec returns the creation settings for a ledger topic. Unset partition
// and replica counts fall back to a single-broker layout.
func topicSpec(cfg *config.KafkaConfig, topic string) kafka.TopicConfig {
	spec := kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     cfg.NumPartitions,
		ReplicationFactor: cfg.ReplicationFactor,
	}
	if spec.NumPartitions <= 0 {
		spec.NumPartitions = 1
	}
	if spec.ReplicationFactor <= 0 {
		spec.ReplicationFactor = 1
	}
	return spec
}

// ensureTopic creates the topic unless the broker already reports partitions
// for it. A topic created concurrently by another ledger process counts as present.
func ensureTopic(admin topicAdmin, spec kafka.TopicConfig, backoff time.Duration, log *slog.Logger) error {
	var (
		partitions []kafka.Partition
		err        error
	)
	for attempt := 1; attempt <= partitionReadAttempts; attempt++ {
		partitions, err = admin.ReadPartitions(spec.Topic)
		if err == nil {
			break
		}
		log.Warn("Reading ledger topic partitions failed", "topic", spec.Topic, "attempt", attempt, "error", err)
		if attempt < partitionReadAttempts {
			time.Sleep(backoff)
		}
	}

	if len(partitions) > 0 {
		log.Debug("Ledger topic present", "topic", spec.Topic, "partitions", len(partitions))
		return nil
	}

	log.Info("Creating ledger topic",
		"topic", spec.Topic,
		"partitions", spec.NumPartitions,
		"replication_factor", spec.ReplicationFactor,
	)
	if err := admin.CreateTopics(spec); err != nil {
		if errors.Is(err, kafka.TopicAlreadyExists) {
			return nil
		}
		return fmt.Errorf("failed to create kafka topic %s: %w", spec.Topic, err)
	}
	return nil
}
