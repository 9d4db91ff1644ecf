// Package kafka produces pipeline events to a Kafka topic with
// segmentio/kafka-go. Messages are keyed by request id so every event for
// one upload lands on the same partition.
package kafka
