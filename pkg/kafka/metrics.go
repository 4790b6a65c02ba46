package kafka

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ProducerMessagesPublished counts messages acknowledged by the brokers.
	ProducerMessagesPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: TopicPrefix,
		Subsystem: "kafka_producer",
		Name:      "messages_published_total",
		Help:      "Messages acknowledged by Kafka, by topic.",
	}, []string{"topic"})

	// ProducerPublishErrors counts envelope encoding and write failures.
	ProducerPublishErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: TopicPrefix,
		Subsystem: "kafka_producer",
		Name:      "publish_errors_total",
		Help:      "Failed publish attempts, by topic.",
	}, []string{"topic"})

	// ProducerPublishDuration observes the latency of a single publish.
	ProducerPublishDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: TopicPrefix,
		Subsystem: "kafka_producer",
		Name:      "publish_duration_seconds",
		Help:      "Latency of publishing one event, by topic.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"topic"})
)
