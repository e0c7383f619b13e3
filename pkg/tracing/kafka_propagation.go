package tracing

import (
	"context"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

const TraceparentHeader = "traceparent"

// Traceparent returns the W3C traceparent of the span in ctx, or "" if none.
func Traceparent(ctx context.Context) string {
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	return carrier[TraceparentHeader]
}

// KafkaHeaders converts a stored traceparent into Kafka message headers.
func KafkaHeaders(traceparent string) []kafka.Header {
	if traceparent == "" {
		return nil
	}
	return []kafka.Header{{Key: TraceparentHeader, Value: []byte(traceparent)}}
}
