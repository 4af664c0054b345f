package main

import (
	"testing"

	sdklog "go.opentelemetry.io/otel/sdk/log"

	"bizzytrack/backend/internal/audit/stream"
	"bizzytrack/backend/internal/telemetry/otel"
)

func TestAuditPublishers(t *testing.T) {
	if got := auditPublishers(nil, nil); len(got) != 0 {
		t.Errorf("disabled streaming: publishers = %v, want none", got)
	}

	// Empty topic disables Kafka; the nil publisher must not be handed on.
	kafka := stream.NewKafkaPublisher([]string{"localhost:9092"}, "")
	if got := auditPublishers(kafka, &otel.Providers{}); len(got) != 0 {
		t.Errorf("empty topic: publishers = %v, want none", got)
	}

	kafka = stream.NewKafkaPublisher([]string{"localhost:9092"}, "bizzytrack-audit")
	defer kafka.Close()
	lp := sdklog.NewLoggerProvider()
	got := auditPublishers(kafka, &otel.Providers{LoggerProvider: lp, Exporting: true})
	if len(got) != 2 || got[0].Name() != "kafka" || got[1].Name() != "otel" {
		t.Fatalf("publishers = %v, want kafka and otel", got)
	}
	for _, p := range got {
		if p == nil {
			t.Error("nil publisher in list")
		}
	}
}
