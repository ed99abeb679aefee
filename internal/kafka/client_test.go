package kafka

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
)

func TestNewClient(t *testing.T) {
	tests := []struct {
		name    string
		brokers []string
		enabled bool
	}{
		{"no brokers", nil, false},
		{"blank entries only", []string{"", "  "}, false},
		{"trims entries", []string{" localhost:9092 ", "", "kafka:9092"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := NewClient(tt.brokers)
			if client.Enabled() != tt.enabled {
				t.Errorf("Enabled() = %v, want %v", client.Enabled(), tt.enabled)
			}
			for _, b := range client.Brokers {
				if b == "" || b[0] == ' ' {
					t.Errorf("unexpected broker entry %q", b)
				}
			}
		})
	}
}

func TestNewWriterKeysByHash(t *testing.T) {
	writer := NewClient([]string{"localhost:9092"}).NewWriter("order.created", 5*time.Second)
	defer writer.Close()

	if writer.Topic != "order.created" {
		t.Errorf("expected topic order.created, got %s", writer.Topic)
	}
	if _, ok := writer.Balancer.(*kafka.Hash); !ok {
		t.Errorf("expected hash balancer, got %T", writer.Balancer)
	}
	if writer.WriteTimeout != 5*time.Second {
		t.Errorf("expected write timeout 5s, got %s", writer.WriteTimeout)
	}
}

func TestNoopWriter(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	var w MessageWriter = NewNoopWriter(logger)
	err := w.WriteMessages(context.Background(), kafka.Message{Key: []byte("order-1"), Value: []byte("{}")})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !bytes.Contains(buf.Bytes(), []byte("key=order-1")) {
		t.Errorf("expected dropped message to be logged, got %q", buf.String())
	}
}
