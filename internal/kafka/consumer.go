package kafkax

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"
)

type Consumer struct {
	reader *kafka.Reader
}

func NewConsumer(brokers []string, group, topic string) *Consumer {
	return &Consumer{reader: kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		GroupID:  group,
		Topic:    topic,
		MinBytes: 1,
		MaxBytes: 10e6,
	})}
}

func (c *Consumer) Fetch(ctx context.Context) (kafka.Message, error) {
	return c.reader.FetchMessage(ctx)
}

func (c *Consumer) Commit(ctx context.Context, m kafka.Message) error {
	return c.reader.CommitMessages(ctx, m)
}

func (c *Consumer) Close() error { return c.reader.Close() }

// TypeReportExport marks a request to build and deliver a report export.
const TypeReportExport = "report_export"

// Envelope is a generic event schema.
type Envelope struct {
	Type string `json:"type"`
}

func ParseEnvelope(b []byte) (Envelope, error) {
	var e Envelope
	err := json.Unmarshal(b, &e)
	return e, err
}

// ExportRequest is the payload of a TypeReportExport message.
type ExportRequest struct {
	Type     string `json:"type"`
	ExportID string `json:"exportId"`
	UserID   string `json:"userId"`
	Role     string `json:"role"`
	Months   int    `json:"months"`
	Email    string `json:"email,omitempty"`
}

func (r ExportRequest) Marshal() ([]byte, error) {
	r.Type = TypeReportExport
	return json.Marshal(r)
}

// ParseExportRequest checks the envelope type before decoding the payload so
// other message kinds on the topic are rejected by name.
func ParseExportRequest(b []byte) (ExportRequest, error) {
	env, err := ParseEnvelope(b)
	if err != nil {
		return ExportRequest{}, fmt.Errorf("decode envelope: %w", err)
	}
	if env.Type != TypeReportExport {
		return ExportRequest{}, fmt.Errorf("unexpected message type %q", env.Type)
	}
	var r ExportRequest
	if err := json.Unmarshal(b, &r); err != nil {
		return r, err
	}
	if r.ExportID == "" {
		return r, fmt.Errorf("export request has no id")
	}
	return r, nil
}
