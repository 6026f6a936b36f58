package worker

import (
	"context"
	"errors"
	"sync"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	kafkax "github.com/samirwankhede/stayinsights/internal/kafka"
)

// MessageSource is the consumer side of the export topic.
type MessageSource interface {
	Fetch(ctx context.Context) (kafka.Message, error)
	Commit(ctx context.Context, m kafka.Message) error
}

type ExportProcessor interface {
	Process(ctx context.Context, req kafkax.ExportRequest) error
}

// Exporter consumes export requests with at most maxWorkers in flight.
// Messages that fail go to the DLQ and are committed so the partition moves on.
type Exporter struct {
	log        *zap.Logger
	processor  ExportProcessor
	c          MessageSource
	dlq        kafkax.Publisher
	maxWorkers int
}

func NewExporter(log *zap.Logger, processor ExportProcessor, c MessageSource, dlq kafkax.Publisher, maxWorkers int) *Exporter {
	if maxWorkers <= 0 {
		maxWorkers = 1
	}
	return &Exporter{
		log:        log,
		processor:  processor,
		c:          c,
		dlq:        dlq,
		maxWorkers: maxWorkers,
	}
}

// Run blocks until ctx is cancelled, then waits for in-flight exports.
func (e *Exporter) Run(ctx context.Context) error {
	sem := make(chan struct{}, e.maxWorkers)
	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		m, err := e.c.Fetch(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return ctx.Err()
			}
			e.log.Error("failed to read message", zap.Error(err))
			continue
		}

		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			return ctx.Err()
		}
		wg.Add(1)
		go func(m kafka.Message) {
			defer wg.Done()
			defer func() { <-sem }()

			if err := e.handleMessage(ctx, m); err != nil {
				e.log.Error("failed to handle message", zap.Error(err), zap.ByteString("key", m.Key))
				if derr := e.dlq.Publish(ctx, m.Key, m.Value); derr != nil {
					e.log.Error("failed to publish to DLQ", zap.Error(derr))
					return
				}
			}
			if err := e.c.Commit(ctx, m); err != nil {
				e.log.Error("failed to commit message", zap.Error(err))
			}
		}(m)
	}
}

func (e *Exporter) handleMessage(ctx context.Context, m kafka.Message) error {
	req, err := kafkax.ParseExportRequest(m.Value)
	if err != nil {
		return err
	}
	return e.processor.Process(ctx, req)
}
