package exports

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/samirwankhede/stayinsights/internal/analytics"
	kafkax "github.com/samirwankhede/stayinsights/internal/kafka"
	"github.com/samirwankhede/stayinsights/internal/metrics"
	redisx "github.com/samirwankhede/stayinsights/internal/redis"
)

var ErrForbidden = errors.New("export belongs to another user")

type StatusStore interface {
	Put(ctx context.Context, e *redisx.Export) error
	Get(ctx context.Context, id string) (*redisx.Export, error)
	Finish(ctx context.Context, id string, report []byte, location string, runErr error) error
}

type ReportBuilder interface {
	Dashboard(ctx context.Context, caller analytics.Caller, months int) ([]byte, error)
}

type Archiver interface {
	Store(ctx context.Context, exportID string, report []byte) (string, error)
}

type Notifier interface {
	SendExportReadyEmail(userEmail, exportID string, months int, location string) error
	SendExportFailedEmail(userEmail, exportID string) error
}

// ExportService queues report exports from the API and carries them out in
// the worker.
type ExportService struct {
	log       *zap.Logger
	store     StatusStore
	publisher kafkax.Publisher
	reports   ReportBuilder
	archive   Archiver
	notifier  Notifier
}

type Option func(*ExportService)

// WithArchive uploads finished exports to object storage.
func WithArchive(a Archiver) Option { return func(s *ExportService) { s.archive = a } }

// WithNotifier emails the requester when an export finishes.
func WithNotifier(n Notifier) Option { return func(s *ExportService) { s.notifier = n } }

func NewExportService(log *zap.Logger, store StatusStore, publisher kafkax.Publisher, reports ReportBuilder, opts ...Option) *ExportService {
	s := &ExportService{log: log, store: store, publisher: publisher, reports: reports}
	for _, o := range opts {
		o(s)
	}
	return s
}

type Request struct {
	Months int    `json:"months"`
	Email  string `json:"email" binding:"omitempty,email"`
}

// Request records a pending export and queues it for the worker.
func (s *ExportService) Request(ctx context.Context, caller analytics.Caller, req Request) (*redisx.Export, error) {
	e := &redisx.Export{
		ID:          uuid.NewString(),
		UserID:      caller.OwnerID,
		Role:        caller.Role,
		Status:      redisx.ExportPending,
		Months:      req.Months,
		Email:       strings.TrimSpace(req.Email),
		RequestedAt: time.Now().UTC(),
	}
	if err := s.store.Put(ctx, e); err != nil {
		return nil, fmt.Errorf("save export: %w", err)
	}

	msg, err := kafkax.ExportRequest{
		ExportID: e.ID,
		UserID:   e.UserID,
		Role:     e.Role,
		Months:   e.Months,
		Email:    e.Email,
	}.Marshal()
	if err != nil {
		return nil, err
	}
	if err := s.publisher.Publish(ctx, []byte(e.ID), msg); err != nil {
		metrics.ExportsTotal.WithLabelValues("enqueue_failed").Inc()
		if ferr := s.store.Finish(ctx, e.ID, nil, "", err); ferr != nil {
			s.log.Error("failed to mark export failed", zap.String("export_id", e.ID), zap.Error(ferr))
		}
		return nil, fmt.Errorf("queue export: %w", err)
	}
	metrics.ExportsTotal.WithLabelValues("requested").Inc()
	s.log.Info("export requested", zap.String("export_id", e.ID), zap.String("uid", e.UserID), zap.Int("months", e.Months))
	return e, nil
}

// Get returns an export to its requester or to an elevated caller.
func (s *ExportService) Get(ctx context.Context, id, userID string, elevated bool) (*redisx.Export, error) {
	e, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !elevated && e.UserID != userID {
		return nil, ErrForbidden
	}
	return e, nil
}

// Process builds the report for a queued export. Archive and email failures
// are logged; only a failed report build is returned.
func (s *ExportService) Process(ctx context.Context, req kafkax.ExportRequest) error {
	log := s.log.With(zap.String("export_id", req.ExportID))
	caller := analytics.Caller{Role: req.Role, OwnerID: req.UserID}

	report, err := s.reports.Dashboard(ctx, caller, req.Months)
	if err != nil {
		metrics.ExportsTotal.WithLabelValues("failed").Inc()
		if ferr := s.store.Finish(ctx, req.ExportID, nil, "", err); ferr != nil {
			log.Error("failed to mark export failed", zap.Error(ferr))
		}
		if s.notifier != nil && req.Email != "" {
			if merr := s.notifier.SendExportFailedEmail(req.Email, req.ExportID); merr != nil {
				log.Warn("export failure email not sent", zap.Error(merr))
			}
		}
		return fmt.Errorf("build export %s: %w", req.ExportID, err)
	}

	location := ""
	if s.archive != nil {
		if location, err = s.archive.Store(ctx, req.ExportID, report); err != nil {
			log.Error("archiving export failed", zap.Error(err))
			location = ""
		}
	}
	if err := s.store.Finish(ctx, req.ExportID, report, location, nil); err != nil {
		return fmt.Errorf("save export %s: %w", req.ExportID, err)
	}
	metrics.ExportsTotal.WithLabelValues("done").Inc()
	log.Info("export finished", zap.Int("bytes", len(report)), zap.String("location", location))

	if s.notifier != nil && req.Email != "" {
		if err := s.notifier.SendExportReadyEmail(req.Email, req.ExportID, req.Months, location); err != nil {
			log.Warn("export ready email not sent", zap.Error(err))
		}
	}
	return nil
}
