package redisx

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// Export statuses.
const (
	ExportPending = "pending"
	ExportDone    = "done"
	ExportFailed  = "failed"
)

var ErrExportNotFound = errors.New("export not found")

type Export struct {
	ID          string          `json:"id"`
	UserID      string          `json:"userId"`
	Role        string          `json:"role"`
	Status      string          `json:"status"`
	Months      int             `json:"months"`
	Email       string          `json:"email,omitempty"`
	Error       string          `json:"error,omitempty"`
	Location    string          `json:"location,omitempty"`
	Report      json.RawMessage `json:"report,omitempty"`
	RequestedAt time.Time       `json:"requestedAt"`
	FinishedAt  *time.Time      `json:"finishedAt,omitempty"`
}

// ExportStore keeps export status and results in Redis until ttl passes.
type ExportStore struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewExportStore(client redis.Cmdable, ttl time.Duration) *ExportStore {
	return &ExportStore{client: client, ttl: ttl}
}

func (s *ExportStore) key(id string) string { return "export:" + id }

func (s *ExportStore) Put(ctx context.Context, e *Export) error {
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(e.ID), b, s.ttl).Err()
}

func (s *ExportStore) Get(ctx context.Context, id string) (*Export, error) {
	b, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrExportNotFound
	}
	if err != nil {
		return nil, err
	}
	var e Export
	if err := json.Unmarshal(b, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// Finish records the outcome of an export. A nil runErr marks it done.
func (s *ExportStore) Finish(ctx context.Context, id string, report []byte, location string, runErr error) error {
	e, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	e.FinishedAt = &now
	if runErr != nil {
		e.Status = ExportFailed
		e.Error = runErr.Error()
	} else {
		e.Status = ExportDone
		e.Report = report
		e.Location = location
	}
	return s.Put(ctx, e)
}
