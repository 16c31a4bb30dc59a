// Package services holds the report lifecycle rules, the admin
// jurisdiction filter and the dashboard aggregation, and wires them to the
// store and the persistence gateway.
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	"civic_trust/internal/metrics"
	"civic_trust/internal/models"
	"civic_trust/internal/persistence"
	"civic_trust/internal/store"
)

const (
	EventReportCreated  = "report.created"
	EventReportVoted    = "report.voted"
	EventReportVerified = "report.verified"
	EventReportStatus   = "report.status"
	EventReportAssigned = "report.assigned"
)

// ReportEvent is published after a report change has been committed.
type ReportEvent struct {
	Type   string        `json:"event"`
	Report models.Report `json:"report"`
}

type Publisher interface {
	Publish(ev ReportEvent)
}

type Options struct {
	// BestEffort keeps in-memory changes when the snapshot write fails.
	BestEffort bool
	// Retries is the number of extra write attempts after a failure.
	Retries       int
	RetryInterval time.Duration
	// EnforceUniqueVotes rejects a second vote by the same user on the
	// same report. Votes are recorded in the ledger either way.
	EnforceUniqueVotes bool

	Publisher Publisher
	Now       func() time.Time
	NewID     func() string
}

type CivicService struct {
	store   *store.Store
	gateway persistence.Gateway
	opts    Options
}

func NewCivicService(st *store.Store, gw persistence.Gateway, opts Options) *CivicService {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = newID
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = 200 * time.Millisecond
	}
	return &CivicService{store: st, gateway: gw, opts: opts}
}

// Restore loads the durable snapshot into the store.
func (s *CivicService) Restore(ctx context.Context) error {
	snap, err := s.gateway.Load(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	s.store.Load(snap)
	logrus.WithFields(logrus.Fields{
		"users":   len(snap.Users),
		"reports": len(snap.Reports),
		"driver":  s.gateway.Name(),
	}).Info("state restored")
	return nil
}

func (s *CivicService) StorageDriver() string {
	return s.gateway.Name()
}

func (s *CivicService) now() time.Time {
	return s.opts.Now().UTC()
}

// update runs fn in a store transaction and makes the result durable
// before it becomes visible.
func (s *CivicService) update(ctx context.Context, op string, fn func(tx *store.Tx) error) error {
	return s.store.Update(fn, func(snap models.Snapshot) error {
		err := s.save(ctx, snap)
		if err == nil {
			return nil
		}
		metrics.PersistenceFailures.Inc()
		entry := logrus.WithError(err).WithField("op", op)
		if s.opts.BestEffort {
			entry.Error("snapshot write failed, keeping in-memory change")
			return nil
		}
		entry.Error("snapshot write failed, change discarded")
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	})
}

func (s *CivicService) save(ctx context.Context, snap models.Snapshot) error {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = s.opts.RetryInterval
	eb.MaxElapsedTime = 0
	eb.Reset()
	b := backoff.WithContext(backoff.WithMaxRetries(eb, uint64(s.opts.Retries)), ctx)

	attempt := 0
	return backoff.Retry(func() error {
		attempt++
		err := s.gateway.Save(ctx, snap)
		if err != nil {
			logrus.WithError(err).WithField("attempt", attempt).Warn("snapshot write attempt failed")
		}
		return err
	}, b)
}

func (s *CivicService) publish(kind string, r models.Report) {
	if s.opts.Publisher == nil {
		return
	}
	s.opts.Publisher.Publish(ReportEvent{Type: kind, Report: r})
}
