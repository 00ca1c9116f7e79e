// internal/historian/historian.go
package historian

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/modernart/internal/database"
	"github.com/jason-s-yu/modernart/internal/models"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Source yields action records; Pop returns (nil, nil) on timeout.
type Source interface {
	Pop(ctx context.Context, timeout time.Duration) (*models.ActionRecord, error)
}

// Sink persists action records and closes out idle games.
type Sink interface {
	InsertActions(ctx context.Context, records []models.ActionRecord) error
	MarkGameAbandoned(ctx context.Context, gameID uuid.UUID) (bool, error)
}

// Service drains the action queue into the archive in batches and marks
// games abandoned when no action arrived for longer than Inactivity.
type Service struct {
	source Source
	sink   Sink
	logger *logrus.Logger

	BatchSize     int
	FlushDelay    time.Duration
	Inactivity    time.Duration
	CheckInterval time.Duration

	lastActivity sync.Map // uuid.UUID -> time.Time

	batchMu   sync.Mutex
	batch     []models.ActionRecord
	lastFlush time.Time
}

func NewService(source Source, sink Sink, logger *logrus.Logger) *Service {
	return &Service{
		source:        source,
		sink:          sink,
		logger:        logger,
		BatchSize:     20,
		FlushDelay:    500 * time.Millisecond,
		Inactivity:    10 * time.Minute,
		CheckInterval: time.Minute,
		lastFlush:     time.Now(),
	}
}

// Run blocks until ctx is cancelled or a loop fails. Records still buffered
// are flushed before it returns.
func (s *Service) Run(ctx context.Context) error {
	s.logger.Info("historian started")
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.readLoop(ctx) })
	g.Go(func() error { return s.inactivityLoop(ctx) })
	err := g.Wait()

	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.Flush(flushCtx)
	s.logger.Info("historian stopped")
	return err
}

func (s *Service) readLoop(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return nil
		}
		rec, err := s.source.Pop(ctx, time.Second)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			s.logger.Warnf("pop action: %v", err)
			continue
		}
		if rec != nil {
			s.Accept(ctx, *rec)
		}
		if s.flushDue() {
			s.Flush(ctx)
		}
	}
}

// Accept records activity for the record's game and buffers it, flushing
// when the batch is full.
func (s *Service) Accept(ctx context.Context, rec models.ActionRecord) {
	if database.IsFinishing(rec) {
		s.lastActivity.Delete(rec.GameID)
	} else {
		s.lastActivity.Store(rec.GameID, time.Now())
	}

	s.batchMu.Lock()
	s.batch = append(s.batch, rec)
	full := len(s.batch) >= s.BatchSize
	s.batchMu.Unlock()

	if full {
		s.Flush(ctx)
	}
}

func (s *Service) flushDue() bool {
	s.batchMu.Lock()
	defer s.batchMu.Unlock()
	return len(s.batch) > 0 && time.Since(s.lastFlush) >= s.FlushDelay
}

// Flush writes the buffered records in one transaction. On failure the
// records are kept for the next attempt.
func (s *Service) Flush(ctx context.Context) {
	s.batchMu.Lock()
	defer s.batchMu.Unlock()
	s.lastFlush = time.Now()
	if len(s.batch) == 0 {
		return
	}

	if err := s.sink.InsertActions(ctx, s.batch); err != nil {
		s.logger.Errorf("flush %d actions: %v", len(s.batch), err)
		return
	}
	s.logger.Debugf("flushed %d actions", len(s.batch))
	s.batch = s.batch[:0]
}

func (s *Service) inactivityLoop(ctx context.Context) error {
	ticker := time.NewTicker(s.CheckInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			s.CheckInactive(ctx, now)
		}
	}
}

// CheckInactive marks every game idle since before now-Inactivity as
// abandoned and stops tracking it.
func (s *Service) CheckInactive(ctx context.Context, now time.Time) {
	s.lastActivity.Range(func(key, val interface{}) bool {
		gameID, ok1 := key.(uuid.UUID)
		last, ok2 := val.(time.Time)
		if !ok1 || !ok2 || now.Sub(last) <= s.Inactivity {
			return true
		}
		changed, err := s.sink.MarkGameAbandoned(ctx, gameID)
		if err != nil {
			s.logger.WithField("game_id", gameID).Errorf("mark abandoned: %v", err)
			return true
		}
		if changed {
			s.logger.WithField("game_id", gameID).Info("game abandoned after inactivity")
		}
		s.lastActivity.Delete(gameID)
		return true
	})
}
