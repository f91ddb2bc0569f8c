package chstore

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

const (
	defaultBatchSize     = 1000
	defaultFlushInterval = 5 * time.Second
	defaultShutdownWait  = 10 * time.Second
)

// StepRow is one chain's recorded scalars for one sampling step, tagged
// with the run and chain that produced it.
type StepRow struct {
	RunID         string
	ChainIndex    int
	Step          int
	Switches      int
	LogLikelihood float64
	LogPosterior  float64
	NumComponents int
	Temperature   float64
}

// Sink buffers StepRow writes and flushes them to ClickHouse in
// batches, the same batch-then-flush-on-timer pattern the teacher's
// BatchBuffer uses for OTLP signal rows.
type Sink struct {
	conn driver.Conn

	mu   sync.Mutex
	rows []StepRow

	batchSize     int
	flushInterval time.Duration
	shutdownWait  time.Duration

	flushTimer *time.Timer
	stopCh     chan struct{}
	closeOnce  sync.Once
	wg         sync.WaitGroup
	logger     *slog.Logger
}

// NewSink connects to ClickHouse at config's address, ensures the
// chain_steps table exists, and starts the background flush loop.
func NewSink(ctx context.Context, config *ConnectionConfig, logger *slog.Logger) (*Sink, error) {
	if logger == nil {
		logger = slog.Default()
	}
	conn, err := Connect(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("chstore: connecting: %w", err)
	}
	if err := InitializeSchema(ctx, conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("chstore: initializing schema: %w", err)
	}

	s := &Sink{
		conn:          conn,
		batchSize:     defaultBatchSize,
		flushInterval: defaultFlushInterval,
		shutdownWait:  defaultShutdownWait,
		stopCh:        make(chan struct{}),
		logger:        logger,
		flushTimer:    time.NewTimer(defaultFlushInterval),
	}
	s.wg.Add(1)
	go s.flushLoop()
	return s, nil
}

// Record buffers one step row, flushing immediately if the buffer has
// reached its batch size.
func (s *Sink) Record(row StepRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, row)
	if len(s.rows) >= s.batchSize {
		return s.flushLocked(context.Background())
	}
	return nil
}

func (s *Sink) flushLoop() {
	defer s.wg.Done()
	for {
		select {
		case <-s.flushTimer.C:
			s.mu.Lock()
			if err := s.flushLocked(context.Background()); err != nil {
				s.logger.Warn("chstore: periodic flush failed", "error", err)
			}
			s.mu.Unlock()
			s.flushTimer.Reset(s.flushInterval)
		case <-s.stopCh:
			return
		}
	}
}

// flushLocked writes every buffered row in one batch insert. Caller
// must hold s.mu.
func (s *Sink) flushLocked(ctx context.Context) error {
	if len(s.rows) == 0 {
		return nil
	}
	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO chain_steps
		(run_id, chain_index, step, switches, log_likelihood, log_posterior, num_components, temperature, recorded_at)
	`)
	if err != nil {
		return fmt.Errorf("chstore: preparing batch: %w", err)
	}
	now := time.Now()
	for _, r := range s.rows {
		if err := batch.Append(
			r.RunID, uint32(r.ChainIndex), uint64(r.Step), uint32(r.Switches),
			r.LogLikelihood, r.LogPosterior, uint32(r.NumComponents), r.Temperature, now,
		); err != nil {
			return fmt.Errorf("chstore: appending row: %w", err)
		}
	}
	if err := batch.Send(); err != nil {
		return fmt.Errorf("chstore: sending batch: %w", err)
	}
	s.rows = s.rows[:0]
	return nil
}

// Flush blocks until every buffered row has been sent.
func (s *Sink) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flushLocked(ctx)
}

// Close stops the flush loop, flushes any remaining rows, and closes
// the underlying connection.
func (s *Sink) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.stopCh)
		s.wg.Wait()
		s.mu.Lock()
		err = s.flushLocked(context.Background())
		s.mu.Unlock()
		if closeErr := s.conn.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	})
	return err
}
