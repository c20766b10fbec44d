package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"go.uber.org/multierr"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/savoria-app/storefront-client/pkg/config"
	"github.com/savoria-app/storefront-client/pkg/logger"
)

// ErrNotFound is returned by Get when no blob exists under the key.
var ErrNotFound = errors.New("storage: key not found")

var errClosed = errors.New("storage: store is closed")

const writeQueueSize = 64

// Record is one persisted blob. Seq is a monotonic stamp reserved at enqueue
// time; apply refuses to overwrite a row carrying a higher stamp, so the last
// scheduled write wins even if sends reach the queue out of order.
type Record struct {
	Key       string `gorm:"primaryKey;column:key"`
	Value     []byte `gorm:"column:value"`
	Seq       int64  `gorm:"column:seq"`
	UpdatedAt time.Time
}

func (Record) TableName() string { return "kv_records" }

type writeOp struct {
	key    string
	value  []byte
	delete bool
	seq    int64
	ack    chan struct{}
}

// Store is a device-local key/value blob store backed by SQLite. Reads hit
// the database directly; writes are stamped with a sequence number and
// applied by a single writer goroutine, with the stamp deciding the winner
// for a key. Mutators only hold the mutex long enough to reserve a stamp, so
// a full queue never stalls them behind disk latency.
type Store struct {
	db     *gorm.DB
	logg   *logger.Logger
	writes chan writeOp

	mu     sync.Mutex
	seq    int64
	closed bool

	senders sync.WaitGroup
	wg      sync.WaitGroup
}

// Open boots the store at the configured path and starts the writer.
func Open(ctx context.Context, cfg config.StorageConfig, logg *logger.Logger) (*Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	silent := gormlogger.New(
		log.New(io.Discard, "", log.LstdFlags),
		gormlogger.Config{LogLevel: gormlogger.Silent},
	)

	conn, err := gorm.Open(sqlite.Open(cfg.Path), &gorm.Config{
		Logger:                 silent,
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening local storage: %w", err)
	}

	if err := conn.AutoMigrate(&Record{}); err != nil {
		return nil, fmt.Errorf("migrating local storage: %w", err)
	}

	s := &Store{
		db:     conn,
		logg:   logg,
		writes: make(chan writeOp, writeQueueSize),
	}
	s.wg.Add(1)
	go s.writer()

	if logg != nil {
		logg.Debug(ctx, "local storage opened")
	}

	return s, nil
}

// Get returns the blob stored under key, or ErrNotFound.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	var record Record
	err := s.db.WithContext(ctx).First(&record, "key = ?", key).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("reading %q: %w", key, err)
	}
	return record.Value, nil
}

// Put schedules a write of value under key. The write is applied
// asynchronously by the writer goroutine; failures are logged, not returned.
func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	copied := append([]byte(nil), value...)
	return s.enqueue(writeOp{key: key, value: copied})
}

// Delete schedules removal of the blob under key.
func (s *Store) Delete(ctx context.Context, key string) error {
	return s.enqueue(writeOp{key: key, delete: true})
}

// Flush blocks until every write scheduled before the call has been applied.
func (s *Store) Flush(ctx context.Context) error {
	ack := make(chan struct{})
	if err := s.enqueue(writeOp{ack: ack}); err != nil {
		return err
	}
	select {
	case <-ack:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close drains pending writes and releases the underlying database.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	// Senders keep draining into a live writer; once they finish the channel
	// can close without racing a send.
	s.senders.Wait()
	close(s.writes)
	s.wg.Wait()

	var err error
	sqlDB, dbErr := s.db.DB()
	if dbErr != nil {
		err = multierr.Append(err, dbErr)
	} else {
		err = multierr.Append(err, sqlDB.Close())
	}
	return err
}

func (s *Store) enqueue(op writeOp) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return errClosed
	}
	s.seq++
	op.seq = s.seq
	s.senders.Add(1)
	s.mu.Unlock()
	defer s.senders.Done()

	// The send happens outside the mutex so a full queue only blocks this
	// caller. Close waits for in-flight senders before closing the channel.
	s.writes <- op
	return nil
}

func (s *Store) writer() {
	defer s.wg.Done()
	for op := range s.writes {
		if op.ack != nil {
			close(op.ack)
			continue
		}
		if err := s.apply(op); err != nil && s.logg != nil {
			ctx := s.logg.WithField(context.Background(), "key", op.key)
			s.logg.Error(ctx, "storage write failed", err)
		}
	}
}

func (s *Store) apply(op writeOp) error {
	if op.delete {
		return s.db.Where("key = ? AND seq < ?", op.key, op.seq).Delete(&Record{}).Error
	}

	record := Record{Key: op.key, Value: op.value, Seq: op.seq, UpdatedAt: time.Now().UTC()}
	return s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "key"}},
		Where: clause.Where{Exprs: []clause.Expression{
			clause.Expr{SQL: "kv_records.seq < ?", Vars: []any{op.seq}},
		}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "seq", "updated_at"}),
	}).Create(&record).Error
}
