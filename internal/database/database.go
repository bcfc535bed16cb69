package database

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"k8s.io/klog/v2"

	"github.com/scythe504/pp-backend/internal"
)

// Service is the event journal: an append-only record of every log entry a
// room ever produced. It is never read back into the registry.
type Service interface {
	// Health returns a map of health status information.
	Health(ctx context.Context) map[string]string

	// Record stores the log entries of one committed room version.
	Record(ctx context.Context, room internal.Room, entries []internal.LogEntry) error

	// Events returns the journal of a room, oldest version first. Versions
	// may be recorded out of order, entries of one version keep their order.
	Events(ctx context.Context, roomID string) ([]Event, error)

	Close()
}

type Event struct {
	RoomID      string
	RoomVersion uint64
	Level       internal.LogLevel
	Message     string
	RecordedAt  time.Time
}

type service struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

const schema = `
CREATE TABLE IF NOT EXISTS room_events (
	id           BIGSERIAL PRIMARY KEY,
	room_id      TEXT        NOT NULL,
	room_version BIGINT      NOT NULL,
	level        TEXT        NOT NULL,
	message      TEXT        NOT NULL,
	recorded_at  TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS room_events_room_id_idx ON room_events (room_id, id);
`

// New connects to databaseURL and makes sure the journal table exists.
func New(ctx context.Context, databaseURL string) (Service, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing database url: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("creating journal table: %w", err)
	}
	klog.Infof("[database] Connected to %s/%s", config.ConnConfig.Host, config.ConnConfig.Database)
	return &service{pool: pool, now: time.Now}, nil
}

func (s *service) Record(ctx context.Context, room internal.Room, entries []internal.LogEntry) error {
	if len(entries) == 0 {
		return nil
	}
	recordedAt := s.now()
	rows := make([][]any, 0, len(entries))
	for _, entry := range entries {
		rows = append(rows, []any{room.ID, int64(room.Version), string(entry.Level), entry.Message, recordedAt})
	}

	n, err := s.pool.CopyFrom(ctx,
		pgx.Identifier{"room_events"},
		[]string{"room_id", "room_version", "level", "message", "recorded_at"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("recording room %s version %d: %w", room.ID, room.Version, err)
	}
	klog.V(2).Infof("[Record] Room %s: stored %d events for version %d", room.ID, n, room.Version)
	return nil
}

func (s *service) Events(ctx context.Context, roomID string) ([]Event, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT room_id, room_version, level, message, recorded_at
		   FROM room_events WHERE room_id = $1 ORDER BY room_version, id`, roomID)
	if err != nil {
		return nil, fmt.Errorf("querying events of room %s: %w", roomID, err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Event, error) {
		var (
			e       Event
			version int64
			level   string
		)
		if err := row.Scan(&e.RoomID, &version, &level, &e.Message, &e.RecordedAt); err != nil {
			return Event{}, err
		}
		e.RoomVersion = uint64(version)
		e.Level = internal.LogLevel(level)
		return e, nil
	})
}

// Health checks the health of the database connection by pinging the database.
// It returns a map with keys indicating various health statistics.
func (s *service) Health(ctx context.Context) map[string]string {
	ctx, cancel := context.WithTimeout(ctx, 1*time.Second)
	defer cancel()

	stats := make(map[string]string)

	if err := s.pool.Ping(ctx); err != nil {
		stats["status"] = "down"
		stats["error"] = fmt.Sprintf("db down: %v", err)
		klog.Errorf("[Health] db down: %v", err)
		return stats
	}

	stats["status"] = "up"
	stats["message"] = "It's healthy"

	poolStats := s.pool.Stat()
	stats["total_connections"] = strconv.Itoa(int(poolStats.TotalConns()))
	stats["in_use"] = strconv.Itoa(int(poolStats.AcquiredConns()))
	stats["idle"] = strconv.Itoa(int(poolStats.IdleConns()))
	stats["max_connections"] = strconv.Itoa(int(poolStats.MaxConns()))
	stats["wait_count"] = strconv.FormatInt(poolStats.EmptyAcquireCount(), 10)

	if poolStats.AcquiredConns() > poolStats.MaxConns()*8/10 {
		stats["message"] = "The database is experiencing heavy load."
	}
	return stats
}

func (s *service) Close() {
	klog.Info("[database] Disconnected")
	s.pool.Close()
}
