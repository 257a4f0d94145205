// Package attendance counts the distinct days a user has logged in.
package attendance

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const dbTimeout = 5 * time.Second

// Recorder records that a user was present at a point in time.
type Recorder interface {
	Record(ctx context.Context, userID int64, at time.Time) error
}

// Source reports how many distinct days a user was present.
type Source interface {
	Days(ctx context.Context, userID int64) (int, error)
}

// Day truncates t to its UTC calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Fixed reports the same count for every user and records nothing.
type Fixed int

func (f Fixed) Record(context.Context, int64, time.Time) error { return nil }

func (f Fixed) Days(context.Context, int64) (int, error) { return int(f), nil }

type dayKey struct {
	userID int64
	day    time.Time
}

// Memory stores attendance in memory for tests and database-less runs.
type Memory struct {
	mu   sync.Mutex
	days map[dayKey]struct{}
}

func NewMemory() *Memory {
	return &Memory{days: make(map[dayKey]struct{})}
}

func (m *Memory) Record(_ context.Context, userID int64, at time.Time) error {
	m.mu.Lock()
	m.days[dayKey{userID, Day(at)}] = struct{}{}
	m.mu.Unlock()
	return nil
}

func (m *Memory) Days(_ context.Context, userID int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for k := range m.days {
		if k.userID == userID {
			n++
		}
	}
	return n, nil
}

// Postgres stores one attendance_days row per user and day.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) Record(ctx context.Context, userID int64, at time.Time) error {
	if p == nil || p.pool == nil {
		return fmt.Errorf("attendance pool is nil")
	}

	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	tag, err := p.pool.Exec(ctx,
		`INSERT INTO attendance_days (user_id, day)
		 VALUES ($1, $2)
		 ON CONFLICT (user_id, day) DO NOTHING`,
		userID,
		Day(at),
	)
	if err != nil {
		return fmt.Errorf("record attendance: %w", err)
	}
	if tag.RowsAffected() == 1 {
		slog.Debug("attendance recorded", "user_id", userID, "day", Day(at).Format(time.DateOnly))
	}
	return nil
}

func (p *Postgres) Days(ctx context.Context, userID int64) (int, error) {
	if p == nil || p.pool == nil {
		return 0, fmt.Errorf("attendance pool is nil")
	}

	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var n int
	err := p.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM attendance_days WHERE user_id = $1`, userID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count attendance days: %w", err)
	}
	return n, nil
}
