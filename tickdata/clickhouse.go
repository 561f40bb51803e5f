package tickdata

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

// ClickHouseConfig holds the connection settings for a tick table.
type ClickHouseConfig struct {
	Addr     string `json:"addr" yaml:"addr"`
	Database string `json:"database" yaml:"database"`
	Username string `json:"username" yaml:"username"`
	Password string `json:"password" yaml:"password"`
	Table    string `json:"table" yaml:"table"`
}

// Connect opens a native-protocol ClickHouse connection.
func Connect(cfg ClickHouseConfig) (driver.Conn, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.Addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		DialTimeout: 10 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("clickhouse open: %w", err)
	}
	return conn, nil
}

// ClickHouseSource streams (ts, bid, ask) rows for one symbol and window as
// a tick source. Rows arrive ordered by timestamp; the cursor is
// forward-only and single-pass like every other source.
type ClickHouseSource struct {
	rows driver.Rows
}

func NewClickHouseSource(ctx context.Context, conn driver.Conn, cfg ClickHouseConfig, symbol string, from, to time.Time) (*ClickHouseSource, error) {
	table := cfg.Table
	if table == "" {
		table = "ticks"
	}
	query := fmt.Sprintf(
		"SELECT ts, bid, ask FROM %s WHERE symbol = ? AND ts >= ? AND ts < ? ORDER BY ts",
		table,
	)
	rows, err := conn.Query(ctx, query, symbol, from, to)
	if err != nil {
		return nil, fmt.Errorf("clickhouse query: %w", err)
	}
	return &ClickHouseSource{rows: rows}, nil
}

func (s *ClickHouseSource) Next() (Tick, error) {
	if !s.rows.Next() {
		if err := s.rows.Err(); err != nil {
			return Tick{}, fmt.Errorf("clickhouse rows: %w", err)
		}
		return Tick{}, io.EOF
	}
	var (
		ts       time.Time
		bid, ask float64
	)
	if err := s.rows.Scan(&ts, &bid, &ask); err != nil {
		return Tick{}, fmt.Errorf("clickhouse scan: %w", err)
	}
	return Tick{Time: ts, Bid: bid, Ask: ask}, nil
}

func (s *ClickHouseSource) Close() error {
	return s.rows.Close()
}
