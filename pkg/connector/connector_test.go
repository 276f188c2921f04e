package connector

import (
	"context"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/David-Botos/inspections-elt/pkg/config"
)

func TestSQLiteConnector(t *testing.T) {
	ctx := context.Background()

	conn, err := NewSQLiteConnector(ctx, &config.SQLiteConfig{Path: ":memory:"})
	if err != nil {
		t.Fatalf("NewSQLiteConnector() error = %v", err)
	}
	defer conn.Close()

	if conn.Dialect() != config.DialectSQLite {
		t.Fatalf("Dialect() = %q, want %q", conn.Dialect(), config.DialectSQLite)
	}
	if err := conn.Validate(ctx); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	// The in-memory database only survives on the single pinned connection.
	if _, err := conn.ExecWithTimeout(ctx, "CREATE TABLE t (v TEXT)", time.Second); err != nil {
		t.Fatalf("create table error = %v", err)
	}
	if _, err := conn.ExecWithTimeout(ctx, "INSERT INTO t (v) VALUES (?), (?)", time.Second, "a", "b"); err != nil {
		t.Fatalf("insert error = %v", err)
	}

	var n int
	if err := conn.GetWithTimeout(ctx, &n, "SELECT COUNT(*) FROM t", time.Second); err != nil {
		t.Fatalf("count error = %v", err)
	}
	if n != 2 {
		t.Fatalf("COUNT(*) = %d, want 2", n)
	}

	if stats := GetConnectionStats(conn.DB().DB); stats.MaxOpenConns != 1 {
		t.Fatalf("MaxOpenConns = %d, want 1", stats.MaxOpenConns)
	}
}

func TestSQLiteConnectorEmptyPath(t *testing.T) {
	_, err := NewSQLiteConnector(context.Background(), &config.SQLiteConfig{Path: "  "})
	if err == nil {
		t.Fatal("NewSQLiteConnector(empty) error = nil, want non-nil")
	}
}

func TestFactoryCreate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.Config
		wantErr string
	}{
		{
			name: "sqlite",
			cfg: &config.Config{
				Dialect: config.DialectSQLite,
				SQLite:  &config.SQLiteConfig{Path: ":memory:"},
			},
		},
		{
			name:    "unsupported dialect",
			cfg:     &config.Config{Dialect: "oracle"},
			wantErr: "unsupported warehouse dialect",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			factory := NewConnectorFactory(tt.cfg, zaptest.NewLogger(t))
			conn, err := factory.Create(context.Background())

			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("Create() error = %v, want containing %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Create() error = %v", err)
			}
			if err := conn.Close(); err != nil {
				t.Fatalf("Close() error = %v", err)
			}
		})
	}
}

func TestRebindPerDialect(t *testing.T) {
	ctx := context.Background()

	conn, err := NewSQLiteConnector(ctx, &config.SQLiteConfig{Path: ":memory:"})
	if err != nil {
		t.Fatalf("NewSQLiteConnector() error = %v", err)
	}
	defer conn.Close()

	const q = "INSERT INTO t (a, b) VALUES (?, ?)"
	if got := conn.DB().Rebind(q); got != q {
		t.Fatalf("sqlite Rebind() = %q, want unchanged", got)
	}
}
