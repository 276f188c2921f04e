package config

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestPrompterFillSnowflake(t *testing.T) {
	t.Parallel()

	cfg := &Config{
		Dialect:   DialectSnowflake,
		Snowflake: &SnowflakeConfig{User: "preset", Warehouse: "COMPUTE_WH"},
	}

	in := strings.NewReader("secret\nabc12345.us-east-1\n NYC \nHEALTH")
	var out bytes.Buffer

	if err := NewPrompter(in, &out).Fill(cfg); err != nil {
		t.Fatalf("Fill() error = %v", err)
	}

	want := Credentials{
		User:      "preset",
		Password:  "secret",
		Account:   "abc12345.us-east-1",
		Database:  "NYC",
		Schema:    "HEALTH",
		Warehouse: "COMPUTE_WH",
	}
	if diff := cmp.Diff(want, cfg.Credentials()); diff != "" {
		t.Fatalf("Credentials() mismatch (-want +got):\n%s", diff)
	}

	prompts := out.String()
	if strings.Contains(prompts, "Snowflake user") || strings.Contains(prompts, "Snowflake warehouse") {
		t.Fatalf("prompted for preset fields: %q", prompts)
	}
	if !strings.Contains(prompts, "Enter your Snowflake password") {
		t.Fatalf("missing password prompt: %q", prompts)
	}
}

func TestPrompterFillPostgres(t *testing.T) {
	t.Parallel()

	cfg := &Config{
		Dialect:  DialectPostgres,
		Postgres: &PostgresConfig{User: "etl", Schema: "public", Port: 5432},
	}

	in := strings.NewReader("pw\nnyc\n")
	if err := NewPrompter(in, &bytes.Buffer{}).Fill(cfg); err != nil {
		t.Fatalf("Fill() error = %v", err)
	}
	if cfg.Postgres.Password != "pw" || cfg.Postgres.Database != "nyc" {
		t.Fatalf("Postgres = %+v, want password pw and database nyc", cfg.Postgres)
	}
}

func TestPrompterFillEOF(t *testing.T) {
	t.Parallel()

	cfg := &Config{
		Dialect:   DialectSnowflake,
		Snowflake: &SnowflakeConfig{},
	}

	err := NewPrompter(strings.NewReader(""), &bytes.Buffer{}).Fill(cfg)
	if err == nil {
		t.Fatal("Fill() error = nil, want EOF failure")
	}
}

func TestPrompterSQLiteNoop(t *testing.T) {
	t.Parallel()

	cfg := &Config{Dialect: DialectSQLite, SQLite: &SQLiteConfig{Path: ":memory:"}}
	var out bytes.Buffer
	if err := NewPrompter(strings.NewReader(""), &out).Fill(cfg); err != nil {
		t.Fatalf("Fill() error = %v", err)
	}
	if out.Len() != 0 {
		t.Fatalf("sqlite prompted: %q", out.String())
	}
}
