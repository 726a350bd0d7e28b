package postgres

import (
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/jackleZac/trading-algorithm/internal/domain"
)

func TestDSN(t *testing.T) {
	got := DSN(ClientConfig{Host: "db", Database: "tradealgo", User: "algo", Password: "p@ss"})
	want := "postgres://algo:p%40ss@db:5432/tradealgo?sslmode=disable"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
	if got := DSN(ClientConfig{DSN: "postgres://x", Host: "ignored"}); got != "postgres://x" {
		t.Fatalf("explicit dsn not preferred: %q", got)
	}
}

func TestMigrationsOrdered(t *testing.T) {
	names, err := Migrations()
	if err != nil {
		t.Fatalf("migrations: %v", err)
	}
	want := []string{"001_bars.sql", "002_runs.sql", "003_intents.sql"}
	if !slices.Equal(names, want) {
		t.Fatalf("expected %v, got %v", want, names)
	}
}

func TestBarListQuery(t *testing.T) {
	since := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	query, args := barListQuery("EURUSD", "1m", domain.ListOpts{Since: &since, Limit: 500})
	if !strings.Contains(query, "ts > $3") || !strings.Contains(query, "LIMIT $4") {
		t.Fatalf("unexpected query %q", query)
	}
	if strings.Contains(query, "ts <=") {
		t.Fatalf("until clause without until: %q", query)
	}
	if len(args) != 4 || args[3] != 500 {
		t.Fatalf("unexpected args %v", args)
	}
}
