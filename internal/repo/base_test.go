package repo

import (
	"context"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func openTestConn(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	return conn
}

func TestBaseDBBindsRequestContext(t *testing.T) {
	conn := openTestConn(t)
	base := NewBase(conn)

	type ctxKey struct{}
	ctx := context.WithValue(context.Background(), ctxKey{}, "marker")

	bound := base.DB(ctx)
	if bound == nil || bound.Statement == nil {
		t.Fatal("expected a statement-bound session")
	}
	if bound.Statement.Context != ctx {
		t.Fatalf("context did not flow through, got %v", bound.Statement.Context)
	}
}

func TestBaseDBNilContextReturnsRawConn(t *testing.T) {
	conn := openTestConn(t)
	base := NewBase(conn)

	if got := base.DB(nil); got != conn {
		t.Fatal("expected the raw connection for a nil context")
	}
}

func TestWithConnSwapsConnection(t *testing.T) {
	first := openTestConn(t)
	second := openTestConn(t)

	base := NewBase(first)
	swapped := base.WithConn(second)

	if swapped.db != second {
		t.Fatal("expected the swapped base to hold the new connection")
	}
	if base.db != first {
		t.Fatal("expected the original base to keep its connection")
	}
}
