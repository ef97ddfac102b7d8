package dbctx

import (
	"context"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

type ctxKey struct{}

func openDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: gormLogger.Discard})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	return db
}

func TestOnPrefersTransaction(t *testing.T) {
	db := openDB(t)
	tx := db.Begin()
	defer tx.Rollback()
	ctx := context.WithValue(context.Background(), ctxKey{}, "req-1")

	got := Context{Ctx: ctx, Tx: tx}.On(db)
	if got.Statement.ConnPool != tx.Statement.ConnPool || got.Statement.ConnPool == db.Statement.ConnPool {
		t.Fatalf("On should run on the transaction handle")
	}
	if got.Statement.Context.Value(ctxKey{}) != "req-1" {
		t.Fatalf("context: want req-1 got=%v", got.Statement.Context.Value(ctxKey{}))
	}
}

func TestOnFallsBackWithoutContext(t *testing.T) {
	db := openDB(t)
	got := Context{}.On(db)
	if got.Statement.Context == nil {
		t.Fatalf("nil Ctx should become context.Background")
	}
}
