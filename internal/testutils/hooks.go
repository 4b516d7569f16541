package testutils

import (
	"sync"
	"testing"

	"gorm.io/gorm"
)

const writeHookName = "testutils:write_hook"

// onWrite runs fn before every update or delete on table until the test ends.
func onWrite(t *testing.T, db *gorm.DB, table string, fn func(tx *gorm.DB)) {
	t.Helper()
	hook := func(tx *gorm.DB) {
		if tx.Statement.Table == table {
			fn(tx)
		}
	}
	if err := db.Callback().Update().Before("gorm:update").Register(writeHookName, hook); err != nil {
		t.Fatalf("register update hook: %v", err)
	}
	if err := db.Callback().Delete().Before("gorm:delete").Register(writeHookName, hook); err != nil {
		t.Fatalf("register delete hook: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Callback().Update().Remove(writeHookName)
		_ = db.Callback().Delete().Remove(writeHookName)
	})
}

// InjectVersionRace bumps the version of every row in table right before the
// next n updates or deletes on it, as a concurrent writer would. n < 0 races
// every write.
func InjectVersionRace(t *testing.T, db *gorm.DB, table string, n int) {
	var mu sync.Mutex
	remaining := n
	onWrite(t, db, table, func(tx *gorm.DB) {
		mu.Lock()
		defer mu.Unlock()
		if remaining == 0 {
			return
		}
		if remaining > 0 {
			remaining--
		}
		err := tx.Session(&gorm.Session{NewDB: true}).
			Exec("UPDATE " + table + " SET version = version + 1").Error
		if err != nil {
			tx.AddError(err)
		}
	})
}

// FailWrites makes every update or delete on table fail with err.
func FailWrites(t *testing.T, db *gorm.DB, table string, err error) {
	onWrite(t, db, table, func(tx *gorm.DB) {
		tx.AddError(err)
	})
}
