package database

import (
	"errors"

	"chirp/internal/observability"

	"gorm.io/gorm"
)

const queryTimerKey = "chirp:query_timer"

// RegisterMetricsCallbacks hooks latency observation into every GORM
// operation on db. A before callback starts a timer labelled with the
// operation and statement table, and the matching after callback stops it.
// GORM parses the statement model before running callbacks, so the table
// name is already resolved when the timer starts.
func RegisterMetricsCallbacks(db *gorm.DB) error {
	timers := func(operation string) (func(*gorm.DB), func(*gorm.DB)) {
		before := func(tx *gorm.DB) {
			table := tx.Statement.Table
			if table == "" {
				table = "unknown"
			}
			tx.InstanceSet(queryTimerKey, observability.TrackQuery(operation, table))
		}
		after := func(tx *gorm.DB) {
			if v, ok := tx.InstanceGet(queryTimerKey); ok {
				if stop, ok := v.(func()); ok {
					stop()
				}
			}
		}
		return before, after
	}

	cb := db.Callback()
	insertBefore, insertAfter := timers("insert")
	selectBefore, selectAfter := timers("select")
	updateBefore, updateAfter := timers("update")
	deleteBefore, deleteAfter := timers("delete")
	rowBefore, rowAfter := timers("row")
	rawBefore, rawAfter := timers("raw")

	return errors.Join(
		cb.Create().Before("gorm:create").Register("chirp:metrics_before_insert", insertBefore),
		cb.Create().After("gorm:create").Register("chirp:metrics_after_insert", insertAfter),
		cb.Query().Before("gorm:query").Register("chirp:metrics_before_select", selectBefore),
		cb.Query().After("gorm:query").Register("chirp:metrics_after_select", selectAfter),
		cb.Update().Before("gorm:update").Register("chirp:metrics_before_update", updateBefore),
		cb.Update().After("gorm:update").Register("chirp:metrics_after_update", updateAfter),
		cb.Delete().Before("gorm:delete").Register("chirp:metrics_before_delete", deleteBefore),
		cb.Delete().After("gorm:delete").Register("chirp:metrics_after_delete", deleteAfter),
		cb.Row().Before("gorm:row").Register("chirp:metrics_before_row", rowBefore),
		cb.Row().After("gorm:row").Register("chirp:metrics_after_row", rowAfter),
		cb.Raw().Before("gorm:raw").Register("chirp:metrics_before_raw", rawBefore),
		cb.Raw().After("gorm:raw").Register("chirp:metrics_after_raw", rawAfter),
	)
}
