package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// StartSoftDeleteCleaner purges soft-deleted rows older than retention
// every interval until ctx is done.
func StartSoftDeleteCleaner(
	ctx context.Context,
	db *sql.DB,
	interval time.Duration,
	retention time.Duration,
	log *zap.Logger,
) {
	startCleaner(ctx, db, clockwork.NewRealClock(), interval, retention, log)
}

func startCleaner(
	ctx context.Context,
	db *sql.DB,
	clock clockwork.Clock,
	interval time.Duration,
	retention time.Duration,
	log *zap.Logger,
) {
	ticker := clock.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.Chan():
				PurgeDeleted(ctx, db, clock.Now().Add(-retention), log)
			}
		}
	}()
}

// PurgeDeleted hard-deletes rows soft-deleted before cutoff. It returns
// the number of rows removed.
func PurgeDeleted(ctx context.Context, db *sql.DB, cutoff time.Time, log *zap.Logger) int64 {
	res, err := db.ExecContext(ctx, `
        DELETE FROM records
         WHERE deleted = true
           AND updated_at < $1
    `, cutoff.Unix())
	if err != nil {
		log.Error("failed to clean soft-deleted records", zap.Error(err))
		return 0
	}
	rows, _ := res.RowsAffected()
	if rows > 0 {
		log.Info("cleaned soft-deleted records", zap.Int64("removed", rows))
	}
	return rows
}
