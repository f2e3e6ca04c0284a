package repository

import "context"

// DeleteOrphanedWithPause runs DeleteOrphaned with pause called between
// the orphan scan and the delete.
func DeleteOrphanedWithPause(ctx context.Context, r *MongoSessionRepository, pause func()) (int64, error) {
	orphans, err := r.findOrphaned(ctx)
	if err != nil {
		return 0, err
	}
	pause()
	return r.deleteScanned(ctx, orphans)
}
