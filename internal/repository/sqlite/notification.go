package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/nundung/gamebible/internal/apperror"
	"github.com/nundung/gamebible/internal/model"
	"github.com/nundung/gamebible/internal/repository"
)

var _ repository.NotificationRepository = (*DB)(nil)

// insertNotification is the notification emitter. q is either the pool or a
// workflow's transaction: inside a transaction the row commits or rolls
// back with the primary write, so a notification is never visible for a
// write that didn't land. Both the single and bulk entry points go through
// a transaction when the caller has one; the old fire-and-forget single
// path is gone.
func insertNotification(ctx context.Context, q execer, n *model.Notification) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO notification (type, user_idx, game_idx, post_idx, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		n.Type, n.UserIdx, n.GameIdx, n.PostIdx, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting notification: %w", err)
	}
	return nil
}

// insertNotifications bulk-emits one row per target user, same event.
func insertNotifications(ctx context.Context, q execer, typ model.NotificationType, gameIdx int64, userIdxs []int64) error {
	now := time.Now()
	for _, userIdx := range userIdxs {
		if _, err := q.ExecContext(ctx,
			`INSERT INTO notification (type, user_idx, game_idx, post_idx, created_at)
			 VALUES (?, ?, ?, NULL, ?)`,
			typ, userIdx, gameIdx, now,
		); err != nil {
			return fmt.Errorf("sqlite: inserting notification for user %d: %w", userIdx, err)
		}
	}
	return nil
}

// CreateNotification writes a standalone notification outside any workflow.
func (db *DB) CreateNotification(ctx context.Context, n *model.Notification) error {
	return insertNotification(ctx, db.conn, n)
}

// ListNotifications pages the user's live notifications newest-first, 'lastIdx' keyset
// style: rows strictly below lastIdx, or from the top when lastIdx is 0.
// Each row carries joined context: the post title for comment events, the
// game title for wiki-change and denial events.
func (db *DB) ListNotifications(ctx context.Context, userIdx, lastIdx int64, limit int) ([]model.Notification, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT n.idx, n.type, n.user_idx, n.game_idx, n.post_idx, n.created_at,
		       COALESCE(p.title, ''), COALESCE(g.title, '')
		FROM notification n
		LEFT JOIN post p ON n.post_idx = p.idx AND n.type = 1
		LEFT JOIN game g ON n.game_idx = g.idx AND n.type IN (2, 3)
		WHERE n.user_idx = ? AND n.deleted_at IS NULL`
	args := []any{userIdx}
	if lastIdx > 0 {
		query += ` AND n.idx < ?`
		args = append(args, lastIdx)
	}
	query += ` ORDER BY n.idx DESC LIMIT ?`
	args = append(args, limit)

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing notifications: %w", err)
	}
	defer rows.Close()

	notifications := make([]model.Notification, 0, limit)
	for rows.Next() {
		var n model.Notification
		if err := rows.Scan(
			&n.Idx, &n.Type, &n.UserIdx, &n.GameIdx, &n.PostIdx, &n.CreatedAt,
			&n.PostTitle, &n.GameTitle,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning notification row: %w", err)
		}
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating notifications: %w", err)
	}
	return notifications, nil
}

// DeleteNotification soft-deletes one of the user's own notifications. A notification
// that doesn't exist or belongs to someone else is a Forbidden, not a leak
// of which it was.
func (db *DB) DeleteNotification(ctx context.Context, idx, userIdx int64) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE notification SET deleted_at = ?
		 WHERE idx = ? AND user_idx = ? AND deleted_at IS NULL`,
		time.Now(), idx, userIdx,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting notification %d: %w", idx, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if affected == 0 {
		return apperror.Forbidden("해당 알람을 찾을 수 없거나 삭제할 권한이 없습니다")
	}
	return nil
}
