package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/nundung/gamebible/internal/apperror"
	"github.com/nundung/gamebible/internal/model"
	"github.com/nundung/gamebible/internal/repository"
)

var _ repository.CommentRepository = (*DB)(nil)

// CreateComment is the comment workflow.
//
// One transaction: insert the comment, then notify the post's author that
// someone commented. Commenting on your own post emits nothing. The
// notification needs the post's game for its FK, which is why the caller
// passes gameIdx along.
func (db *DB) CreateComment(ctx context.Context, comment *model.Comment, gameIdx int64) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		var authorIdx int64
		err := tx.QueryRowContext(ctx,
			`SELECT user_idx FROM post WHERE idx = ? AND deleted_at IS NULL`,
			comment.PostIdx,
		).Scan(&authorIdx)
		if err != nil {
			if isNoRows(err) {
				return apperror.NotFound("게시글이 존재하지 않습니다")
			}
			return fmt.Errorf("sqlite: loading post author: %w", err)
		}

		res, err := tx.ExecContext(ctx,
			`INSERT INTO comment (user_idx, post_idx, content, created_at)
			 VALUES (?, ?, ?, ?)`,
			comment.UserIdx, comment.PostIdx, comment.Content, time.Now(),
		)
		if err != nil {
			return fmt.Errorf("sqlite: inserting comment: %w", err)
		}
		idx, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("sqlite: reading new comment idx: %w", err)
		}
		comment.Idx = idx

		if authorIdx == comment.UserIdx {
			return nil
		}
		return insertNotification(ctx, tx, &model.Notification{
			Type:    model.NotificationCommentMade,
			UserIdx: authorIdx,
			GameIdx: gameIdx,
			PostIdx: &comment.PostIdx,
		})
	})
}

// ListComments pages a post's comments oldest-first by ascending idx
// keyset, nicknames joined in. The second return is the post's total live
// comment count.
func (db *DB) ListComments(ctx context.Context, postIdx, lastIdx int64, limit int) ([]model.Comment, int64, error) {
	if limit <= 0 {
		limit = 20
	}

	var total int64
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM comment WHERE post_idx = ? AND deleted_at IS NULL`,
		postIdx,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("sqlite: counting comments: %w", err)
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT c.idx, c.user_idx, c.post_idx, c.content, c.created_at, u.nickname
		 FROM comment c
		 JOIN users u ON c.user_idx = u.idx
		 WHERE c.post_idx = ? AND c.idx > ? AND c.deleted_at IS NULL
		 ORDER BY c.idx ASC
		 LIMIT ?`,
		postIdx, lastIdx, limit,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("sqlite: listing comments: %w", err)
	}
	defer rows.Close()

	comments := make([]model.Comment, 0, limit)
	for rows.Next() {
		var c model.Comment
		if err := rows.Scan(&c.Idx, &c.UserIdx, &c.PostIdx, &c.Content, &c.CreatedAt, &c.Nickname); err != nil {
			return nil, 0, fmt.Errorf("sqlite: scanning comment row: %w", err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("sqlite: iterating comments: %w", err)
	}
	return comments, total, nil
}

// SoftDeleteComment marks the author's own comment deleted; zero rows means
// absent or not theirs.
func (db *DB) SoftDeleteComment(ctx context.Context, commentIdx, userIdx int64) (int64, error) {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE comment SET deleted_at = ?
		 WHERE idx = ? AND user_idx = ? AND deleted_at IS NULL`,
		time.Now(), commentIdx, userIdx,
	)
	if err != nil {
		return 0, fmt.Errorf("sqlite: deleting comment %d: %w", commentIdx, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sqlite: reading delete count: %w", err)
	}
	return n, nil
}
