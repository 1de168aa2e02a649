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

var _ repository.PostRepository = (*DB)(nil)

func (db *DB) CreatePost(ctx context.Context, post *model.Post) error {
	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO post (title, content, user_idx, game_idx, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		post.Title, post.Content, post.UserIdx, post.GameIdx, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting post: %w", err)
	}
	idx, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading new post idx: %w", err)
	}
	post.Idx = idx
	return nil
}

// ListPosts pages a game's board newest-first, each row carrying the author
// nickname and the view count. The second return is the board's total live
// post count, for page math.
func (db *DB) ListPosts(ctx context.Context, gameIdx int64, page, perPage int) ([]model.PostSummary, int64, error) {
	if page < 1 {
		page = 1
	}
	if perPage <= 0 {
		perPage = 20
	}
	offset := (page - 1) * perPage

	var total int64
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM post WHERE game_idx = ? AND deleted_at IS NULL`,
		gameIdx,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("sqlite: counting posts: %w", err)
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT p.idx, p.user_idx, p.title, p.created_at, u.nickname,
			(SELECT COUNT(*) FROM view v WHERE v.post_idx = p.idx) AS view
		 FROM post p
		 JOIN users u ON p.user_idx = u.idx
		 WHERE p.game_idx = ? AND p.deleted_at IS NULL
		 ORDER BY p.idx DESC
		 LIMIT ? OFFSET ?`,
		gameIdx, perPage, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("sqlite: listing posts: %w", err)
	}
	defer rows.Close()

	posts := make([]model.PostSummary, 0, perPage)
	for rows.Next() {
		var p model.PostSummary
		if err := rows.Scan(&p.PostIdx, &p.UserIdx, &p.Title, &p.CreatedAt, &p.Nickname, &p.View); err != nil {
			return nil, 0, fmt.Errorf("sqlite: scanning post row: %w", err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("sqlite: iterating posts: %w", err)
	}
	return posts, total, nil
}

// SearchPosts matches titles across every game's board. The second return
// is the total number of hits.
func (db *DB) SearchPosts(ctx context.Context, title string, page, perPage int) ([]model.PostSummary, int64, error) {
	if page < 1 {
		page = 1
	}
	if perPage <= 0 {
		perPage = 7
	}
	offset := (page - 1) * perPage
	pattern := "%" + title + "%"

	var total int64
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM post WHERE title LIKE ? AND deleted_at IS NULL`,
		pattern,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("sqlite: counting post search: %w", err)
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT p.idx, p.game_idx, p.user_idx, p.title, p.created_at, u.nickname,
			(SELECT COUNT(*) FROM view v WHERE v.post_idx = p.idx) AS view
		 FROM post p
		 JOIN users u ON p.user_idx = u.idx
		 WHERE p.title LIKE ? AND p.deleted_at IS NULL
		 ORDER BY p.idx DESC
		 LIMIT ? OFFSET ?`,
		pattern, perPage, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("sqlite: searching posts: %w", err)
	}
	defer rows.Close()

	posts := make([]model.PostSummary, 0, perPage)
	for rows.Next() {
		var p model.PostSummary
		if err := rows.Scan(&p.PostIdx, &p.GameIdx, &p.UserIdx, &p.Title, &p.CreatedAt, &p.Nickname, &p.View); err != nil {
			return nil, 0, fmt.Errorf("sqlite: scanning search row: %w", err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("sqlite: iterating post search: %w", err)
	}
	return posts, total, nil
}

// GetPostDetail loads one post and records the view in the same
// transaction. Every read counts, repeat visits included.
func (db *DB) GetPostDetail(ctx context.Context, postIdx, viewerIdx int64) (*model.PostDetail, error) {
	var detail model.PostDetail
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx,
			`SELECT p.game_idx, p.user_idx, p.title, p.content, p.created_at, u.nickname
			 FROM post p
			 JOIN users u ON p.user_idx = u.idx
			 WHERE p.idx = ? AND p.deleted_at IS NULL`,
			postIdx,
		).Scan(&detail.GameIdx, &detail.UserIdx,
			&detail.Title, &detail.Content, &detail.CreatedAt, &detail.Nickname)
		if err != nil {
			if isNoRows(err) {
				return apperror.NotFound("게시글이 존재하지 않습니다")
			}
			return fmt.Errorf("sqlite: loading post %d: %w", postIdx, err)
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO view (post_idx, user_idx, created_at) VALUES (?, ?, ?)`,
			postIdx, viewerIdx, time.Now(),
		); err != nil {
			return fmt.Errorf("sqlite: recording view: %w", err)
		}

		return tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM view WHERE post_idx = ?`,
			postIdx,
		).Scan(&detail.View)
	})
	if err != nil {
		return nil, err
	}
	return &detail, nil
}

// SoftDeletePost marks the author's own post deleted and reports how many
// rows that touched. Zero rows means the post is absent or owned by
// someone else; the service turns that into Forbidden.
func (db *DB) SoftDeletePost(ctx context.Context, postIdx, userIdx int64) (int64, error) {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE post SET deleted_at = ?
		 WHERE idx = ? AND user_idx = ? AND deleted_at IS NULL`,
		time.Now(), postIdx, userIdx,
	)
	if err != nil {
		return 0, fmt.Errorf("sqlite: deleting post %d: %w", postIdx, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sqlite: reading delete count: %w", err)
	}
	return n, nil
}
